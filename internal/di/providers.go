package di

import (
	"context"
	"log/slog"
	"os"
	"time"

	"newsletter-scrapers/internal/adapter/content"
	"newsletter-scrapers/internal/adapter/discord"
	"newsletter-scrapers/internal/adapter/hackernews"
	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/adapter/output"
	"newsletter-scrapers/internal/adapter/queue"
	"newsletter-scrapers/internal/adapter/storage"
	"newsletter-scrapers/internal/adapter/twitter"
	"newsletter-scrapers/internal/adapter/wechat"
	"newsletter-scrapers/internal/adapter/writing"
	"newsletter-scrapers/internal/config"
	"newsletter-scrapers/internal/curation"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
	"newsletter-scrapers/internal/usecase"
)

func provideSlogLogger(cfg *config.Config) *slog.Logger {
	return logging.NewSlog(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

func provideClock() func() time.Time {
	return time.Now
}

func provideJSONFile(cfg *config.Config, logger ports.Logger) *output.JSONFile {
	return output.NewJSONFile(cfg.OutputDir, logger)
}

// provideStore opens the SQLite mirror when DB_PATH is set. A nil store means
// the mirror is off.
func provideStore(ctx context.Context, cfg *config.Config, logger ports.Logger) (*storage.Store, func(), error) {
	if cfg.DBPath == "" {
		return nil, func() {}, nil
	}
	store, err := storage.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error(context.Background(), "failed to close sqlite store", "error", err)
		}
	}, nil
}

// providePublisher connects to Redis when REDIS_URL is set.
func providePublisher(ctx context.Context, cfg *config.Config, logger ports.Logger) (*queue.Publisher, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}
	pub, err := queue.Connect(ctx, cfg.RedisURL, cfg.RedisQueue, logger)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Error(context.Background(), "failed to close redis client", "error", err)
		}
	}, nil
}

func provideSink(file *output.JSONFile, store *storage.Store, pub *queue.Publisher, logger ports.Logger) ports.Sink {
	var mirrors []ports.BatchMirror
	if store != nil {
		mirrors = append(mirrors, store)
	}
	if pub != nil {
		mirrors = append(mirrors, pub)
	}
	return output.NewFanout(logger, file, mirrors...)
}

func provideStorySource(cfg *config.Config, logger ports.Logger) ports.StorySource {
	return hackernews.New(cfg.RequestTimeout, cfg.HNConcurrency, logger)
}

func provideContentFetcher(cfg *config.Config, logger ports.Logger) ports.ContentFetcher {
	return content.New(cfg.ContentTimeout, logger)
}

func provideTaxonomy(cfg *config.Config) (*curation.Taxonomy, error) {
	return curation.LoadTaxonomy(cfg.TaxonomyFile)
}

func provideHackerNewsConfig(cfg *config.Config, now func() time.Time) usecase.HackerNewsConfig {
	return usecase.HackerNewsConfig{
		Concurrency: cfg.HNConcurrency,
		Now:         now,
	}
}

func provideCurator(cfg *config.Config, taxonomy *curation.Taxonomy, now func() time.Time) (*curation.Curator, error) {
	return curation.NewCurator(taxonomy, model.CurationConfig{
		MinRelevance: cfg.MinRelevance,
		PoolSize:     cfg.PoolSize,
		PublishCount: cfg.PublishCount,
	}, now)
}

func provideEditorialWriter(cfg *config.Config, logger ports.Logger) ports.EditorialWriter {
	if cfg.GeminiAPIKey == "" {
		return nil
	}
	return writing.NewGeminiWriter(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.RequestTimeout, logger)
}

func provideNotifier(cfg *config.Config, logger ports.Logger) ports.Notifier {
	if cfg.DiscordWebhookURL == "" {
		return nil
	}
	return discord.NewWebhook(cfg.DiscordWebhookURL, cfg.RequestTimeout, logger)
}

func provideTweetSource(cfg *config.Config, logger ports.Logger, now func() time.Time) (ports.TweetSource, error) {
	session, err := twitter.LoadSession(cfg.XCookiesFile, cfg.XAccountsFile)
	if err != nil {
		return nil, err
	}
	client, err := twitter.NewClient(twitter.Options{
		Session:      session,
		Timeout:      cfg.RequestTimeout,
		RequestDelay: cfg.XRequestDelay,
		Logger:       logger,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideArticleSource(cfg *config.Config, logger ports.Logger, now func() time.Time) (ports.ArticleSource, error) {
	creds, err := wechat.LoadCredentials(cfg.WeChatConfigFile)
	if err != nil {
		return nil, err
	}
	client, err := wechat.NewClient(wechat.Options{
		Credentials: creds,
		Timeout:     cfg.RequestTimeout,
		Logger:      logger,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideSchedule(cfg *config.Config) string {
	return cfg.ScheduleCron
}
