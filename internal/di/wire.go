//go:build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/adapter/output"
	"newsletter-scrapers/internal/app"
	"newsletter-scrapers/internal/config"
	"newsletter-scrapers/internal/domain/ports"
	"newsletter-scrapers/internal/usecase"
)

var loggerSet = wire.NewSet(
	provideSlogLogger,
	logging.New,
	wire.Bind(new(ports.Logger), new(*logging.SLogger)),
)

var sinkSet = wire.NewSet(
	provideJSONFile,
	provideStore,
	providePublisher,
	provideSink,
)

var hackerNewsSet = wire.NewSet(
	provideStorySource,
	provideContentFetcher,
	provideTaxonomy,
	provideHackerNewsConfig,
	usecase.NewHackerNewsScrape,
)

var curateSet = wire.NewSet(
	provideCurator,
	provideEditorialWriter,
	provideNotifier,
	wire.Bind(new(ports.NewsletterStore), new(*output.JSONFile)),
	usecase.NewCurate,
)

// InitializeHackerNews wires the HackerNews scrape with every configured sink.
func InitializeHackerNews(ctx context.Context, cfg *config.Config) (*usecase.HackerNewsScrape, func(), error) {
	wire.Build(loggerSet, sinkSet, hackerNewsSet, provideClock)
	return nil, nil, nil
}

// InitializeCurate wires the curation use case.
func InitializeCurate(cfg *config.Config) (*usecase.Curate, error) {
	wire.Build(loggerSet, provideJSONFile, provideTaxonomy, provideClock, curateSet)
	return nil, nil
}

// InitializeXScrape wires the X session scraper.
func InitializeXScrape(ctx context.Context, cfg *config.Config) (*usecase.XScrape, func(), error) {
	wire.Build(loggerSet, sinkSet, provideClock, provideTweetSource, usecase.NewXScrape)
	return nil, nil, nil
}

// InitializeWeChatScrape wires the WeChat article scraper.
func InitializeWeChatScrape(ctx context.Context, cfg *config.Config) (*usecase.WeChatScrape, func(), error) {
	wire.Build(loggerSet, sinkSet, provideClock, provideArticleSource, usecase.NewWeChatScrape)
	return nil, nil, nil
}

// InitializeScheduler wires the cron application running the full pipeline.
func InitializeScheduler(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	wire.Build(
		loggerSet,
		sinkSet,
		hackerNewsSet,
		curateSet,
		provideClock,
		usecase.NewPipeline,
		wire.Bind(new(app.Job), new(*usecase.Pipeline)),
		provideSchedule,
		app.New,
	)
	return nil, nil, nil
}
