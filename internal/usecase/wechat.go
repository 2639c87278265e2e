package usecase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

// WeChatArticlePrefix names single-article output files.
const WeChatArticlePrefix = "wechat_article"

// WeChatScrape saves official account articles fetched with captured credentials.
type WeChatScrape struct {
	articles ports.ArticleSource
	sink     ports.Sink
	logger   ports.Logger
	now      func() time.Time
}

// NewWeChatScrape constructs the use case. A nil now uses time.Now.
func NewWeChatScrape(articles ports.ArticleSource, sink ports.Sink, logger ports.Logger, now func() time.Time) *WeChatScrape {
	if now == nil {
		now = time.Now
	}
	return &WeChatScrape{articles: articles, sink: sink, logger: logger, now: now}
}

// Verify checks that the stored credentials are still accepted.
func (w *WeChatScrape) Verify(ctx context.Context) error {
	if err := w.articles.Verify(ctx); err != nil {
		return err
	}
	w.logger.Info(ctx, "wechat credentials verified")
	return nil
}

// Article fetches one article into wechat_article_<ts>.json.
func (w *WeChatScrape) Article(ctx context.Context, articleURL string) (*Result, error) {
	parsed, err := url.Parse(articleURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid article url %q", articleURL)
	}

	item, err := w.articles.Article(ctx, articleURL)
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", articleURL, err)
	}

	batch := newBatch(model.SourceWeChat, WeChatArticlePrefix, []model.RawItem{*item}, map[string]any{
		"mode": "article",
		"url":  articleURL,
	}, w.now())
	location, err := w.sink.Save(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("save article: %w", err)
	}
	w.logger.Info(ctx, "article saved", "title", item.Title, "account", item.AuthorUsername, "output", location)
	return &Result{Batch: batch, Location: location}, nil
}
