package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

// XScrape saves user timelines and searches read through a browser session.
type XScrape struct {
	tweets ports.TweetSource
	sink   ports.Sink
	logger ports.Logger
	now    func() time.Time
}

// NewXScrape constructs the use case. A nil now uses time.Now.
func NewXScrape(tweets ports.TweetSource, sink ports.Sink, logger ports.Logger, now func() time.Time) *XScrape {
	if now == nil {
		now = time.Now
	}
	return &XScrape{tweets: tweets, sink: sink, logger: logger, now: now}
}

// Verify reports the account the session belongs to.
func (x *XScrape) Verify(ctx context.Context) (*model.Account, error) {
	account, err := x.tweets.Verify(ctx)
	if err != nil {
		return nil, err
	}
	x.logger.Info(ctx, "x session verified", "screen_name", account.ScreenName)
	return account, nil
}

// User saves the latest tweets of handle into user_<handle>_<ts>.json.
// A nil Result with no error means the timeline was empty and nothing was written.
func (x *XScrape) User(ctx context.Context, handle string, limit int) (*Result, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, fmt.Errorf("handle must not be empty")
	}
	items, err := x.tweets.UserTweets(ctx, handle, limit)
	if err != nil {
		return nil, fmt.Errorf("user @%s: %w", handle, err)
	}
	return x.save(ctx, "user_"+handle, items, map[string]any{
		"mode":   "user",
		"handle": handle,
		"limit":  limit,
	})
}

// Search saves the latest tweets matching query into search_<slug>_<ts>.json.
func (x *XScrape) Search(ctx context.Context, query string, limit int) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	items, err := x.tweets.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return x.save(ctx, "search_"+Slug(query), items, map[string]any{
		"mode":  "search",
		"query": query,
		"limit": limit,
	})
}

func (x *XScrape) save(ctx context.Context, name string, items []model.RawItem, scrapeConfig map[string]any) (*Result, error) {
	if len(items) == 0 {
		x.logger.Warn(ctx, "no tweets returned", "name", name)
		return nil, nil
	}
	batch := newBatch(model.SourceTwitter, name, items, scrapeConfig, x.now())
	location, err := x.sink.Save(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("save %s batch: %w", name, err)
	}
	x.logger.Info(ctx, "tweets saved",
		"name", name,
		"items", batch.Stats.TotalItems,
		"likes", batch.Stats.TotalLikes,
		"output", location,
	)
	return &Result{Batch: batch, Location: location}, nil
}
