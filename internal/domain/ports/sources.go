package ports

import (
	"context"

	"newsletter-scrapers/internal/domain/model"
)

// StorySource lists HackerNews stories.
type StorySource interface {
	Listing(ctx context.Context, listing string, limit int) ([]model.RawItem, error)
	Search(ctx context.Context, query string, limit int) ([]model.RawItem, error)
}

// ContentFetcher downloads a linked page and extracts readable text and images.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (*model.PageContent, error)
}

// TweetSource reads X timelines through a replayed browser session.
type TweetSource interface {
	Verify(ctx context.Context) (*model.Account, error)
	UserTweets(ctx context.Context, handle string, limit int) ([]model.RawItem, error)
	Search(ctx context.Context, query string, limit int) ([]model.RawItem, error)
}

// ArticleSource fetches single WeChat articles with captured credentials.
type ArticleSource interface {
	Verify(ctx context.Context) error
	Article(ctx context.Context, url string) (*model.RawItem, error)
}
