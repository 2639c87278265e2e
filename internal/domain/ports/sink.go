package ports

import (
	"context"

	"newsletter-scrapers/internal/domain/model"
)

// Sink persists a finished batch and returns where it went.
type Sink interface {
	Save(ctx context.Context, batch *model.Batch) (string, error)
}

// BatchMirror receives a batch after the primary sink stored it at location.
type BatchMirror interface {
	Mirror(ctx context.Context, batch *model.Batch, location string) error
}

// NewsletterStore persists curated newsletters and locates the latest raw batch.
type NewsletterStore interface {
	SaveCurated(ctx context.Context, newsletter *model.CuratedNewsletter, path string) (string, error)
	LoadBatch(ctx context.Context, path string) (*model.Batch, error)
	LatestBatch(ctx context.Context, prefix string) (string, error)
}
