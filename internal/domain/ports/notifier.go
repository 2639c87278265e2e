package ports

import (
	"context"

	"newsletter-scrapers/internal/domain/model"
)

// Notifier sends notifications to downstream channels (e.g. Discord).
type Notifier interface {
	Send(ctx context.Context, notification model.Notification) error
}

// EditorialWriter drafts the opening paragraph of a curated newsletter.
type EditorialWriter interface {
	Intro(ctx context.Context, newsletter *model.CuratedNewsletter) (string, error)
}
