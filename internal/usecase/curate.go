package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"newsletter-scrapers/internal/curation"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

const (
	introLimit         = 1900
	themeFieldLimit    = 1000
	itemsPerThemeField = 5
)

// Curate turns a raw newsletter batch into a curated newsletter and, when a
// notifier is configured, announces the published items.
type Curate struct {
	store    ports.NewsletterStore
	curator  *curation.Curator
	writer   ports.EditorialWriter
	notifier ports.Notifier
	logger   ports.Logger
}

// CurateRequest selects the input batch and output file. Empty paths mean
// the latest newsletter batch and a timestamped file next to it.
type CurateRequest struct {
	InputPath  string
	OutputPath string
	Notify     bool
}

// CurateResult reports what one curation run produced.
type CurateResult struct {
	Newsletter *model.CuratedNewsletter
	InputPath  string
	OutputPath string
}

// NewCurate constructs the use case. writer and notifier are optional.
func NewCurate(
	store ports.NewsletterStore,
	curator *curation.Curator,
	writer ports.EditorialWriter,
	notifier ports.Notifier,
	logger ports.Logger,
) *Curate {
	return &Curate{
		store:    store,
		curator:  curator,
		writer:   writer,
		notifier: notifier,
		logger:   logger,
	}
}

// Run executes one curation pass.
func (c *Curate) Run(ctx context.Context, req CurateRequest) (*CurateResult, error) {
	input := req.InputPath
	if input == "" {
		latest, err := c.store.LatestBatch(ctx, NewsletterPrefix)
		if err != nil {
			return nil, fmt.Errorf("find latest batch: %w", err)
		}
		input = latest
	}

	batch, err := c.store.LoadBatch(ctx, input)
	if err != nil {
		return nil, err
	}
	source := batch.Source
	if source == "" {
		source = model.SourceHackerNews
	}
	c.logger.Info(ctx, "curating batch", "input", input, "items", len(batch.Items))

	nl := c.curator.Curate(source, batch.Items)
	nl.Intro = c.composeIntro(ctx, nl)

	output, err := c.store.SaveCurated(ctx, nl, req.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("save curated newsletter: %w", err)
	}

	if req.Notify && c.notifier != nil && len(nl.PublishedItems) > 0 {
		if err := c.notifier.Send(ctx, BuildNotification(nl)); err != nil {
			c.logger.Error(ctx, "failed to send notification", "error", err)
			return nil, err
		}
	}

	c.logger.Info(ctx, "curation completed",
		"published", nl.Stats.PublishedItems,
		"pool", nl.Stats.PoolItems,
		"noise", nl.Stats.FilteredNoise,
		"output", output,
	)
	return &CurateResult{Newsletter: nl, InputPath: input, OutputPath: output}, nil
}

func (c *Curate) composeIntro(ctx context.Context, nl *model.CuratedNewsletter) string {
	if c.writer == nil || len(nl.PublishedItems) == 0 {
		return ""
	}
	intro, err := c.writer.Intro(ctx, nl)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ""
		}
		c.logger.Error(ctx, "failed to compose intro", "error", err)
		return ""
	}
	return trimForDiscord(intro, introLimit)
}

// BuildNotification summarises the published items, one field per theme.
func BuildNotification(nl *model.CuratedNewsletter) model.Notification {
	fields := make([]model.NotificationField, 0, len(nl.Themes))
	for _, theme := range nl.Themes {
		fields = append(fields, model.NotificationField{
			Name:  fmt.Sprintf("%s (%d)", theme.Name, len(theme.Items)),
			Value: trimForDiscord(formatTheme(theme, nl.CuratedAt), themeFieldLimit),
		})
	}

	description := nl.Intro
	if description == "" {
		description = fmt.Sprintf("**%d stories** curated from %d scraped, %d filtered as noise.",
			nl.Stats.PublishedItems, nl.Stats.InputItems, nl.Stats.FilteredNoise)
	}

	return model.Notification{
		Title:       fmt.Sprintf("AI & Tech Newsletter: %s", nl.CuratedAt.Format("Jan 2, 2006")),
		Description: description,
		Footer:      fmt.Sprintf("pool %d · min relevance %.2f", nl.Stats.PoolItems, nl.Config.MinRelevance),
		Fields:      fields,
	}
}

func formatTheme(theme model.Theme, curatedAt time.Time) string {
	lines := make([]string, 0, itemsPerThemeField)
	for i, item := range theme.Items {
		if i == itemsPerThemeField {
			break
		}
		age := ""
		if item.PublishedAt != nil {
			age = ", " + humanize.RelTime(*item.PublishedAt, curatedAt, "ago", "from now")
		}
		lines = append(lines, fmt.Sprintf("**%d.** [%s](%s)\n   _%s_ (%d points%s)",
			i+1, item.Title, curation.ItemLink(&item.RawItem), item.Editorial.OneLiner, item.ImpressionsLikes, age))
	}
	return strings.Join(lines, "\n")
}

func trimForDiscord(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	trimmed := string(runes[:limit])
	if lastSpace := strings.LastIndex(trimmed, " "); lastSpace > 0 {
		trimmed = trimmed[:lastSpace]
	}
	return trimmed + "..."
}
