package usecase

import (
	"context"
	"time"

	"newsletter-scrapers/internal/domain/ports"
)

// Pipeline is the scheduled job: scrape the newsletter sections, curate the
// fresh batch and notify.
type Pipeline struct {
	scrape *HackerNewsScrape
	curate *Curate
	logger ports.Logger
}

// NewPipeline constructs the scheduled job.
func NewPipeline(scrape *HackerNewsScrape, curate *Curate, logger ports.Logger) *Pipeline {
	return &Pipeline{scrape: scrape, curate: curate, logger: logger}
}

// Run executes one full pass with content enrichment on.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.logger.Info(ctx, "starting newsletter pipeline")

	scraped, err := p.scrape.Newsletter(ctx, true)
	if err != nil {
		p.logger.Error(ctx, "newsletter scrape failed", "error", err)
		return err
	}

	curated, err := p.curate.Run(ctx, CurateRequest{InputPath: scraped.Location, Notify: true})
	if err != nil {
		p.logger.Error(ctx, "curation failed", "error", err)
		return err
	}

	p.logger.Info(ctx, "newsletter pipeline completed",
		"raw", scraped.Location,
		"curated", curated.OutputPath,
		"published", curated.Newsletter.Stats.PublishedItems,
		"duration", time.Since(start),
	)
	return nil
}
