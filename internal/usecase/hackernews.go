package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"newsletter-scrapers/internal/curation"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

// NewsletterPrefix names the full multi-section scrape files.
const NewsletterPrefix = "newsletter_enhanced"

// Section is one HackerNews listing scraped into the newsletter.
type Section struct {
	Key     string
	Listing string
	Limit   int
}

// NewsletterSections are scraped in this order; the first section an item
// appears in decides its position in the batch.
var NewsletterSections = []Section{
	{Key: "top_stories", Listing: "top", Limit: 50},
	{Key: "best_stories", Listing: "best", Limit: 30},
	{Key: "new_stories", Listing: "new", Limit: 30},
	{Key: "ask_hn", Listing: "ask", Limit: 20},
	{Key: "show_hn", Listing: "show", Limit: 20},
	{Key: "jobs", Listing: "jobs", Limit: 15},
}

// HackerNewsScrape fetches stories, optionally enriches them with the linked
// article and tags every story with its AI relevance.
type HackerNewsScrape struct {
	stories     ports.StorySource
	content     ports.ContentFetcher
	taxonomy    *curation.Taxonomy
	sink        ports.Sink
	logger      ports.Logger
	concurrency int
	now         func() time.Time
}

// HackerNewsConfig controls content enrichment.
type HackerNewsConfig struct {
	Concurrency int
	Now         func() time.Time
}

// NewHackerNewsScrape constructs the use case. content may be nil, in which
// case stories keep their HackerNews text.
func NewHackerNewsScrape(
	stories ports.StorySource,
	content ports.ContentFetcher,
	taxonomy *curation.Taxonomy,
	sink ports.Sink,
	logger ports.Logger,
	cfg HackerNewsConfig,
) *HackerNewsScrape {
	if taxonomy == nil {
		taxonomy = curation.DefaultTaxonomy()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HackerNewsScrape{
		stories:     stories,
		content:     content,
		taxonomy:    taxonomy,
		sink:        sink,
		logger:      logger,
		concurrency: cfg.Concurrency,
		now:         cfg.Now,
	}
}

// Result is a saved batch and where it went.
type Result struct {
	Batch    *model.Batch
	Location string
}

// Newsletter scrapes every newsletter section, merges duplicates and saves one batch.
func (h *HackerNewsScrape) Newsletter(ctx context.Context, fetchContent bool) (*Result, error) {
	start := time.Now()
	h.logger.Info(ctx, "starting newsletter scrape", "fetch_content", fetchContent)

	var (
		merged   []model.RawItem
		index    = map[string]int{}
		counts   = map[string]int{}
		keys     = make([]string, 0, len(NewsletterSections))
		failures int
	)
	for _, section := range NewsletterSections {
		keys = append(keys, section.Key)
		items, err := h.stories.Listing(ctx, section.Listing, section.Limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			h.logger.Error(ctx, "section scrape failed", "section", section.Key, "error", err)
			continue
		}
		counts[section.Key] = len(items)
		h.logger.Info(ctx, "section scraped", "section", section.Key, "items", len(items))

		for _, item := range items {
			if i, ok := index[item.SourceID]; ok {
				sections := merged[i].MetadataStrings("sections")
				if !contains(sections, section.Key) {
					merged[i].Metadata["sections"] = append(sections, section.Key)
				}
				continue
			}
			item.Normalize()
			item.Metadata["sections"] = []string{section.Key}
			index[item.SourceID] = len(merged)
			merged = append(merged, item)
		}
	}
	if failures == len(NewsletterSections) {
		return nil, fmt.Errorf("all %d sections failed", failures)
	}
	if merged == nil {
		merged = []model.RawItem{}
	}

	if fetchContent {
		if err := h.enrich(ctx, merged); err != nil {
			return nil, err
		}
	}
	h.tag(merged)

	batch := h.newBatch(NewsletterPrefix, merged, map[string]any{
		"fetch_content":    fetchContent,
		"sections_scraped": keys,
	})
	batch.Stats.ItemsBySection = counts

	location, err := h.sink.Save(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("save newsletter batch: %w", err)
	}
	h.logger.Info(ctx, "newsletter scrape completed",
		"items", batch.Stats.TotalItems,
		"with_content", batch.Stats.ItemsWithContent,
		"ai_relevant", batch.Stats.AIRelevantItems,
		"output", location,
		"duration", time.Since(start),
	)
	return &Result{Batch: batch, Location: location}, nil
}

// Listing scrapes a single section, e.g. "top", into hn_<listing>_<ts>.json.
func (h *HackerNewsScrape) Listing(ctx context.Context, listing string, limit int, fetchContent bool) (*Result, error) {
	items, err := h.stories.Listing(ctx, listing, limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	if fetchContent {
		if err := h.enrich(ctx, items); err != nil {
			return nil, err
		}
	}
	h.tag(items)

	batch := h.newBatch("hn_"+listing, items, map[string]any{
		"fetch_content": fetchContent,
		"listing":       listing,
		"limit":         limit,
	})
	return h.save(ctx, batch)
}

// Search runs an Algolia search into hn_search_<slug>_<ts>.json.
func (h *HackerNewsScrape) Search(ctx context.Context, query string, limit int) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	items, err := h.stories.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	h.tag(items)

	batch := h.newBatch("hn_search_"+Slug(query), items, map[string]any{
		"query": query,
		"limit": limit,
	})
	return h.save(ctx, batch)
}

// enrich replaces story text with the linked article where one can be read.
// Fetch failures are kept on the item as metadata.content_error.
func (h *HackerNewsScrape) enrich(ctx context.Context, items []model.RawItem) error {
	if h.content == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i := range items {
		item := &items[i]
		if !wantsContent(item) {
			continue
		}
		g.Go(func() error {
			page, err := h.content.Fetch(gctx, item.URL)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				h.logger.Debug(gctx, "content fetch failed", "url", item.URL, "error", err)
				item.Metadata["content_error"] = err.Error()
				return nil
			}
			if page.Text != "" {
				item.Content = page.Text
			}
			if len(page.Media) > 0 {
				item.Media = page.Media
			}
			item.Normalize()
			return nil
		})
	}
	return g.Wait()
}

func wantsContent(item *model.RawItem) bool {
	switch item.MetadataString("item_type") {
	case "ask_hn", "job":
		return false
	}
	return strings.HasPrefix(item.URL, "http")
}

func (h *HackerNewsScrape) tag(items []model.RawItem) {
	for i := range items {
		rel := h.taxonomy.ClassifyItem(&items[i])
		items[i].Relevance = &rel
	}
}

func (h *HackerNewsScrape) newBatch(name string, items []model.RawItem, scrapeConfig map[string]any) *model.Batch {
	return newBatch(model.SourceHackerNews, name, items, scrapeConfig, h.now())
}

func (h *HackerNewsScrape) save(ctx context.Context, batch *model.Batch) (*Result, error) {
	location, err := h.sink.Save(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("save %s batch: %w", batch.Name, err)
	}
	h.logger.Info(ctx, "batch saved", "name", batch.Name, "items", batch.Stats.TotalItems, "output", location)
	return &Result{Batch: batch, Location: location}, nil
}

func newBatch(source model.Source, name string, items []model.RawItem, scrapeConfig map[string]any, now time.Time) *model.Batch {
	if items == nil {
		items = []model.RawItem{}
	}
	for i := range items {
		items[i].Normalize()
	}
	return &model.Batch{
		SchemaVersion: model.BatchSchemaVersion,
		RunID:         uuid.NewString(),
		ScrapedAt:     now,
		Source:        source,
		ScrapeConfig:  scrapeConfig,
		Stats:         model.ComputeStats(items),
		Items:         items,
		Name:          name,
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
