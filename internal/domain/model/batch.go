package model

import (
	"time"
	"unicode/utf8"
)

// BatchSchemaVersion is written into every scrape output file.
const BatchSchemaVersion = "2.0"

// Stats summarises the items of a batch.
type Stats struct {
	TotalItems       int            `json:"total_items"`
	ItemsBySection   map[string]int `json:"items_by_section,omitempty"`
	ItemsWithContent int            `json:"items_with_content"`
	ItemsWithMedia   int            `json:"items_with_media"`
	TotalLikes       int            `json:"total_likes"`
	TotalReposts     int            `json:"total_reposts"`
	AIRelevantItems  int            `json:"ai_relevant_items"`
}

// Batch is the envelope of one scrape invocation.
type Batch struct {
	SchemaVersion string         `json:"schema_version"`
	RunID         string         `json:"run_id"`
	ScrapedAt     time.Time      `json:"scraped_at"`
	Source        Source         `json:"source"`
	ScrapeConfig  map[string]any `json:"scrape_config"`
	Stats         Stats          `json:"stats"`
	Items         []RawItem      `json:"items"`

	// Name is the output file prefix, e.g. "newsletter_enhanced" or "user_jack".
	Name string `json:"-"`
}

// contentThreshold is the character count above which an item counts as
// having real content.
const contentThreshold = 100

// ComputeStats derives the counters shared by every source.
func ComputeStats(items []RawItem) Stats {
	stats := Stats{TotalItems: len(items)}
	for _, item := range items {
		if utf8.RuneCountInString(item.Content) > contentThreshold {
			stats.ItemsWithContent++
		}
		if len(item.Media) > 0 {
			stats.ItemsWithMedia++
		}
		stats.TotalLikes += item.ImpressionsLikes
		stats.TotalReposts += item.ImpressionsReposts
		if item.Relevance != nil && item.Relevance.IsAIRelevant {
			stats.AIRelevantItems++
		}
	}
	return stats
}
