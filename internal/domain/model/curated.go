package model

import "time"

// CuratedSchemaVersion is written into every curated newsletter file.
const CuratedSchemaVersion = "3.1"

// Engagement interprets raw counts as quality signals.
type Engagement struct {
	Ratio           float64 `json:"engagement_ratio"`
	IsFlamewar      bool    `json:"is_flamewar"`
	IsHighSignal    bool    `json:"is_high_signal"`
	IsEmerging      bool    `json:"is_emerging"`
	DiscussionDepth float64 `json:"discussion_depth"`
	Velocity        float64 `json:"velocity"`
	HoursOld        float64 `json:"hours_old"`
	QualityTier     string  `json:"quality_tier"`
}

// Editorial holds generated newsletter copy for an item.
type Editorial struct {
	OneLiner     string `json:"one_liner"`
	WhyItMatters string `json:"why_it_matters"`
	AudienceFit  string `json:"audience_fit"`
	Priority     int    `json:"newsletter_priority"`
}

// CuratedItem is a RawItem annotated by the curator.
type CuratedItem struct {
	RawItem
	Classification Relevance  `json:"classification"`
	Engagement     Engagement `json:"engagement_quality"`
	Editorial      Editorial  `json:"editorial"`
}

// Theme groups published items under a newsletter heading.
type Theme struct {
	Name  string        `json:"name"`
	Items []CuratedItem `json:"items"`
}

// FilteredItem records why an item was left out.
type FilteredItem struct {
	Title  string `json:"title"`
	Reason string `json:"reason,omitempty"`
}

// FilteredOut groups rejected items by rejection cause.
type FilteredOut struct {
	Noise            []FilteredItem `json:"noise"`
	LowRelevance     []FilteredItem `json:"low_relevance"`
	Flamewar         []FilteredItem `json:"flamewar"`
	LowQualityHidden []FilteredItem `json:"low_quality_hidden"`
}

// CurationConfig are the knobs of one curation run.
type CurationConfig struct {
	MinRelevance float64 `json:"min_relevance"`
	PoolSize     int     `json:"pool_size"`
	PublishCount int     `json:"publish_count"`
}

// CurationStats summarises a curation run.
type CurationStats struct {
	InputItems           int            `json:"input_items"`
	PoolItems            int            `json:"pool_items"`
	PublishedItems       int            `json:"published_items"`
	FilteredNoise        int            `json:"filtered_noise"`
	FilteredLowRelevance int            `json:"filtered_low_relevance"`
	FilteredFlamewar     int            `json:"filtered_flamewar"`
	FilteredLowQuality   int            `json:"filtered_low_quality"`
	Themes               map[string]int `json:"themes"`
}

// CuratedNewsletter is the output of the curator.
type CuratedNewsletter struct {
	SchemaVersion  string         `json:"schema_version"`
	CuratedAt      time.Time      `json:"curated_at"`
	Source         Source         `json:"source"`
	Config         CurationConfig `json:"curation_config"`
	Stats          CurationStats  `json:"stats"`
	Themes         []Theme        `json:"themes"`
	PublishedItems []CuratedItem  `json:"published_items"`
	PoolItems      []CuratedItem  `json:"pool_items"`
	FilteredOut    FilteredOut    `json:"filtered_out"`
	Intro          string         `json:"intro,omitempty"`
}
