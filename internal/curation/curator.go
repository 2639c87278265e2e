package curation

import (
	"fmt"
	"sort"
	"time"

	"newsletter-scrapers/internal/domain/model"
)

// Low-tier items still publish while they are this fresh.
const freshHours = 4

type theme struct {
	name   string
	topics []string
}

// Newsletter sections in display order. Unlisted topics land in the last one.
var themes = []theme{
	{name: "🤖 AI & LLMs", topics: []string{"llm", "ml_research"}},
	{name: "🔧 AI Infrastructure", topics: []string{"ai_infra"}},
	{name: "📱 AI Products & Startups", topics: []string{"ai_product"}},
	{name: "⚖️ AI Ethics & Policy", topics: []string{"ai_ethics"}},
	{name: "💻 Developer Tools", topics: []string{"developer_tools"}},
	{name: "📰 Tech Industry News", topics: []string{"tech_industry"}},
	{name: "📌 Other Notable"},
}

// ThemeFor maps a primary topic to its newsletter section.
func ThemeFor(topic string) string {
	for _, t := range themes {
		for _, id := range t.topics {
			if id == topic {
				return t.name
			}
		}
	}
	return themes[len(themes)-1].name
}

// Curator selects and annotates items for one newsletter issue.
type Curator struct {
	taxonomy *Taxonomy
	config   model.CurationConfig
	now      func() time.Time
}

// NewCurator builds a curator. A nil taxonomy uses DefaultTaxonomy.
func NewCurator(taxonomy *Taxonomy, config model.CurationConfig, now func() time.Time) (*Curator, error) {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	if config.PoolSize <= 0 || config.PublishCount <= 0 {
		return nil, fmt.Errorf("pool size and publish count must be positive")
	}
	if config.MinRelevance < 0 || config.MinRelevance > 1 {
		return nil, fmt.Errorf("min relevance %.2f outside [0,1]", config.MinRelevance)
	}
	if now == nil {
		now = time.Now
	}
	return &Curator{taxonomy: taxonomy, config: config, now: now}, nil
}

// Config returns the knobs this curator runs with.
func (c *Curator) Config() model.CurationConfig {
	return c.config
}

// Curate filters, ranks and groups items from one source.
func (c *Curator) Curate(source model.Source, items []model.RawItem) *model.CuratedNewsletter {
	now := c.now()
	filtered := model.FilteredOut{
		Noise:            []model.FilteredItem{},
		LowRelevance:     []model.FilteredItem{},
		Flamewar:         []model.FilteredItem{},
		LowQualityHidden: []model.FilteredItem{},
	}

	candidates := make([]model.CuratedItem, 0, len(items))
	for i := range items {
		item := &items[i]

		rel := c.taxonomy.ClassifyItem(item)
		if rel.IsNoise {
			filtered.Noise = append(filtered.Noise, model.FilteredItem{Title: item.Title, Reason: rel.FilterReason})
			continue
		}

		eng := Engagement(item, now)
		if eng.QualityTier == TierFlamewar {
			filtered.Flamewar = append(filtered.Flamewar, model.FilteredItem{Title: item.Title})
			continue
		}

		if rel.Score < c.config.MinRelevance {
			filtered.LowRelevance = append(filtered.LowRelevance, model.FilteredItem{Title: item.Title})
			continue
		}

		candidates = append(candidates, model.CuratedItem{
			RawItem:        *item,
			Classification: rel,
			Engagement:     eng,
			Editorial:      Editorial(item, rel, eng),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ta, tb := trendingRank(a), trendingRank(b); ta != tb {
			return ta < tb
		}
		if a.Editorial.Priority != b.Editorial.Priority {
			return a.Editorial.Priority < b.Editorial.Priority
		}
		return engagementScore(a) > engagementScore(b)
	})

	pool := candidates
	if len(pool) > c.config.PoolSize {
		pool = pool[:c.config.PoolSize]
	}

	published := make([]model.CuratedItem, 0, c.config.PublishCount)
	perTopic := map[string]int{}
	for _, item := range pool {
		topic := item.Classification.PrimaryTopic
		if item.Engagement.QualityTier == TierLow {
			fresh := item.Engagement.HoursOld < freshHours
			fillsGap := perTopic[topic] == 0
			if !fresh && !fillsGap {
				filtered.LowQualityHidden = append(filtered.LowQualityHidden, model.FilteredItem{
					Title:  item.Title,
					Reason: fmt.Sprintf("low_quality, %.1fh old, topic '%s' has %d items", item.Engagement.HoursOld, topic, perTopic[topic]),
				})
				continue
			}
		}

		published = append(published, item)
		perTopic[topic]++
		if len(published) >= c.config.PublishCount {
			break
		}
	}

	grouped := groupByTheme(published)
	themeCounts := make(map[string]int, len(grouped))
	for _, t := range grouped {
		themeCounts[t.Name] = len(t.Items)
	}

	return &model.CuratedNewsletter{
		SchemaVersion: model.CuratedSchemaVersion,
		CuratedAt:     now,
		Source:        source,
		Config:        c.config,
		Stats: model.CurationStats{
			InputItems:           len(items),
			PoolItems:            len(pool),
			PublishedItems:       len(published),
			FilteredNoise:        len(filtered.Noise),
			FilteredLowRelevance: len(filtered.LowRelevance),
			FilteredFlamewar:     len(filtered.Flamewar),
			FilteredLowQuality:   len(filtered.LowQualityHidden),
			Themes:               themeCounts,
		},
		Themes:         grouped,
		PublishedItems: published,
		PoolItems:      pool,
		FilteredOut:    filtered,
	}
}

func trendingRank(item model.CuratedItem) int {
	if item.Engagement.QualityTier == TierTrending {
		return 0
	}
	return 1
}

func engagementScore(item model.CuratedItem) float64 {
	return item.Engagement.Velocity * item.Engagement.DiscussionDepth
}

// groupByTheme keeps themes in order of their first published item and sorts
// each theme by priority.
func groupByTheme(items []model.CuratedItem) []model.Theme {
	grouped := []model.Theme{}
	index := map[string]int{}
	for _, item := range items {
		name := ThemeFor(item.Classification.PrimaryTopic)
		i, ok := index[name]
		if !ok {
			i = len(grouped)
			index[name] = i
			grouped = append(grouped, model.Theme{Name: name})
		}
		grouped[i].Items = append(grouped[i].Items, item)
	}
	for _, t := range grouped {
		sort.SliceStable(t.Items, func(i, j int) bool {
			return t.Items[i].Editorial.Priority < t.Items[j].Editorial.Priority
		})
	}
	return grouped
}
