package curation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/domain/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func story(title string, likes, replies int, hoursOld float64) model.RawItem {
	item := model.RawItem{
		Source:             model.SourceHackerNews,
		SourceID:           title,
		Title:              title,
		URL:                "https://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		ImpressionsLikes:   likes,
		ImpressionsReplies: replies,
		PublishedAt:        model.TimePtr(now.Add(-time.Duration(hoursOld * float64(time.Hour)))),
		Metadata:           map[string]any{"kids_count": 0},
	}
	item.Normalize()
	return item
}

func TestClassifyScoresTitleHigher(t *testing.T) {
	tax := DefaultTaxonomy()

	rel := tax.Classify("Claude beats GPT on coding", "a new transformer benchmark")
	require.True(t, rel.IsAIRelevant)
	assert.False(t, rel.IsNoise)
	assert.Equal(t, "llm", rel.PrimaryTopic)
	assert.Equal(t, "Large Language Models", rel.PrimaryTopicLabel)

	// llm: claude(2) gpt(2) transformer(1) = 5; ml_research: benchmark(1) = 0.9;
	// developer_tools: coding(2) = 1.2 -> (5+0.9+1.2)/10
	assert.Equal(t, []string{"llm", "ml_research", "developer_tools"}, rel.Topics)
	assert.Equal(t, 0.71, rel.Score)
	assert.Equal(t, 5, rel.TopicDetails[0].RawScore)
	assert.Equal(t, []string{"gpt", "claude", "transformer"}, rel.TopicDetails[0].MatchedKeywords)
}

func TestClassifyNoise(t *testing.T) {
	tax := DefaultTaxonomy()

	rel := tax.Classify("Where to sleep in LAX with an LLM", "")
	assert.True(t, rel.IsNoise)
	assert.False(t, rel.IsAIRelevant)
	assert.Equal(t, "noise_keyword: sleep in lax", rel.FilterReason)
	assert.Equal(t, []string{}, rel.Topics)

	rel = tax.Classify("A quiet walk in the park", "birds and trees")
	assert.True(t, rel.IsNoise)
	assert.Equal(t, "no_ai_keywords_matched", rel.FilterReason)
}

func TestClassifyIsIdempotent(t *testing.T) {
	tax := DefaultTaxonomy()
	items := []model.RawItem{
		story("Show HN: vLLM on a single H100", 120, 10, 2),
		story("Board games night", 5, 1, 2),
		story("Postgres 18 released", 300, 90, 10),
	}

	first := make([]model.Relevance, len(items))
	for i := range items {
		first[i] = tax.ClassifyItem(&items[i])
		items[i].Relevance = &first[i]
	}
	for i := range items {
		if diff := cmp.Diff(first[i], tax.ClassifyItem(&items[i])); diff != "" {
			t.Fatalf("classification changed on second pass (-first +second):\n%s", diff)
		}
	}
}

func TestClassifyTieUsesTaxonomyOrder(t *testing.T) {
	tax := &Taxonomy{Topics: []Topic{
		{ID: "a", Label: "A", Weight: 1, Keywords: []string{"alpha"}},
		{ID: "b", Label: "B", Weight: 1, Keywords: []string{"beta"}},
	}}
	rel := tax.Classify("alpha beta", "")
	assert.Equal(t, "a", rel.PrimaryTopic)
}

func TestEngagement(t *testing.T) {
	tests := []struct {
		name     string
		likes    int
		replies  int
		hours    float64
		wantTier string
	}{
		{"flamewar", 80, 200, 5, TierFlamewar},
		{"trending", 150, 20, 3, TierTrending},
		{"high quality", 400, 100, 48, TierHigh},
		{"good", 150, 200, 48, TierGood},
		{"moderate", 40, 5, 48, TierModerate},
		{"low", 10, 2, 48, TierLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := story("x", tt.likes, tt.replies, tt.hours)
			eng := Engagement(&item, now)
			assert.Equal(t, tt.wantTier, eng.QualityTier)
		})
	}
}

func TestEngagementWithoutPublishTime(t *testing.T) {
	item := story("x", 500, 50, 1)
	item.PublishedAt = nil
	eng := Engagement(&item, now)
	assert.Equal(t, 24.0, eng.HoursOld)
	assert.Equal(t, 0.0, eng.Velocity)
	assert.Equal(t, TierHigh, eng.QualityTier)
}

func TestEngagementDiscussionDepth(t *testing.T) {
	item := story("x", 100, 90, 10)
	item.Metadata["kids_count"] = float64(30)
	eng := Engagement(&item, now)
	assert.Equal(t, 3.0, eng.DiscussionDepth)
	assert.Equal(t, 0.9, eng.Ratio)
	assert.Equal(t, 10.0, eng.Velocity)
}

func TestEditorial(t *testing.T) {
	item := story("Show HN: a tiny LLM runtime", 350, 40, 2)
	rel := DefaultTaxonomy().ClassifyItem(&item)
	eng := Engagement(&item, now)
	ed := Editorial(&item, rel, eng)

	assert.Equal(t, "New large language models project worth checking out", ed.OneLiner)
	assert.Equal(t, "rapidly gaining attention; highly upvoted by HN community", ed.WhyItMatters)
	assert.Equal(t, "AI engineers & researchers", ed.AudienceFit)

	assert.Equal(t, "Performance/comparison data for ml research", oneLiner("Tooling for devs", "ML Research"))
	assert.Equal(t, "worth monitoring", whyItMatters(&model.RawItem{}, model.Relevance{PrimaryTopic: "tech_industry"}, model.Engagement{}))
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 1, priority(model.Relevance{Score: 0.7}, model.Engagement{QualityTier: TierTrending}))
	assert.Equal(t, 2, priority(model.Relevance{Score: 0.6}, model.Engagement{QualityTier: TierHigh}))
	assert.Equal(t, 3, priority(model.Relevance{Score: 0.2}, model.Engagement{QualityTier: TierHigh}))
	assert.Equal(t, 4, priority(model.Relevance{Score: 0.4}, model.Engagement{QualityTier: TierLow}))
	assert.Equal(t, 5, priority(model.Relevance{Score: 0.2}, model.Engagement{QualityTier: TierModerate}))
}

func TestCurate(t *testing.T) {
	items := []model.RawItem{
		story("Claude and GPT agentic coding benchmark", 600, 100, 5),
		story("NVIDIA H100 inference server with vLLM and CUDA", 350, 50, 30),
		story("Board games for the weekend", 500, 20, 3),
		story("Rust and the art of flame wars with an LLM", 50, 400, 5),
		story("Our startup story", 20, 2, 30),
		story("A small LLM library", 5, 1, 30),
		story("Funding round for an AI startup with an LLM", 10, 0, 2),
	}

	curator, err := NewCurator(nil, model.CurationConfig{MinRelevance: 0.2, PoolSize: 25, PublishCount: 8}, func() time.Time { return now })
	require.NoError(t, err)
	nl := curator.Curate(model.SourceHackerNews, items)

	assert.Equal(t, model.CuratedSchemaVersion, nl.SchemaVersion)
	assert.Equal(t, 7, nl.Stats.InputItems)
	assert.Equal(t, 1, nl.Stats.FilteredNoise)
	assert.Equal(t, 1, nl.Stats.FilteredFlamewar)
	assert.Equal(t, 1, nl.Stats.FilteredLowRelevance)
	assert.Equal(t, 4, nl.Stats.PoolItems)
	assert.Equal(t, 3, nl.Stats.PublishedItems)
	assert.Equal(t, 1, nl.Stats.FilteredLowQuality)

	assert.Equal(t, "Claude and GPT agentic coding benchmark", nl.PublishedItems[0].Title)
	assert.Equal(t, TierTrending, nl.PublishedItems[0].Engagement.QualityTier)

	hidden := nl.FilteredOut.LowQualityHidden[0]
	assert.Equal(t, "A small LLM library", hidden.Title)
	assert.Equal(t, "low_quality, 30.0h old, topic 'llm' has 2 items", hidden.Reason)

	names := make([]string, 0, len(nl.Themes))
	for _, th := range nl.Themes {
		names = append(names, th.Name)
	}
	assert.Equal(t, []string{"🤖 AI & LLMs", "🔧 AI Infrastructure"}, names)
	assert.Equal(t, 2, nl.Stats.Themes["🤖 AI & LLMs"])
}

func TestCuratePublishCount(t *testing.T) {
	var items []model.RawItem
	for i := 0; i < 12; i++ {
		items = append(items, story("GPT and Claude news "+string(rune('a'+i)), 150+i, 10, 48))
	}
	curator, err := NewCurator(nil, model.CurationConfig{MinRelevance: 0.2, PoolSize: 10, PublishCount: 4}, func() time.Time { return now })
	require.NoError(t, err)
	nl := curator.Curate(model.SourceHackerNews, items)

	assert.Len(t, nl.PoolItems, 10)
	assert.Len(t, nl.PublishedItems, 4)
}

func TestNewCuratorValidates(t *testing.T) {
	_, err := NewCurator(nil, model.CurationConfig{MinRelevance: 0.2, PoolSize: 0, PublishCount: 8}, nil)
	require.Error(t, err)
	_, err = NewCurator(nil, model.CurationConfig{MinRelevance: 1.5, PoolSize: 5, PublishCount: 8}, nil)
	require.Error(t, err)
}

func TestMarkdown(t *testing.T) {
	curator, err := NewCurator(nil, model.CurationConfig{MinRelevance: 0.2, PoolSize: 25, PublishCount: 8}, func() time.Time { return now })
	require.NoError(t, err)
	item := story("Claude and GPT agentic coding benchmark", 600, 100, 5)
	item.URL = ""
	item.Metadata["hn_url"] = "https://news.ycombinator.com/item?id=1"
	nl := curator.Curate(model.SourceHackerNews, []model.RawItem{item})
	nl.Intro = "Agents everywhere."

	md := Markdown(nl)
	assert.True(t, strings.HasPrefix(md, "# AI & Tech Newsletter Preview\n*Curated: 2026-03-01*\n"))
	assert.Contains(t, md, "**1 stories** curated from 1 scraped")
	assert.Contains(t, md, "Agents everywhere.")
	assert.Contains(t, md, "## 🤖 AI & LLMs")
	assert.Contains(t, md, "### [Claude and GPT agentic coding benchmark](https://news.ycombinator.com/item?id=1)")
	assert.Contains(t, md, "📊 600 points")
}

func TestLoadTaxonomy(t *testing.T) {
	tax, err := LoadTaxonomy("")
	require.NoError(t, err)
	assert.Len(t, tax.Topics, 8)

	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
topics:
  - id: robotics
    label: Robotics
    weight: 0.7
    keywords: [Humanoid, "robot arm"]
noise_keywords: [Recipe]
`), 0o600))

	tax, err = LoadTaxonomy(path)
	require.NoError(t, err)
	require.Len(t, tax.Topics, 1)
	assert.Equal(t, []string{"humanoid", "robot arm"}, tax.Topics[0].Keywords)

	rel := tax.Classify("A humanoid folds laundry", "")
	assert.Equal(t, "robotics", rel.PrimaryTopic)
	assert.Equal(t, 0.14, rel.Score)
	assert.True(t, tax.Classify("Recipe for humanoid cake", "").IsNoise)

	require.NoError(t, os.WriteFile(path, []byte("topics:\n  - id: x\n    weight: 0\n"), 0o600))
	_, err = LoadTaxonomy(path)
	require.Error(t, err)
}
