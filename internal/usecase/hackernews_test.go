package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/domain/model"
)

func newsletterFixture() *fakeStories {
	gpt := hnStory(1, "GPT-5 fine-tuning guide", "https://a.example/gpt", 300)
	rust := hnStory(2, "Rust 2.0 released", "https://b.example/rust", 200)
	walk := hnStory(3, "A walk in the park", "https://c.example/walk", 20)
	ask := hnStory(4, "Ask HN: How do you evaluate LLM agents?", "", 80)

	return &fakeStories{
		listings: map[string][]model.RawItem{
			"top":  {gpt, rust},
			"best": {rust, walk},
			"ask":  {ask},
			"show": {gpt},
		},
		errs: map[string]error{"jobs": errors.New("firebase unavailable")},
	}
}

func TestNewsletterMergesSections(t *testing.T) {
	store := newMemoryStore()
	scrape := NewHackerNewsScrape(newsletterFixture(), nil, nil, store, logging.New(nil), HackerNewsConfig{Now: clock})

	res, err := scrape.Newsletter(context.Background(), false)
	require.NoError(t, err)

	batch := res.Batch
	assert.Equal(t, NewsletterPrefix, batch.Name)
	assert.Equal(t, model.BatchSchemaVersion, batch.SchemaVersion)
	assert.NotEmpty(t, batch.RunID)
	assert.Equal(t, fixedNow, batch.ScrapedAt)
	require.Len(t, batch.Items, 4)

	ids := []string{}
	for _, item := range batch.Items {
		ids = append(ids, item.SourceID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.Equal(t, []string{"top_stories", "show_hn"}, batch.Items[0].MetadataStrings("sections"))
	assert.Equal(t, []string{"top_stories", "best_stories"}, batch.Items[1].MetadataStrings("sections"))
	assert.Equal(t, []string{"ask_hn"}, batch.Items[3].MetadataStrings("sections"))

	assert.Equal(t, map[string]int{
		"top_stories":  2,
		"best_stories": 2,
		"new_stories":  0,
		"ask_hn":       1,
		"show_hn":      1,
	}, batch.Stats.ItemsBySection)
	assert.Equal(t, 4, batch.Stats.TotalItems)
	assert.Equal(t, []string{"top_stories", "best_stories", "new_stories", "ask_hn", "show_hn", "jobs"}, batch.ScrapeConfig["sections_scraped"])
	assert.Equal(t, false, batch.ScrapeConfig["fetch_content"])

	for _, item := range batch.Items {
		require.NotNil(t, item.Relevance, item.Title)
	}
	assert.True(t, batch.Items[0].Relevance.IsAIRelevant)
	assert.True(t, batch.Items[2].Relevance.IsNoise)
	assert.Equal(t, 2, batch.Stats.AIRelevantItems)

	assert.Equal(t, res.Location, store.order[0])
}

func TestNewsletterEnrichesContent(t *testing.T) {
	content := &fakeContent{
		pages: map[string]*model.PageContent{
			"https://a.example/gpt": {
				Text:  "A long read about fine-tuning transformer models.",
				Media: []model.Media{{Type: "image", URL: "https://a.example/fig1.png"}},
			},
		},
		errs: map[string]error{"https://c.example/walk": errors.New("unexpected status 403")},
	}
	scrape := NewHackerNewsScrape(newsletterFixture(), content, nil, newMemoryStore(), logging.New(nil), HackerNewsConfig{Concurrency: 2, Now: clock})

	res, err := scrape.Newsletter(context.Background(), true)
	require.NoError(t, err)

	items := res.Batch.Items
	assert.Equal(t, "A long read about fine-tuning transformer models.", items[0].Content)
	assert.Equal(t, model.ContentHash(items[0].Content), items[0].ContentHash)
	assert.Len(t, items[0].Media, 1)
	assert.Equal(t, "Rust 2.0 released", items[1].Content)
	assert.Equal(t, "unexpected status 403", items[2].Metadata["content_error"])
	assert.Equal(t, 1, res.Batch.Stats.ItemsWithMedia)

	assert.ElementsMatch(t, []string{"https://a.example/gpt", "https://b.example/rust", "https://c.example/walk"}, content.fetched)
}

func TestNewsletterFailsWhenEverySectionFails(t *testing.T) {
	stories := &fakeStories{errs: map[string]error{}}
	for _, s := range NewsletterSections {
		stories.errs[s.Listing] = errors.New("offline")
	}
	store := newMemoryStore()
	scrape := NewHackerNewsScrape(stories, nil, nil, store, logging.New(nil), HackerNewsConfig{Now: clock})

	_, err := scrape.Newsletter(context.Background(), false)
	require.Error(t, err)
	assert.Empty(t, store.order)
}

func TestNewsletterSaveFailure(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errors.New("read-only file system")
	scrape := NewHackerNewsScrape(newsletterFixture(), nil, nil, store, logging.New(nil), HackerNewsConfig{Now: clock})

	_, err := scrape.Newsletter(context.Background(), false)
	require.ErrorContains(t, err, "read-only file system")
}

func TestListingAndSearchBatches(t *testing.T) {
	stories := newsletterFixture()
	stories.search = []model.RawItem{hnStory(9, "Claude on Rust", "https://d.example", 50)}
	scrape := NewHackerNewsScrape(stories, nil, nil, newMemoryStore(), logging.New(nil), HackerNewsConfig{Now: clock})
	ctx := context.Background()

	res, err := scrape.Listing(ctx, "top", 1, false)
	require.NoError(t, err)
	assert.Equal(t, "hn_top", res.Batch.Name)
	require.Len(t, res.Batch.Items, 1)
	assert.NotNil(t, res.Batch.Items[0].Relevance)

	res, err = scrape.Search(ctx, "Rust async runtimes!", 20)
	require.NoError(t, err)
	assert.Equal(t, "hn_search_rust_async_runtimes", res.Batch.Name)
	assert.Equal(t, "Rust async runtimes!", res.Batch.ScrapeConfig["query"])
	assert.Equal(t, []string{"Rust async runtimes!"}, stories.queries)

	_, err = scrape.Search(ctx, "  ", 20)
	require.Error(t, err)

	_, err = scrape.Listing(ctx, "jobs", 5, false)
	require.Error(t, err)
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"AI agents", "ai_agents"},
		{"  #golang -filter:replies", "golang_filter_replies"},
		{"大模型 agent", "大模型_agent"},
		{"!!!", "query"},
		{"a very long query that keeps going well past forty characters", "a_very_long_query_that_keeps_going_well"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}
