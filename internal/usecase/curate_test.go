package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/curation"
	"newsletter-scrapers/internal/domain/model"
)

func newCurator(t *testing.T) *curation.Curator {
	t.Helper()
	curator, err := curation.NewCurator(nil, model.CurationConfig{MinRelevance: 0.2, PoolSize: 25, PublishCount: 8}, clock)
	require.NoError(t, err)
	return curator
}

func storeWithBatch(items ...model.RawItem) *memoryStore {
	store := newMemoryStore()
	_, _ = store.Save(context.Background(), newBatch(model.SourceHackerNews, NewsletterPrefix, items, nil, fixedNow))
	return store
}

func TestCurateLatestBatch(t *testing.T) {
	store := storeWithBatch(
		hnStory(1, "Claude and GPT agentic coding benchmark", "https://a.example", 600),
		hnStory(2, "NVIDIA H100 inference server with vLLM", "https://b.example", 350),
		hnStory(3, "Board games for the weekend", "https://c.example", 500),
	)
	notifier := &fakeNotifier{}
	uc := NewCurate(store, newCurator(t), fakeWriter{intro: "Agents and GPUs lead today."}, notifier, logging.New(nil))

	res, err := uc.Run(context.Background(), CurateRequest{Notify: true})
	require.NoError(t, err)

	assert.Equal(t, "mem/newsletter_enhanced_0.json", res.InputPath)
	assert.Equal(t, "mem/newsletter_curated.json", res.OutputPath)
	assert.Equal(t, "Agents and GPUs lead today.", res.Newsletter.Intro)
	assert.Equal(t, 2, res.Newsletter.Stats.PublishedItems)
	assert.Equal(t, 1, res.Newsletter.Stats.FilteredNoise)
	require.Len(t, store.curated, 1)

	require.Len(t, notifier.sent, 1)
	sent := notifier.sent[0]
	assert.Equal(t, "AI & Tech Newsletter: Mar 1, 2026", sent.Title)
	assert.Equal(t, "Agents and GPUs lead today.", sent.Description)
	require.Len(t, sent.Fields, 2)
	assert.Equal(t, "🤖 AI & LLMs (1)", sent.Fields[0].Name)
	assert.Contains(t, sent.Fields[0].Value, "[Claude and GPT agentic coding benchmark](https://a.example)")
	assert.Contains(t, sent.Fields[0].Value, "600 points, 3 hours ago")
}

func TestCurateExplicitPathWithoutNotify(t *testing.T) {
	store := storeWithBatch(hnStory(1, "Claude ships a new coding agent", "https://a.example", 150))
	store.latestFn = func(string) (string, error) {
		t.Fatal("latest batch must not be looked up when a path is given")
		return "", nil
	}
	notifier := &fakeNotifier{}
	uc := NewCurate(store, newCurator(t), nil, notifier, logging.New(nil))

	res, err := uc.Run(context.Background(), CurateRequest{InputPath: "mem/newsletter_enhanced_0.json", OutputPath: "out/custom.json"})
	require.NoError(t, err)
	assert.Equal(t, "out/custom.json", res.OutputPath)
	assert.Empty(t, res.Newsletter.Intro)
	assert.Empty(t, notifier.sent)
}

func TestCurateWriterFailureIsNotFatal(t *testing.T) {
	store := storeWithBatch(hnStory(1, "Claude ships a new coding agent", "https://a.example", 150))
	uc := NewCurate(store, newCurator(t), fakeWriter{err: errors.New("quota exceeded")}, nil, logging.New(nil))

	res, err := uc.Run(context.Background(), CurateRequest{Notify: true})
	require.NoError(t, err)
	assert.Empty(t, res.Newsletter.Intro)
}

func TestCurateNotifierFailure(t *testing.T) {
	store := storeWithBatch(hnStory(1, "Claude ships a new coding agent", "https://a.example", 150))
	notifier := &fakeNotifier{err: errors.New("webhook 404")}
	uc := NewCurate(store, newCurator(t), nil, notifier, logging.New(nil))

	_, err := uc.Run(context.Background(), CurateRequest{Notify: true})
	require.ErrorContains(t, err, "webhook 404")
	assert.Len(t, store.curated, 1)
}

func TestCurateWithoutBatch(t *testing.T) {
	uc := NewCurate(newMemoryStore(), newCurator(t), nil, nil, logging.New(nil))

	_, err := uc.Run(context.Background(), CurateRequest{})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestBuildNotificationFallbackDescription(t *testing.T) {
	nl := newCurator(t).Curate(model.SourceHackerNews, []model.RawItem{
		hnStory(1, "Claude ships a new coding agent", "", 150),
	})

	n := BuildNotification(nl)
	assert.Equal(t, "**1 stories** curated from 1 scraped, 0 filtered as noise.", n.Description)
	assert.Equal(t, "pool 1 · min relevance 0.20", n.Footer)
	assert.Contains(t, n.Fields[0].Value, "(https://news.ycombinator.com/item?id=1)")
}

func TestTrimForDiscord(t *testing.T) {
	assert.Equal(t, "short", trimForDiscord("short", 10))
	assert.Equal(t, "one two...", trimForDiscord("one two three", 9))

	long := strings.Repeat("资讯", 10)
	assert.Equal(t, string([]rune(long)[:5])+"...", trimForDiscord(long, 5))
}
