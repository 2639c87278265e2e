package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"newsletter-scrapers/internal/domain/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func hnStory(id int, title, url string, likes int) model.RawItem {
	sourceID := strconv.Itoa(id)
	itemType := "story"
	if url == "" {
		itemType = "ask_hn"
	}
	item := model.RawItem{
		Source:           model.SourceHackerNews,
		SourceID:         sourceID,
		Title:            title,
		Content:          title,
		URL:              url,
		ImpressionsLikes: likes,
		PublishedAt:      model.TimePtr(fixedNow.Add(-3 * time.Hour)),
		ScrapedAt:        fixedNow,
		Metadata: map[string]any{
			"item_type":  itemType,
			"hn_url":     "https://news.ycombinator.com/item?id=" + sourceID,
			"kids_count": 0,
		},
	}
	item.Normalize()
	return item
}

type fakeStories struct {
	listings map[string][]model.RawItem
	errs     map[string]error
	search   []model.RawItem
	queries  []string
}

func (f *fakeStories) Listing(_ context.Context, listing string, limit int) ([]model.RawItem, error) {
	if err := f.errs[listing]; err != nil {
		return nil, err
	}
	src := f.listings[listing]
	if len(src) > limit {
		src = src[:limit]
	}
	// Fresh copies, like a real client returning new items per call.
	out := make([]model.RawItem, len(src))
	for i, item := range src {
		meta := make(map[string]any, len(item.Metadata))
		for k, v := range item.Metadata {
			meta[k] = v
		}
		item.Metadata = meta
		out[i] = item
	}
	return out, nil
}

func (f *fakeStories) Search(_ context.Context, query string, _ int) ([]model.RawItem, error) {
	f.queries = append(f.queries, query)
	return f.search, nil
}

type fakeContent struct {
	mu      sync.Mutex
	pages   map[string]*model.PageContent
	errs    map[string]error
	fetched []string
}

func (f *fakeContent) Fetch(_ context.Context, url string) (*model.PageContent, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return &model.PageContent{Media: []model.Media{}}, nil
}

// memoryStore keeps saved batches in memory and serves them back by location.
type memoryStore struct {
	batches  map[string]*model.Batch
	order    []string
	curated  []*model.CuratedNewsletter
	saveErr  error
	latestFn func(prefix string) (string, error)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{batches: map[string]*model.Batch{}}
}

func (m *memoryStore) Save(_ context.Context, batch *model.Batch) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	location := fmt.Sprintf("mem/%s_%d.json", batch.Name, len(m.order))
	m.batches[location] = batch
	m.order = append(m.order, location)
	return location, nil
}

func (m *memoryStore) SaveCurated(_ context.Context, nl *model.CuratedNewsletter, path string) (string, error) {
	m.curated = append(m.curated, nl)
	if path == "" {
		path = "mem/newsletter_curated.json"
	}
	return path, nil
}

func (m *memoryStore) LoadBatch(_ context.Context, path string) (*model.Batch, error) {
	batch, ok := m.batches[path]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", path, model.ErrNotFound)
	}
	return batch, nil
}

func (m *memoryStore) LatestBatch(_ context.Context, prefix string) (string, error) {
	if m.latestFn != nil {
		return m.latestFn(prefix)
	}
	if len(m.order) == 0 {
		return "", model.ErrNotFound
	}
	return m.order[len(m.order)-1], nil
}

type fakeWriter struct {
	intro string
	err   error
}

func (f fakeWriter) Intro(context.Context, *model.CuratedNewsletter) (string, error) {
	return f.intro, f.err
}

type fakeNotifier struct {
	sent []model.Notification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, n model.Notification) error {
	f.sent = append(f.sent, n)
	return f.err
}

type fakeTweets struct {
	items   []model.RawItem
	err     error
	handles []string
}

func (f *fakeTweets) Verify(context.Context) (*model.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Account{ScreenName: "reader"}, nil
}

func (f *fakeTweets) UserTweets(_ context.Context, handle string, _ int) ([]model.RawItem, error) {
	f.handles = append(f.handles, handle)
	return f.items, f.err
}

func (f *fakeTweets) Search(context.Context, string, int) ([]model.RawItem, error) {
	return f.items, f.err
}

type fakeArticles struct {
	item *model.RawItem
	err  error
}

func (f fakeArticles) Verify(context.Context) error { return f.err }

func (f fakeArticles) Article(context.Context, string) (*model.RawItem, error) {
	return f.item, f.err
}
