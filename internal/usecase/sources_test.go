package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/domain/model"
)

func tweet(id string, likes, reposts int) model.RawItem {
	item := model.RawItem{
		Source:             model.SourceTwitter,
		SourceID:           id,
		Title:              "tweet " + id,
		Content:            "tweet " + id,
		URL:                "https://x.com/jack/status/" + id,
		AuthorUsername:     "@jack",
		ImpressionsLikes:   likes,
		ImpressionsReposts: reposts,
		Media:              []model.Media{{Type: "photo", URL: "https://pbs.twimg.com/" + id + ".jpg"}},
	}
	item.Normalize()
	return item
}

func TestXScrapeUser(t *testing.T) {
	tweets := &fakeTweets{items: []model.RawItem{tweet("1", 10, 2), tweet("2", 5, 1)}}
	store := newMemoryStore()
	uc := NewXScrape(tweets, store, logging.New(nil), clock)

	res, err := uc.User(context.Background(), " @jack ", 20)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, []string{"jack"}, tweets.handles)
	assert.Equal(t, "user_jack", res.Batch.Name)
	assert.Equal(t, model.SourceTwitter, res.Batch.Source)
	assert.Equal(t, 15, res.Batch.Stats.TotalLikes)
	assert.Equal(t, 3, res.Batch.Stats.TotalReposts)
	assert.Equal(t, 2, res.Batch.Stats.ItemsWithMedia)
	assert.Len(t, store.order, 1)
}

func TestXScrapeSearchName(t *testing.T) {
	uc := NewXScrape(&fakeTweets{items: []model.RawItem{tweet("1", 1, 0)}}, newMemoryStore(), logging.New(nil), clock)

	res, err := uc.Search(context.Background(), "AI agents lang:en", 10)
	require.NoError(t, err)
	assert.Equal(t, "search_ai_agents_lang_en", res.Batch.Name)
}

func TestXScrapeEmptyResultWritesNothing(t *testing.T) {
	store := newMemoryStore()
	uc := NewXScrape(&fakeTweets{}, store, logging.New(nil), clock)

	res, err := uc.User(context.Background(), "quiet", 20)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, store.order)
}

func TestXScrapeAuthFailureIsReported(t *testing.T) {
	store := newMemoryStore()
	tweets := &fakeTweets{err: fmt.Errorf("graphql UserByScreenName: %w", model.ErrAuthentication)}
	uc := NewXScrape(tweets, store, logging.New(nil), clock)

	_, err := uc.User(context.Background(), "jack", 20)
	require.ErrorIs(t, err, model.ErrAuthentication)
	_, err = uc.Verify(context.Background())
	require.ErrorIs(t, err, model.ErrAuthentication)
	assert.Empty(t, store.order)

	_, err = uc.User(context.Background(), "@", 20)
	require.Error(t, err)
}

func TestWeChatArticle(t *testing.T) {
	item := &model.RawItem{
		ID:             model.URLItemID("https://mp.weixin.qq.com/s/abc"),
		Source:         model.SourceWeChat,
		SourceID:       model.URLItemID("https://mp.weixin.qq.com/s/abc"),
		Title:          "大模型周报",
		AuthorUsername: "机器之心",
		URL:            "https://mp.weixin.qq.com/s/abc",
	}
	store := newMemoryStore()
	uc := NewWeChatScrape(fakeArticles{item: item}, store, logging.New(nil), clock)

	res, err := uc.Article(context.Background(), "https://mp.weixin.qq.com/s/abc")
	require.NoError(t, err)
	assert.Equal(t, WeChatArticlePrefix, res.Batch.Name)
	assert.Equal(t, model.SourceWeChat, res.Batch.Source)
	require.Len(t, res.Batch.Items, 1)
	assert.Equal(t, "大模型周报", res.Batch.Items[0].Title)
	assert.NotNil(t, res.Batch.Items[0].Metadata)
	assert.NoError(t, uc.Verify(context.Background()))
}

func TestWeChatArticleErrors(t *testing.T) {
	store := newMemoryStore()
	uc := NewWeChatScrape(fakeArticles{err: model.ErrAuthentication}, store, logging.New(nil), clock)

	_, err := uc.Article(context.Background(), "not a url")
	require.Error(t, err)

	_, err = uc.Article(context.Background(), "https://mp.weixin.qq.com/s/abc")
	require.ErrorIs(t, err, model.ErrAuthentication)
	require.ErrorIs(t, uc.Verify(context.Background()), model.ErrAuthentication)
	assert.Empty(t, store.order)
}

func TestPipelineRun(t *testing.T) {
	store := newMemoryStore()
	notifier := &fakeNotifier{}
	scrape := NewHackerNewsScrape(newsletterFixture(), &fakeContent{}, nil, store, logging.New(nil), HackerNewsConfig{Now: clock})
	curate := NewCurate(store, newCurator(t), nil, notifier, logging.New(nil))

	require.NoError(t, NewPipeline(scrape, curate, logging.New(nil)).Run(context.Background()))
	require.Len(t, store.curated, 1)
	assert.Equal(t, 4, store.curated[0].Stats.InputItems)
	assert.Len(t, notifier.sent, 1)
}
