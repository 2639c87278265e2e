package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/domain/model"
)

func TestMirrorPushesMessage(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	pub, err := Connect(ctx, "redis://"+srv.Addr()+"/0", "newsletter:raw_items", logging.New(nil))
	require.NoError(t, err)
	defer pub.Close()

	batch := &model.Batch{
		RunID:     "run-1",
		Source:    model.SourceHackerNews,
		ScrapedAt: time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC),
		Name:      "newsletter_enhanced",
		Items:     []model.RawItem{{ID: "a"}, {ID: "b"}},
	}
	require.NoError(t, pub.Mirror(ctx, batch, "output/newsletter_enhanced_20260301_070000.json"))
	require.NoError(t, pub.Mirror(ctx, &model.Batch{RunID: "run-2", Source: model.SourceWeChat}, "output/w.json"))

	n, err := pub.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// Consumers pop from the right, so the oldest batch comes out first.
	raw, err := srv.Lpop("newsletter:raw_items")
	require.NoError(t, err)
	var newest Message
	require.NoError(t, json.Unmarshal([]byte(raw), &newest))
	assert.Equal(t, "run-2", newest.RunID)

	raw, err = srv.Lpop("newsletter:raw_items")
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, "run-1", msg.RunID)
	assert.Equal(t, model.SourceHackerNews, msg.Source)
	assert.Equal(t, []string{"a", "b"}, msg.ItemIDs)
	assert.Equal(t, "output/newsletter_enhanced_20260301_070000.json", msg.Output)
}

func TestConnectBareAddress(t *testing.T) {
	srv := miniredis.RunT(t)
	pub, err := Connect(context.Background(), srv.Addr(), "q", logging.New(nil))
	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestConnectFailsWhenUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := Connect(context.Background(), addr, "q", logging.New(nil))
	require.Error(t, err)
}
