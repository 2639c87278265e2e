package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/domain/model"
)

func TestSendPostsEmbed(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL, 5*time.Second, logging.New(nil))
	hook.now = func() time.Time { return time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC) }

	fields := make([]model.NotificationField, 30)
	for i := range fields {
		fields[i] = model.NotificationField{Name: "🤖 AI & LLMs", Value: strings.Repeat("é", 2000)}
	}
	err := hook.Send(context.Background(), model.Notification{
		Title:       "AI & Tech Newsletter",
		Description: "8 stories curated from 120 scraped",
		URL:         "https://news.ycombinator.com",
		Footer:      "newsletter_curated_20260301_070000.json",
		Fields:      fields,
	})
	require.NoError(t, err)

	embeds := got["embeds"].([]any)
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]any)
	assert.Equal(t, "AI & Tech Newsletter", embed["title"])
	assert.Equal(t, "2026-03-01T07:00:00Z", embed["timestamp"])
	assert.Equal(t, "https://news.ycombinator.com", embed["url"])
	assert.Len(t, embed["fields"], maxFields)

	value := embed["fields"].([]any)[0].(map[string]any)["value"].(string)
	assert.Equal(t, 1024, len([]rune(value)))
	assert.True(t, strings.HasSuffix(value, "..."))
}

func TestSendReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Invalid Webhook Token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, time.Second, logging.New(nil)).Send(context.Background(), model.Notification{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Invalid Webhook Token")
}

func TestSendWithoutURL(t *testing.T) {
	err := NewWebhook("", time.Second, logging.New(nil)).Send(context.Background(), model.Notification{})
	require.Error(t, err)
}
