package writing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/domain/model"
)

func newsletterFixture() *model.CuratedNewsletter {
	item := model.CuratedItem{
		RawItem:   model.RawItem{Title: "Open weights model beats GPT-4 on coding", ImpressionsLikes: 512},
		Editorial: model.Editorial{Priority: 1, WhyItMatters: "rapidly gaining attention"},
	}
	return &model.CuratedNewsletter{
		Themes:         []model.Theme{{Name: "🤖 AI & LLMs", Items: []model.CuratedItem{item}}},
		PublishedItems: []model.CuratedItem{item},
	}
}

func TestIntro(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))

		var payload struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload.Contents[0].Parts[0].Text, "Open weights model beats GPT-4 on coding")
		assert.Contains(t, payload.Contents[0].Parts[0].Text, "🤖 AI & LLMs")

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"  Today: open weights catch up.  "}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	writer := NewGeminiWriter("secret", "gemini-test", 5*time.Second, logging.New(nil)).WithBaseURL(srv.URL)
	intro, err := writer.Intro(context.Background(), newsletterFixture())
	require.NoError(t, err)
	assert.Equal(t, "Today: open weights catch up.", intro)
}

func TestIntroErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`)
	}))
	defer srv.Close()

	writer := NewGeminiWriter("secret", "gemini-test", time.Second, logging.New(nil)).WithBaseURL(srv.URL)
	_, err := writer.Intro(context.Background(), newsletterFixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token limit")

	_, err = NewGeminiWriter("", "m", time.Second, logging.New(nil)).Intro(context.Background(), newsletterFixture())
	require.Error(t, err)

	_, err = writer.Intro(context.Background(), &model.CuratedNewsletter{})
	require.Error(t, err)
}

func TestTrimTextRunes(t *testing.T) {
	assert.Equal(t, "短", trimText("短", 10))
	assert.Equal(t, "一二...", trimText("一二三四五六", 5))
}
