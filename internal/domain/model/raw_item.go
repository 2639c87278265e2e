package model

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"
)

// Source identifies the platform an item was scraped from.
type Source string

const (
	SourceHackerNews Source = "hackernews"
	SourceTwitter    Source = "twitter"
	SourceWeChat     Source = "wechat"
)

// Media is an image or video attached to an item.
type Media struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Alt  string `json:"alt,omitempty"`
}

// RawItem is the flat record every pipeline emits. Story, Tweet and Article
// are RawItems with source-specific metadata.
type RawItem struct {
	ID                   string         `json:"id"`
	Source               Source         `json:"source"`
	SourceID             string         `json:"source_id"`
	Title                string         `json:"title"`
	Content              string         `json:"content"`
	URL                  string         `json:"url"`
	AuthorUsername       string         `json:"author_username"`
	AuthorCategory       string         `json:"author_category"`
	Media                []Media        `json:"media"`
	ImpressionsViews     *int           `json:"impressions_views"`
	ImpressionsLikes     int            `json:"impressions_likes"`
	ImpressionsReposts   int            `json:"impressions_reposts"`
	ImpressionsReplies   int            `json:"impressions_replies"`
	ImpressionsBookmarks *int           `json:"impressions_bookmarks"`
	ImpressionsClicks    *int           `json:"impressions_clicks"`
	ImpressionsQuotes    *int           `json:"impressions_quotes"`
	ImpressionsUpdatedAt *time.Time     `json:"impressions_updated_at"`
	PublishedAt          *time.Time     `json:"published_at"`
	ScrapedAt            time.Time      `json:"scraped_at"`
	Metadata             map[string]any `json:"metadata"`
	ContentHash          string         `json:"content_hash"`
	ContentHTML          string         `json:"content_html,omitempty"`
	Relevance            *Relevance     `json:"relevance,omitempty"`
}

// ItemID derives the stable identifier used across runs for source:sourceID.
func ItemID(source Source, sourceID string) string {
	return md5Hex(string(source) + ":" + sourceID)
}

// URLItemID derives an identifier from an article URL.
func URLItemID(url string) string {
	return md5Hex(url)
}

// ContentHash returns the md5 digest of content.
func ContentHash(content string) string {
	return md5Hex(content)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Normalize fills the fields every emitted item must carry.
func (r *RawItem) Normalize() {
	if r.Media == nil {
		r.Media = []Media{}
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if r.ID == "" && r.SourceID != "" {
		r.ID = ItemID(r.Source, r.SourceID)
	}
	r.ContentHash = ""
	if r.Content != "" {
		r.ContentHash = ContentHash(r.Content)
	}
}

// MetadataInt reads an integer metadata value whether it was set in-process
// or decoded from JSON.
func (r *RawItem) MetadataInt(key string) int {
	switch v := r.Metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// MetadataString reads a string metadata value.
func (r *RawItem) MetadataString(key string) string {
	if v, ok := r.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// MetadataStrings reads a list of strings from metadata.
func (r *RawItem) MetadataStrings(key string) []string {
	switch v := r.Metadata[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

// TimePtr returns a pointer to t, or nil for the zero time.
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
