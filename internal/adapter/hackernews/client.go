package hackernews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/sync/errgroup"

	"newsletter-scrapers/internal/adapter/htmltext"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

const (
	defaultFirebaseURL = "https://hacker-news.firebaseio.com/v0"
	defaultAlgoliaURL  = "https://hn.algolia.com/api/v1"
	itemPageURL        = "https://news.ycombinator.com/item?id="
	maxSearchHits      = 100
)

// Listings maps the listing names accepted by Client.Listing to Firebase endpoints.
var Listings = map[string]string{
	"top":  "topstories",
	"best": "beststories",
	"new":  "newstories",
	"ask":  "askstories",
	"show": "showstories",
	"jobs": "jobstories",
}

// Item is a HackerNews item as served by the Firebase API.
type Item struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Kids        []int  `json:"kids"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// Client implements ports.StorySource against the Firebase and Algolia APIs.
type Client struct {
	httpClient  *http.Client
	firebaseURL string
	algoliaURL  string
	concurrency int
	logger      ports.Logger
	now         func() time.Time
}

var _ ports.StorySource = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithBaseURLs points the client at alternative API roots.
func WithBaseURLs(firebase, algolia string) Option {
	return func(c *Client) {
		c.firebaseURL = strings.TrimRight(firebase, "/")
		c.algoliaURL = strings.TrimRight(algolia, "/")
	}
}

// WithClock replaces time.Now for scrape timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a HackerNews client fetching up to concurrency items at once.
func New(timeout time.Duration, concurrency int, logger ports.Logger, opts ...Option) *Client {
	if concurrency <= 0 {
		concurrency = 1
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		firebaseURL: defaultFirebaseURL,
		algoliaURL:  defaultAlgoliaURL,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listing returns up to limit stories of the named listing, in listing order.
// Items that fail to load, were deleted, or are neither stories nor jobs are skipped.
func (c *Client) Listing(ctx context.Context, listing string, limit int) ([]model.RawItem, error) {
	ids, err := c.StoryIDs(ctx, listing, limit)
	if err != nil {
		return nil, err
	}
	return c.Items(ctx, ids)
}

// StoryIDs returns the first limit ids of a listing.
func (c *Client) StoryIDs(ctx context.Context, listing string, limit int) ([]int, error) {
	endpoint, ok := Listings[listing]
	if !ok {
		return nil, fmt.Errorf("unknown listing %q", listing)
	}

	var ids []int
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s.json", c.firebaseURL, endpoint), &ids); err != nil {
		return nil, fmt.Errorf("fetch %s ids: %w", listing, err)
	}
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Item fetches a single item. A missing item yields model.ErrNotFound.
func (c *Client) Item(ctx context.Context, id int) (*Item, error) {
	var item *Item
	if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.firebaseURL, id), &item); err != nil {
		return nil, fmt.Errorf("fetch item %d: %w", id, err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	return item, nil
}

// Items fetches ids concurrently and converts them, preserving the order of ids.
func (c *Client) Items(ctx context.Context, ids []int) ([]model.RawItem, error) {
	fetched := make([]*Item, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			item, err := c.Item(gctx, id)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.Warn(gctx, "skipping hackernews item", "id", id, "error", err)
				return nil
			}
			fetched[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]model.RawItem, 0, len(fetched))
	for _, item := range fetched {
		if item == nil || item.Deleted || item.Dead {
			continue
		}
		if item.Type != "story" && item.Type != "job" {
			continue
		}
		items = append(items, c.toRawItem(item))
	}
	return items, nil
}

// Search runs an Algolia full-text story search.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.RawItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is empty")
	}
	hits := min(limit, maxSearchHits)
	if hits <= 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("hitsPerPage", strconv.Itoa(hits))

	var payload struct {
		Hits []struct {
			ObjectID    string `json:"objectID"`
			Title       string `json:"title"`
			URL         string `json:"url"`
			Author      string `json:"author"`
			Points      *int   `json:"points"`
			NumComments *int   `json:"num_comments"`
			StoryText   string `json:"story_text"`
			CreatedAt   string `json:"created_at"`
			CreatedAtI  int64  `json:"created_at_i"`
		} `json:"hits"`
	}
	if err := c.getJSON(ctx, c.algoliaURL+"/search?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	now := c.now().UTC()
	items := make([]model.RawItem, 0, len(payload.Hits))
	for _, hit := range payload.Hits {
		if hit.ObjectID == "" {
			continue
		}
		content := htmltext.Convert(hit.StoryText)
		if content == "" {
			content = hit.Title
		}
		item := model.RawItem{
			ID:             model.ItemID(model.SourceHackerNews, hit.ObjectID),
			Source:         model.SourceHackerNews,
			SourceID:       hit.ObjectID,
			Title:          hit.Title,
			Content:        content,
			URL:            hit.URL,
			AuthorUsername: hit.Author,
			AuthorCategory: "unknown",
			PublishedAt:    parseCreatedAt(hit.CreatedAt, hit.CreatedAtI),
			ScrapedAt:      now,
			Metadata: map[string]any{
				"item_type":    ItemType(hit.Title, "story"),
				"hn_url":       itemPageURL + hit.ObjectID,
				"search_query": query,
			},
		}
		if hit.Points != nil {
			item.ImpressionsLikes = *hit.Points
		}
		if hit.NumComments != nil {
			item.ImpressionsReplies = *hit.NumComments
		}
		item.Normalize()
		items = append(items, item)
	}
	return items, nil
}

// ItemType classifies a story by its title prefix and HN type.
func ItemType(title, hnType string) string {
	switch {
	case strings.HasPrefix(title, "Ask HN:"):
		return "ask_hn"
	case strings.HasPrefix(title, "Show HN:"):
		return "show_hn"
	case hnType == "job":
		return "job"
	default:
		return "story"
	}
}

func (c *Client) toRawItem(it *Item) model.RawItem {
	sourceID := strconv.Itoa(it.ID)
	content := htmltext.Convert(it.Text)
	if content == "" {
		content = it.Title
	}

	now := c.now().UTC()
	var published *time.Time
	if it.Time > 0 {
		published = model.TimePtr(time.Unix(it.Time, 0).UTC())
	}

	item := model.RawItem{
		ID:                   model.ItemID(model.SourceHackerNews, sourceID),
		Source:               model.SourceHackerNews,
		SourceID:             sourceID,
		Title:                it.Title,
		Content:              content,
		URL:                  it.URL,
		AuthorUsername:       it.By,
		AuthorCategory:       "unknown",
		ImpressionsLikes:     it.Score,
		ImpressionsReplies:   it.Descendants,
		ImpressionsUpdatedAt: &now,
		PublishedAt:          published,
		ScrapedAt:            now,
		Metadata: map[string]any{
			"item_type":  ItemType(it.Title, it.Type),
			"hn_url":     itemPageURL + sourceID,
			"kids_count": len(it.Kids),
		},
	}
	item.Normalize()
	return item
}

func parseCreatedAt(raw string, unix int64) *time.Time {
	if raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return model.TimePtr(t.UTC())
		}
	}
	if unix > 0 {
		return model.TimePtr(time.Unix(unix, 0).UTC())
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
