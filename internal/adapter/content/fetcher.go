// Package content downloads pages linked from stories and extracts their
// readable text and images.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

const (
	defaultMaxChars  = 10000
	defaultMaxImages = 5
	maxBodyBytes     = 5 << 20
	userAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

var (
	strippedTags  = "script, style, nav, header, footer, aside, noscript"
	textTags      = "p, h1, h2, h3, li"
	imageBlocked  = []string{"logo", "icon", "avatar", "ad"}
	containerTags = []string{"article", "main", "body"}
)

// Fetcher implements ports.ContentFetcher.
type Fetcher struct {
	httpClient *http.Client
	logger     ports.Logger
	maxChars   int
	maxImages  int
}

var _ ports.ContentFetcher = (*Fetcher)(nil)

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default Cloudflare-tolerant client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = client }
}

// WithLimits sets the text cap in characters and how many leading images are considered.
func WithLimits(maxChars, maxImages int) Option {
	return func(f *Fetcher) {
		f.maxChars = maxChars
		f.maxImages = maxImages
	}
}

// New creates a Fetcher whose requests give up after timeout.
func New(timeout time.Duration, logger ports.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cloudflarebp.AddCloudFlareByPass(http.DefaultTransport.(*http.Transport).Clone()),
		},
		logger:    logger,
		maxChars:  defaultMaxChars,
		maxImages: defaultMaxImages,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads pageURL. Non-http URLs yield empty content without a request.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*model.PageContent, error) {
	if !strings.HasPrefix(pageURL, "http") {
		return &model.PageContent{Media: []model.Media{}}, nil
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find(strippedTags).Remove()

	page := &model.PageContent{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Media: f.images(doc),
	}

	text := heuristicText(doc)
	if text == "" {
		article, err := readability.FromReader(bytes.NewReader(body), parsed)
		if err != nil {
			f.logger.Debug(ctx, "readability failed", "url", pageURL, "error", err)
		} else {
			text = collapseLines(article.TextContent)
			if page.Title == "" {
				page.Title = article.Title
			}
		}
	}
	page.Text = truncateRunes(text, f.maxChars)
	return page, nil
}

// heuristicText joins the text of headings, paragraphs and list items found
// in the first of article, main or body.
func heuristicText(doc *goquery.Document) string {
	var container *goquery.Selection
	for _, tag := range containerTags {
		if sel := doc.Find(tag).First(); sel.Length() > 0 {
			container = sel
			break
		}
	}
	if container == nil {
		return ""
	}

	var parts []string
	container.Find(textTags).Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// images keeps absolute, non-decorative sources among the first maxImages <img> tags.
func (f *Fetcher) images(doc *goquery.Document) []model.Media {
	media := []model.Media{}
	doc.Find("img[src]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= f.maxImages {
			return false
		}
		src := s.AttrOr("src", "")
		if !strings.HasPrefix(src, "http") || blockedImage(src) {
			return true
		}
		media = append(media, model.Media{
			Type: "image",
			URL:  src,
			Alt:  s.AttrOr("alt", ""),
		})
		return true
	})
	return media
}

func blockedImage(src string) bool {
	lower := strings.ToLower(src)
	for _, marker := range imageBlocked {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func collapseLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n\n")
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
