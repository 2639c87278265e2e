package writing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	maxIntroChars        = 1200
)

// GeminiWriter drafts the newsletter intro with Gemini.
type GeminiWriter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     ports.Logger
}

var _ ports.EditorialWriter = (*GeminiWriter)(nil)

// NewGeminiWriter constructs a GeminiWriter.
func NewGeminiWriter(apiKey, model string, timeout time.Duration, logger ports.Logger) *GeminiWriter {
	return &GeminiWriter{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultGeminiBaseURL,
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

// WithBaseURL points the writer at another API host.
func (g *GeminiWriter) WithBaseURL(baseURL string) *GeminiWriter {
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

// Intro writes a short editor's note covering the published items.
func (g *GeminiWriter) Intro(ctx context.Context, newsletter *model.CuratedNewsletter) (string, error) {
	if g.apiKey == "" || g.model == "" {
		return "", fmt.Errorf("gemini writer not configured")
	}
	if len(newsletter.PublishedItems) == 0 {
		return "", fmt.Errorf("nothing published to introduce")
	}

	body, err := g.buildRequestBody(buildPrompt(newsletter))
	if err != nil {
		return "", err
	}
	text, err := g.generate(ctx, body)
	if err != nil {
		return "", err
	}
	return trimText(text, maxIntroChars), nil
}

func buildPrompt(newsletter *model.CuratedNewsletter) string {
	var builder strings.Builder
	builder.WriteString("You edit a daily AI & tech newsletter for engineers.\n")
	builder.WriteString("Write a 3-4 sentence intro for today's issue. Mention the two or three most important stories by name, ")
	builder.WriteString("say what connects them, no hype, no emojis, plain text, max 120 words.\n\n")

	for _, theme := range newsletter.Themes {
		builder.WriteString(fmt.Sprintf("%s\n", theme.Name))
		for _, item := range theme.Items {
			builder.WriteString(fmt.Sprintf("- %s (%d points, priority %d): %s\n",
				item.Title, item.ImpressionsLikes, item.Editorial.Priority, item.Editorial.WhyItMatters))
		}
	}
	return builder.String()
}

func (g *GeminiWriter) buildRequestBody(prompt string) ([]byte, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     0.4,
			"topP":            0.8,
			"maxOutputTokens": 600,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini writer payload: %w", err)
	}
	return body, nil
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

func (g *GeminiWriter) generate(ctx context.Context, body []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/models/%s:generateContent", g.baseURL, g.model)

	g.logger.Debug(ctx, "calling gemini API", "model", g.model, "requestSize", len(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini writer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini writer: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini writer status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes[:min(len(bodyBytes), 1024)])))
	}

	var payload generateResponse
	if err := json.Unmarshal(bodyBytes, &payload); err != nil {
		return "", fmt.Errorf("decode gemini writer response: %w", err)
	}

	text := extractCandidateText(payload)
	if text == "" {
		if payload.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked the prompt: %s", payload.PromptFeedback.BlockReason)
		}
		if len(payload.Candidates) > 0 && payload.Candidates[0].FinishReason == "MAX_TOKENS" {
			return "", fmt.Errorf("gemini hit token limit before generating output")
		}
		return "", fmt.Errorf("gemini writer returned empty text (candidates: %d)", len(payload.Candidates))
	}
	return text, nil
}

func extractCandidateText(payload generateResponse) string {
	for _, candidate := range payload.Candidates {
		for _, part := range candidate.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return strings.TrimSpace(part.Text)
			}
		}
	}
	return ""
}

func trimText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
