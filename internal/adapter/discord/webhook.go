package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

// Discord rejects embeds with more than 25 fields.
const maxFields = 25

// Webhook is a Discord webhook notifier.
type Webhook struct {
	webhookURL string
	httpClient *http.Client
	logger     ports.Logger
	now        func() time.Time
}

var _ ports.Notifier = (*Webhook)(nil)

// NewWebhook creates a new Discord webhook notifier.
func NewWebhook(webhookURL string, timeout time.Duration, logger ports.Logger) *Webhook {
	return &Webhook{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Send posts the notification to Discord as a single embed.
func (w *Webhook) Send(ctx context.Context, notification model.Notification) error {
	if w.webhookURL == "" {
		return fmt.Errorf("webhook URL is empty")
	}

	embed := map[string]any{
		"title":       truncate(notification.Title, 256),
		"description": truncate(notification.Description, 4096),
		"fields":      convertFields(notification.Fields),
		"timestamp":   w.now().UTC().Format(time.RFC3339),
		"color":       0xFF6600,
	}
	if notification.URL != "" {
		embed["url"] = notification.URL
	}
	if notification.Footer != "" {
		embed["footer"] = map[string]string{"text": truncate(notification.Footer, 2048)}
	}

	body, err := json.Marshal(map[string]any{
		"content": "",
		"embeds":  []map[string]any{embed},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	w.logger.Info(ctx, "notification sent to discord", "fields", len(notification.Fields))
	return nil
}

func convertFields(fields []model.NotificationField) []map[string]any {
	if len(fields) == 0 {
		return nil
	}
	if len(fields) > maxFields {
		fields = fields[:maxFields]
	}

	result := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		result = append(result, map[string]any{
			"name":   truncate(field.Name, 256),
			"value":  truncate(field.Value, 1024),
			"inline": field.Inline,
		})
	}
	return result
}

// truncate cuts on rune boundaries; Discord counts characters, not bytes.
func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:limit-3])) + "..."
}
