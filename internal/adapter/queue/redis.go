// Package queue hands finished batches to downstream workers over a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

// Message is what consumers pop from the queue.
type Message struct {
	RunID     string       `json:"run_id"`
	Source    model.Source `json:"source"`
	Name      string       `json:"name"`
	ScrapedAt time.Time    `json:"scraped_at"`
	Output    string       `json:"output"`
	ItemIDs   []string     `json:"item_ids"`
}

// Publisher LPUSHes one Message per batch; consumers BRPOP in arrival order.
type Publisher struct {
	client *redis.Client
	key    string
	logger ports.Logger
}

var _ ports.BatchMirror = (*Publisher)(nil)

// Connect parses redisURL (a redis:// URL or a bare host:port) and pings the server.
func Connect(ctx context.Context, redisURL, key string, logger ports.Logger) (*Publisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Publisher{client: client, key: key, logger: logger}, nil
}

// Close closes the Redis connection pool.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Mirror pushes the batch reference onto the queue.
func (p *Publisher) Mirror(ctx context.Context, batch *model.Batch, location string) error {
	ids := make([]string, 0, len(batch.Items))
	for _, item := range batch.Items {
		ids = append(ids, item.ID)
	}
	data, err := json.Marshal(Message{
		RunID:     batch.RunID,
		Source:    batch.Source,
		Name:      batch.Name,
		ScrapedAt: batch.ScrapedAt,
		Output:    location,
		ItemIDs:   ids,
	})
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}
	if err := p.client.LPush(ctx, p.key, data).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", p.key, err)
	}
	p.logger.Debug(ctx, "queued batch", "key", p.key, "run_id", batch.RunID, "items", len(ids))
	return nil
}

// Len reports how many batches are waiting.
func (p *Publisher) Len(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.key).Result()
}
