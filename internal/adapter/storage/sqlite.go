// Package storage mirrors scraped items into a SQLite raw_items table so
// repeated runs refresh engagement counts instead of piling up files.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

const timeLayout = time.RFC3339Nano

// Store is a SQLite-backed BatchMirror.
type Store struct {
	db     *sql.DB
	logger ports.Logger
}

var _ ports.BatchMirror = (*Store)(nil)

// Run is one recorded scrape invocation.
type Run struct {
	RunID     string
	Source    model.Source
	Name      string
	ScrapedAt time.Time
	ItemCount int
	Output    string
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string, logger ports.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS raw_items (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			source_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			url TEXT NOT NULL,
			author_username TEXT NOT NULL,
			author_category TEXT NOT NULL,
			media TEXT NOT NULL,
			impressions_views INTEGER NULL,
			impressions_likes INTEGER NOT NULL,
			impressions_reposts INTEGER NOT NULL,
			impressions_replies INTEGER NOT NULL,
			impressions_bookmarks INTEGER NULL,
			impressions_clicks INTEGER NULL,
			impressions_quotes INTEGER NULL,
			impressions_updated_at TEXT NULL,
			published_at TEXT NULL,
			scraped_at TEXT NOT NULL,
			metadata TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			content_html TEXT NOT NULL DEFAULT '',
			relevance TEXT NULL,
			first_run_id TEXT NOT NULL,
			last_run_id TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_raw_items_source ON raw_items(source, source_id);`,
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			run_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			name TEXT NOT NULL,
			scraped_at TEXT NOT NULL,
			item_count INTEGER NOT NULL,
			output TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Mirror upserts every item of batch and records the run in one transaction.
func (s *Store) Mirror(ctx context.Context, batch *model.Batch, location string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scrape_runs (run_id, source, name, scraped_at, item_count, output)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET item_count = excluded.item_count, output = excluded.output
	`, batch.RunID, string(batch.Source), batch.Name, batch.ScrapedAt.UTC().Format(timeLayout), len(batch.Items), location)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO raw_items (
			id, source, source_id, title, content, url, author_username, author_category, media,
			impressions_views, impressions_likes, impressions_reposts, impressions_replies,
			impressions_bookmarks, impressions_clicks, impressions_quotes, impressions_updated_at,
			published_at, scraped_at, metadata, content_hash, content_html, relevance, first_run_id, last_run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = CASE WHEN length(excluded.content) > length(raw_items.content) THEN excluded.content ELSE raw_items.content END,
			content_hash = CASE WHEN length(excluded.content) > length(raw_items.content) THEN excluded.content_hash ELSE raw_items.content_hash END,
			media = excluded.media,
			impressions_views = COALESCE(excluded.impressions_views, raw_items.impressions_views),
			impressions_likes = excluded.impressions_likes,
			impressions_reposts = excluded.impressions_reposts,
			impressions_replies = excluded.impressions_replies,
			impressions_bookmarks = COALESCE(excluded.impressions_bookmarks, raw_items.impressions_bookmarks),
			impressions_clicks = COALESCE(excluded.impressions_clicks, raw_items.impressions_clicks),
			impressions_quotes = COALESCE(excluded.impressions_quotes, raw_items.impressions_quotes),
			impressions_updated_at = excluded.impressions_updated_at,
			scraped_at = excluded.scraped_at,
			metadata = excluded.metadata,
			relevance = COALESCE(excluded.relevance, raw_items.relevance),
			last_run_id = excluded.last_run_id
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range batch.Items {
		media, err := json.Marshal(item.Media)
		if err != nil {
			return fmt.Errorf("marshal media %s: %w", item.ID, err)
		}
		metadata, err := json.Marshal(item.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", item.ID, err)
		}
		var relevance sql.NullString
		if item.Relevance != nil {
			data, err := json.Marshal(item.Relevance)
			if err != nil {
				return fmt.Errorf("marshal relevance %s: %w", item.ID, err)
			}
			relevance = sql.NullString{String: string(data), Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			item.ID, string(item.Source), item.SourceID, item.Title, item.Content, item.URL,
			item.AuthorUsername, item.AuthorCategory, string(media),
			nullInt(item.ImpressionsViews), item.ImpressionsLikes, item.ImpressionsReposts, item.ImpressionsReplies,
			nullInt(item.ImpressionsBookmarks), nullInt(item.ImpressionsClicks), nullInt(item.ImpressionsQuotes),
			nullTime(item.ImpressionsUpdatedAt), nullTime(item.PublishedAt), item.ScrapedAt.UTC().Format(timeLayout),
			string(metadata), item.ContentHash, item.ContentHTML, relevance, batch.RunID, batch.RunID,
		)
		if err != nil {
			return fmt.Errorf("upsert item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug(ctx, "mirrored batch to sqlite", "run_id", batch.RunID, "items", len(batch.Items))
	return nil
}

// Item loads one stored item by id.
func (s *Store) Item(ctx context.Context, id string) (*model.RawItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, source_id, title, content, url, author_username, author_category, media,
			impressions_views, impressions_likes, impressions_reposts, impressions_replies,
			impressions_updated_at, published_at, scraped_at, metadata, content_hash, content_html
		FROM raw_items WHERE id = ?
	`, id)

	var (
		item                    model.RawItem
		source, media, metadata string
		views                   sql.NullInt64
		updatedAt, publishedAt  sql.NullString
		scrapedAt               string
	)
	err := row.Scan(&item.ID, &source, &item.SourceID, &item.Title, &item.Content, &item.URL,
		&item.AuthorUsername, &item.AuthorCategory, &media,
		&views, &item.ImpressionsLikes, &item.ImpressionsReposts, &item.ImpressionsReplies,
		&updatedAt, &publishedAt, &scrapedAt, &metadata, &item.ContentHash, &item.ContentHTML)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	item.Source = model.Source(source)
	if views.Valid {
		item.ImpressionsViews = model.IntPtr(int(views.Int64))
	}
	item.ImpressionsUpdatedAt = parseNullTime(updatedAt)
	item.PublishedAt = parseNullTime(publishedAt)
	if t, err := time.Parse(timeLayout, scrapedAt); err == nil {
		item.ScrapedAt = t
	}
	if err := json.Unmarshal([]byte(media), &item.Media); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &item.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &item, nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source, name, scraped_at, item_count, output
		FROM scrape_runs ORDER BY scraped_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			source    string
			scrapedAt string
		)
		if err := rows.Scan(&run.RunID, &source, &run.Name, &scrapedAt, &run.ItemCount, &run.Output); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Source = model.Source(source)
		run.ScrapedAt, _ = time.Parse(timeLayout, scrapedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
