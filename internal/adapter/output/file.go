// Package output writes scrape batches and curated newsletters as JSON files.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

// TimestampLayout is the suffix format of every output file name.
const TimestampLayout = "20060102_150405"

// CuratedPrefix names curated newsletter files.
const CuratedPrefix = "newsletter_curated"

// JSONFile stores each batch as one indented JSON document under dir.
type JSONFile struct {
	dir    string
	logger ports.Logger
}

var (
	_ ports.Sink            = (*JSONFile)(nil)
	_ ports.NewsletterStore = (*JSONFile)(nil)
)

// NewJSONFile creates a file sink rooted at dir.
func NewJSONFile(dir string, logger ports.Logger) *JSONFile {
	return &JSONFile{dir: dir, logger: logger}
}

// Dir is the directory files are written to.
func (f *JSONFile) Dir() string {
	return f.dir
}

// Save writes <name>_<timestamp>.json and returns its path.
func (f *JSONFile) Save(ctx context.Context, batch *model.Batch) (string, error) {
	if batch.Name == "" {
		return "", fmt.Errorf("batch has no output name")
	}
	path := filepath.Join(f.dir, FileName(batch.Name, batch.ScrapedAt))
	if err := writeJSON(path, batch); err != nil {
		return "", err
	}
	f.logger.Info(ctx, "saved batch", "path", path, "items", len(batch.Items), "source", batch.Source)
	return path, nil
}

// SaveCurated writes the newsletter to path, or to a timestamped file in dir
// when path is empty.
func (f *JSONFile) SaveCurated(ctx context.Context, newsletter *model.CuratedNewsletter, path string) (string, error) {
	if path == "" {
		path = filepath.Join(f.dir, FileName(CuratedPrefix, newsletter.CuratedAt))
	}
	if err := writeJSON(path, newsletter); err != nil {
		return "", err
	}
	f.logger.Info(ctx, "saved curated newsletter", "path", path, "published", len(newsletter.PublishedItems))
	return path, nil
}

// LoadBatch reads a batch file written by Save.
func (f *JSONFile) LoadBatch(_ context.Context, path string) (*model.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	var batch model.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", path, err)
	}
	return &batch, nil
}

// LatestBatch returns the newest <prefix>_*.json in dir. Names embed the
// timestamp, so lexical order is chronological.
func (f *JSONFile) LatestBatch(_ context.Context, prefix string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, prefix+"_*.json"))
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", prefix, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s_*.json in %s: %w", prefix, f.dir, model.ErrNotFound)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// FileName builds <prefix>_<YYYYmmdd_HHMMSS>.json in local time.
func FileName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.json", prefix, at.Local().Format(TimestampLayout))
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
