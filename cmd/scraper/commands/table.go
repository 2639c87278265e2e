package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/usecase"
)

const (
	maxTableRows   = 25
	maxTitleLength = 70
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func printItems(w io.Writer, items []model.RawItem) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Title", "Author", "Likes", "Replies", "Published", "Topic"})
	for i, item := range items {
		if i == maxTableRows {
			t.AppendFooter(table.Row{"", fmt.Sprintf("… %d more", len(items)-maxTableRows)})
			break
		}
		published := "-"
		if item.PublishedAt != nil {
			published = humanize.Time(*item.PublishedAt)
		}
		topic := "-"
		if item.Relevance != nil {
			topic = item.Relevance.PrimaryTopic
			if item.Relevance.IsNoise {
				topic = "noise"
			}
		}
		t.AppendRow(table.Row{
			i + 1,
			shorten(item.Title, maxTitleLength),
			item.AuthorUsername,
			humanize.Comma(int64(item.ImpressionsLikes)),
			humanize.Comma(int64(item.ImpressionsReplies)),
			published,
			topic,
		})
	}
	t.Render()
}

func printSaved(res *usecase.Result) {
	stats := res.Batch.Stats
	fmt.Fprintf(os.Stdout, "✅ Saved %d items to %s\n", stats.TotalItems, res.Location)
	fmt.Fprintf(os.Stdout, "   with content: %d, with media: %d, AI relevant: %d, likes: %s\n",
		stats.ItemsWithContent, stats.ItemsWithMedia, stats.AIRelevantItems, humanize.Comma(int64(stats.TotalLikes)))
}

func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
