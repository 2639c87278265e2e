package curation

import (
	"fmt"
	"strings"

	"newsletter-scrapers/internal/domain/model"
)

const previewPerTheme = 5

// Markdown renders a preview of the newsletter, top items of each theme.
func Markdown(nl *model.CuratedNewsletter) string {
	var b strings.Builder
	b.WriteString("# AI & Tech Newsletter Preview\n")
	fmt.Fprintf(&b, "*Curated: %s*\n\n", nl.CuratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "**%d stories** curated from %d scraped\n\n", nl.Stats.PublishedItems, nl.Stats.InputItems)
	if nl.Intro != "" {
		fmt.Fprintf(&b, "%s\n\n", nl.Intro)
	}

	for _, theme := range nl.Themes {
		fmt.Fprintf(&b, "## %s\n\n", theme.Name)
		for i, item := range theme.Items {
			if i == previewPerTheme {
				break
			}
			title := item.Title
			if title == "" {
				title = "Untitled"
			}
			fmt.Fprintf(&b, "### [%s](%s)\n", title, ItemLink(&item.RawItem))
			fmt.Fprintf(&b, "*%s*\n\n", item.Editorial.OneLiner)
			fmt.Fprintf(&b, "**Why it matters:** %s\n\n", item.Editorial.WhyItMatters)
			fmt.Fprintf(&b, "📊 %d points\n\n", item.ImpressionsLikes)
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

// ItemLink prefers the story URL and falls back to the discussion page.
func ItemLink(item *model.RawItem) string {
	if item.URL != "" {
		return item.URL
	}
	if hn := item.MetadataString("hn_url"); hn != "" {
		return hn
	}
	return "#"
}
