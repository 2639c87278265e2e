// Package htmltext flattens small HTML fragments, such as HackerNews item
// text, into plain text.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// Convert renders fragment as text. Paragraphs and list items are separated by
// blank lines and <br> becomes a newline. Input that fails to parse is
// returned unchanged.
func Convert(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var builder strings.Builder
	extractText(node, &builder)
	return tidy(builder.String())
}

func extractText(node *html.Node, builder *strings.Builder) {
	switch node.Type {
	case html.TextNode:
		builder.WriteString(node.Data)
	case html.ElementNode:
		switch node.Data {
		case "script", "style":
			return
		case "br":
			builder.WriteRune('\n')
		case "p", "li", "pre":
			builder.WriteString("\n\n")
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		extractText(child, builder)
	}

	if node.Type == html.ElementNode && (node.Data == "p" || node.Data == "li" || node.Data == "pre") {
		builder.WriteString("\n\n")
	}
}

// tidy trims every line and collapses runs of blank lines to one.
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
