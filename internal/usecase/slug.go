package usecase

import (
	"strings"
	"unicode"
)

const maxSlugLength = 40

// Slug turns a free-text query or handle into a file name fragment.
func Slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	slug := strings.TrimRight(b.String(), "_")
	if runes := []rune(slug); len(runes) > maxSlugLength {
		slug = strings.TrimRight(string(runes[:maxSlugLength]), "_")
	}
	if slug == "" {
		return "query"
	}
	return slug
}
