package problems

import (
	"regexp"
	"strings"
)

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	placeholderRe = regexp.MustCompile(`###[A-Z0-9_]+###`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// StripHTML replaces markup tags with spaces so adjacent words do not
// run together.
func StripHTML(s string) string {
	return htmlTagRe.ReplaceAllString(s, " ")
}

// NormalizeText inlines element HTML into the problem text by replacing
// ###NAME### placeholders, drops placeholders that have no element, and
// collapses runs of whitespace.
func NormalizeText(text string, elements map[string]string) string {
	if text == "" {
		return ""
	}
	out := text
	for placeholder, html := range elements {
		out = strings.ReplaceAll(out, placeholder, StripHTML(html))
	}
	out = placeholderRe.ReplaceAllString(out, " ")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
