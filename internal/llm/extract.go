package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mathfish/mathfish/internal/codes"
)

var jsonArrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

// ExtractCodes pulls a JSON array of codes out of a model response.
// Code fences are stripped, then the whole text is tried as JSON, then
// the widest bracketed span is tried as a rescue. Unparseable
// responses yield nil.
func ExtractCodes(response string) []string {
	text := strings.TrimSpace(response)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if parsed, ok := parseArray(text); ok {
		return parsed
	}
	if match := jsonArrayRe.FindString(text); match != "" {
		if parsed, ok := parseArray(match); ok {
			return parsed
		}
	}
	return nil
}

func parseArray(text string) ([]string, bool) {
	var raw []any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		} else {
			out = append(out, fmt.Sprintf("%v", v))
		}
	}
	return out, true
}

// FilterKnown trims the extracted codes and keeps those present in the
// known set, deduplicated in first-seen order. The result is never nil
// so every problem gets a prediction entry.
func FilterKnown(raw []string, known codes.Set) []string {
	out := []string{}
	seen := codes.NewSet()
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" || !known.Has(c) || seen.Has(c) {
			continue
		}
		seen.Add(c)
		out = append(out, c)
	}
	return out
}
