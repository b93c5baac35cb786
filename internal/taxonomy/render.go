package taxonomy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// wrapWidth is the fill width for rendered description lines.
const wrapWidth = 100

// treeIndent is one level of indentation in the rendered tree.
const treeIndent = "    "

// hsCategoryAliases maps lowercase category names a user might type to
// HS category ids.
var hsCategoryAliases = map[string]string{
	"algebra":                  "A",
	"functions":                "F",
	"geometry":                 "G",
	"number & quantity":        "N",
	"number and quantity":      "N",
	"statistics & probability": "S",
	"statistics":               "S",
	"probability":              "S",
}

// ResolveGradeArg resolves a user-supplied grade argument to an entry
// id. Accepts K, 1-8, HS, HS category ids, and HS category names in any
// case.
func ResolveGradeArg(s *Store, raw string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if _, ok := s.Get(normalized); ok {
		return normalized, true
	}
	if id, ok := hsCategoryAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return id, true
	}
	return "", false
}

// RenderTree renders the hierarchy under the given entry id as the
// indented text tree the lookup CLI prints.
func (s *Store) RenderTree(rootID string) (string, error) {
	root, ok := s.Get(rootID)
	if !ok {
		return "", fmt.Errorf("grade '%s' not found in standards", rootID)
	}

	var b strings.Builder
	s.renderEntry(&b, root, 0)
	b.WriteByte('\n')
	return b.String(), nil
}

func (s *Store) renderEntry(b *strings.Builder, entry *Entry, depth int) {
	prefix := strings.Repeat(treeIndent, depth)

	switch entry.Level {
	case LevelStandard, LevelSubStandard:
		fmt.Fprintf(b, "%s\n", wrapIndent(entry.Description, prefix+entry.ID+": "))
	case LevelCluster:
		fmt.Fprintf(b, "%s--- Cluster %s%s ---\n", prefix, entry.ID, clusterSuffix(entry))
		fmt.Fprintf(b, "%s\n", wrapIndent(entry.Description, prefix+treeIndent))
	case LevelDomain:
		fmt.Fprintf(b, "\n%s== Domain: %s - %s ==\n", prefix, entry.ID, entry.Description)
	case LevelHSCategory:
		fmt.Fprintf(b, "\n%s=== HS Category: %s - %s ===\n", prefix, entry.ID, entry.Description)
	case LevelGrade:
		rule := strings.Repeat("=", 60)
		fmt.Fprintf(b, "\n%s\n  %s (%s)\n%s\n", rule, entry.Description, entry.ID, rule)
	}

	for _, child := range s.Children(entry) {
		s.renderEntry(b, child, depth+1)
	}
}

// RenderSearch renders keyword search results grouped by grade, the
// format the lookup CLI prints. A keyword with no matches renders the
// not-found message.
func (s *Store) RenderSearch(keyword string) string {
	matches := s.Search(keyword)
	if len(matches) == 0 {
		return fmt.Sprintf("No standards found matching '%s'.\n", keyword)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nFound %d result(s) for '%s':\n\n", len(matches), keyword)
	b.WriteString(strings.Repeat("-", 70))
	b.WriteByte('\n')

	grouped := make(map[string][]*Entry)
	for _, entry := range matches {
		key := s.GradeKeyFor(entry)
		grouped[key] = append(grouped[key], entry)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, si := gradeSortKey(keys[i])
		rj, sj := gradeSortKey(keys[j])
		if ri != rj {
			return ri < rj
		}
		return si < sj
	})

	for _, key := range keys {
		label := key
		if grade, ok := s.Get(key); ok {
			label = grade.Description
		}
		fmt.Fprintf(&b, "\n[%s]\n", label)

		entries := grouped[key]
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
		for _, entry := range entries {
			indent := treeIndent
			if entry.Level == LevelCluster || entry.Level == LevelDomain {
				indent = "  "
			}
			fmt.Fprintf(&b, "%s%s\n", wrapIndent(entry.Description, indent+entry.ID+": "), clusterSuffix(entry))
		}
	}

	b.WriteByte('\n')
	return b.String()
}

// gradeSortKey orders grade keys K first, then numeric grades, then
// everything else alphabetically.
func gradeSortKey(key string) (int, string) {
	if key == "K" {
		return 0, ""
	}
	if n, err := strconv.Atoi(key); err == nil {
		return n, ""
	}
	return 99, key
}

// clusterSuffix returns the cluster-type label separated by two spaces,
// or an empty string for untyped entries.
func clusterSuffix(entry *Entry) string {
	label := ClusterTypeLabel(entry.ClusterType)
	if label == "" {
		return ""
	}
	return "  " + label
}

// wrapIndent greedily fills text at wrapWidth. The first line starts
// with prefix; continuation lines align under the character after it.
func wrapIndent(text, prefix string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	subsequent := strings.Repeat(" ", len(prefix))
	var b strings.Builder
	line := prefix + words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > wrapWidth {
			b.WriteString(line)
			b.WriteByte('\n')
			line = subsequent + word
			continue
		}
		line += " " + word
	}
	b.WriteString(line)
	return b.String()
}
