package codes

import (
	"fmt"
	"regexp"
	"strings"
)

// hsCategoryNames maps high-school category letters to display names.
var hsCategoryNames = map[string]string{
	"A": "Algebra",
	"F": "Functions",
	"G": "Geometry",
	"N": "Number & Quantity",
	"S": "Statistics & Probability",
}

// hsCategoryOrder fixes the display order of high-school categories
// after the K-8 grades.
var hsCategoryOrder = map[string]int{
	"N": 0,
	"A": 1,
	"F": 2,
	"G": 3,
	"S": 4,
}

// GradeRoot describes the top-level hierarchy bucket a domain belongs to.
type GradeRoot struct {
	Key  string
	Name string
	Sort int
}

// GradeRootFor buckets a domain id under its grade or high-school
// category. K-8 domains bucket by their leading grade digit; everything
// else is treated as high school and bucketed by the letter before the
// dash. Unknown prefixes keep the raw prefix as the name and sort last.
func GradeRootFor(domainID string) GradeRoot {
	first := strings.Split(domainID, ".")[0]

	if first == "K" {
		return GradeRoot{Key: "K", Name: "Kindergarten", Sort: 0}
	}

	if len(first) == 1 && first[0] >= '1' && first[0] <= '8' {
		return GradeRoot{Key: first, Name: "Grade " + first, Sort: int(first[0] - '0')}
	}

	prefix := strings.Split(domainID, "-")[0]
	name, ok := hsCategoryNames[prefix]
	if !ok {
		name = prefix
	}
	order, ok := hsCategoryOrder[prefix]
	if !ok {
		order = 9
	}
	return GradeRoot{Key: "HS-" + prefix, Name: "HS: " + name, Sort: 100 + order}
}

// Scope restricts candidate standards to one grade or to a set of
// high-school categories. The zero value is unscoped: every code is
// in scope.
type Scope struct {
	grade      string
	categories []string
}

var (
	gradeDashRe    = regexp.MustCompile(`grade-(\d)`)
	ordinalGradeRe = regexp.MustCompile(`(\d)(st|nd|rd|th)-grade`)
)

// ParseScopeValue parses a raw grade/subject label into a scope.
// Unrecognized labels produce the unscoped zero value.
func ParseScopeValue(raw string) Scope {
	val := strings.ToLower(strings.TrimSpace(raw))
	if val == "" {
		return Scope{}
	}

	if strings.Contains(val, "kindergarten") || val == "k" {
		return Scope{grade: "K"}
	}
	if m := gradeDashRe.FindStringSubmatch(val); m != nil {
		return Scope{grade: m[1]}
	}
	if m := ordinalGradeRe.FindStringSubmatch(val); m != nil {
		return Scope{grade: m[1]}
	}

	if strings.Contains(val, "algebra-1") || strings.Contains(val, "algebra 1") ||
		strings.Contains(val, "algebra-2") || strings.Contains(val, "algebra 2") {
		return Scope{categories: []string{"A", "F", "N", "S"}}
	}
	if strings.Contains(val, "geometry") {
		return Scope{categories: []string{"G", "N"}}
	}
	if strings.Contains(val, "high school") || strings.HasPrefix(val, "hs") {
		return Scope{categories: []string{"A", "F", "G", "N", "S"}}
	}

	return Scope{}
}

// ScopeFromMetadata derives a scope from problem metadata. The keys
// "grade / subject", "grade", and "subject" are tried in order; the
// first non-empty value wins even when it fails to parse.
func ScopeFromMetadata(meta map[string]any) Scope {
	for _, key := range []string{"grade / subject", "grade", "subject"} {
		raw, ok := meta[key]
		if !ok || raw == nil {
			continue
		}
		val := strings.TrimSpace(fmt.Sprintf("%v", raw))
		if val == "" {
			continue
		}
		return ParseScopeValue(val)
	}
	return Scope{}
}

// Unscoped reports whether the scope places every code in scope.
func (s Scope) Unscoped() bool {
	return s.grade == "" && len(s.categories) == 0
}

// ContainsCode reports whether a taxonomy code falls inside the scope.
// Grade scopes match the dot-separated grade prefix; category scopes
// match any of their dash-separated category prefixes.
func (s Scope) ContainsCode(code string) bool {
	if s.Unscoped() {
		return true
	}
	if len(s.categories) > 0 {
		for _, cat := range s.categories {
			if strings.HasPrefix(code, cat+"-") {
				return true
			}
		}
		return false
	}
	return strings.HasPrefix(code, s.grade+".")
}

// String renders the scope for logging.
func (s Scope) String() string {
	switch {
	case s.grade != "":
		return s.grade
	case len(s.categories) > 0:
		return strings.Join(s.categories, ",")
	default:
		return "all"
	}
}
