// Package codes implements CCSS code parsing, granularity collapse, and
// grade/subject scoping.
//
// A code identifies a node in the standards taxonomy. K-8 codes are fully
// dot-separated ("4.NF.B.3a"), high-school codes join the category and
// domain with a dash ("A-APR.1"). Either way, the dot-separated prefix
// determines the coarser levels a code collapses to.
package codes

import (
	"fmt"
	"sort"
	"strings"
)

// Granularity selects how far a code is collapsed before comparison.
type Granularity string

const (
	GranularityDomain   Granularity = "domain"
	GranularityCluster  Granularity = "cluster"
	GranularityStandard Granularity = "standard"
)

// Granularities lists the comparison granularities from coarsest to finest.
func Granularities() []Granularity {
	return []Granularity{GranularityDomain, GranularityCluster, GranularityStandard}
}

// ParseGranularity parses a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityDomain, GranularityCluster, GranularityStandard:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (must be domain, cluster, or standard)", s)
	}
}

// Levels returns the domain, cluster, and standard collapse of a code.
// The first two dot-separated parts name the domain and the first three
// the cluster. Codes with fewer parts collapse to themselves, so a bare
// domain id maps to itself at every granularity.
func Levels(code string) (domain, cluster, standard string) {
	parts := strings.Split(code, ".")

	domain = code
	if len(parts) >= 2 {
		domain = strings.Join(parts[:2], ".")
	}

	cluster = domain
	if len(parts) >= 3 {
		cluster = strings.Join(parts[:3], ".")
	}

	return domain, cluster, code
}

// MapLevel collapses a code to the given granularity.
func MapLevel(code string, g Granularity) string {
	domain, cluster, standard := Levels(code)
	switch g {
	case GranularityDomain:
		return domain
	case GranularityCluster:
		return cluster
	default:
		return standard
	}
}

// MapLevelSet collapses every code in a set to the given granularity.
// Distinct codes may collapse to the same value, so the result can be
// smaller than the input.
func MapLevelSet(codes Set, g Granularity) Set {
	mapped := make(Set, len(codes))
	for code := range codes {
		mapped.Add(MapLevel(code, g))
	}
	return mapped
}

// Set is an unordered set of taxonomy codes.
type Set map[string]struct{}

// NewSet builds a set from the given codes.
func NewSet(codes ...string) Set {
	s := make(Set, len(codes))
	for _, code := range codes {
		s[code] = struct{}{}
	}
	return s
}

// Add inserts a code into the set.
func (s Set) Add(code string) {
	s[code] = struct{}{}
}

// Has reports whether the set contains a code.
func (s Set) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Equal reports whether both sets hold exactly the same codes.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for code := range s {
		if _, ok := other[code]; !ok {
			return false
		}
	}
	return true
}

// Intersection returns the codes present in both sets.
func (s Set) Intersection(other Set) Set {
	out := make(Set)
	for code := range s {
		if _, ok := other[code]; ok {
			out[code] = struct{}{}
		}
	}
	return out
}

// Difference returns the codes present in s but not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for code := range s {
		if _, ok := other[code]; !ok {
			out[code] = struct{}{}
		}
	}
	return out
}

// Sorted returns the codes in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
