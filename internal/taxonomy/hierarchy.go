package taxonomy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mathfish/mathfish/internal/codes"
)

// Hierarchy is the nested grade > domain > cluster > standard view served
// to the annotation client. Keys at the top level are grade bucket keys
// ("K", "1".."8", "HS-A", ...); clients order buckets by sort_key.
type Hierarchy map[string]*GradeNode

// GradeNode is one grade or high-school category bucket.
type GradeNode struct {
	Name    string                 `json:"name"`
	SortKey int                    `json:"sort_key"`
	Domains map[string]*DomainNode `json:"domains"`
}

// DomainNode is a domain with its clusters.
type DomainNode struct {
	ID          string                  `json:"id"`
	Description string                  `json:"description"`
	Clusters    map[string]*ClusterNode `json:"clusters"`
}

// ClusterNode is a cluster with its standards.
type ClusterNode struct {
	ID          string                   `json:"id"`
	Description string                   `json:"description"`
	ClusterType string                   `json:"cluster_type"`
	Standards   map[string]*StandardNode `json:"standards"`
}

// StandardNode is a standard with its sub-standards.
type StandardNode struct {
	ID           string                      `json:"id"`
	Description  string                      `json:"description"`
	SubStandards map[string]*SubStandardNode `json:"sub_standards"`
}

// SubStandardNode is a leaf sub-standard.
type SubStandardNode struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Hierarchy builds the nested view from the flat store. Only Domain
// entries anchor the tree; children that do not resolve to an entry
// are skipped.
func (s *Store) Hierarchy() Hierarchy {
	h := make(Hierarchy)

	for _, id := range s.order {
		entry := s.entries[id]
		if entry.Level != LevelDomain {
			continue
		}

		root := codes.GradeRootFor(entry.ID)
		grade, ok := h[root.Key]
		if !ok {
			grade = &GradeNode{
				Name:    root.Name,
				SortKey: root.Sort,
				Domains: make(map[string]*DomainNode),
			}
			h[root.Key] = grade
		}

		domain := &DomainNode{
			ID:          entry.ID,
			Description: entry.Description,
			Clusters:    make(map[string]*ClusterNode),
		}

		for _, cluster := range s.Children(entry) {
			clusterNode := &ClusterNode{
				ID:          cluster.ID,
				Description: cluster.Description,
				ClusterType: cluster.ClusterType,
				Standards:   make(map[string]*StandardNode),
			}

			for _, std := range s.Children(cluster) {
				stdNode := &StandardNode{
					ID:           std.ID,
					Description:  std.Description,
					SubStandards: make(map[string]*SubStandardNode),
				}

				for _, sub := range s.Children(std) {
					stdNode.SubStandards[sub.ID] = &SubStandardNode{
						ID:          sub.ID,
						Description: sub.Description,
					}
				}

				clusterNode.Standards[std.ID] = stdNode
			}

			domain.Clusters[cluster.ID] = clusterNode
		}

		grade.Domains[entry.ID] = domain
	}

	return h
}

// RenderText renders the in-scope taxonomy as indented text for LLM
// prompts. Domains sort by id; children keep file order.
func (s *Store) RenderText(scope codes.Scope) string {
	var domains []*Entry
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.Level == LevelDomain && scope.ContainsCode(entry.ID) {
			domains = append(domains, entry)
		}
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i].ID < domains[j].ID })

	var lines []string
	for _, domain := range domains {
		lines = append(lines, fmt.Sprintf("Domain %s: %s", domain.ID, domain.Description))
		for _, cluster := range s.Children(domain) {
			ctype := strings.TrimSpace(cluster.ClusterType)
			if ctype != "" {
				ctype = " (" + ctype + ")"
			}
			lines = append(lines, fmt.Sprintf("  Cluster %s%s: %s", cluster.ID, ctype, cluster.Description))
			for _, std := range s.Children(cluster) {
				lines = append(lines, fmt.Sprintf("    Standard %s: %s", std.ID, std.Description))
				for _, sub := range s.Children(std) {
					lines = append(lines, fmt.Sprintf("      Sub-standard %s: %s", sub.ID, sub.Description))
				}
			}
		}
	}

	return strings.Join(lines, "\n")
}
