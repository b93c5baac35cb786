package taxonomy

import (
	"strings"
	"testing"

	"github.com/mathfish/mathfish/internal/codes"
)

func TestHierarchy_Buckets(t *testing.T) {
	h := testStore().Hierarchy()

	if len(h) != 2 {
		t.Fatalf("hierarchy has %d buckets, want 2 (got keys %v)", len(h), hierarchyKeys(h))
	}

	grade4, ok := h["4"]
	if !ok {
		t.Fatal("bucket 4 missing")
	}
	if grade4.Name != "Grade 4" || grade4.SortKey != 4 {
		t.Errorf("bucket 4 = %q sort %d, want Grade 4 sort 4", grade4.Name, grade4.SortKey)
	}

	algebra, ok := h["HS-A"]
	if !ok {
		t.Fatal("bucket HS-A missing")
	}
	if algebra.Name != "HS: Algebra" || algebra.SortKey != 101 {
		t.Errorf("bucket HS-A = %q sort %d, want HS: Algebra sort 101", algebra.Name, algebra.SortKey)
	}
}

func TestHierarchy_Nesting(t *testing.T) {
	h := testStore().Hierarchy()

	domain, ok := h["4"].Domains["4.NF"]
	if !ok {
		t.Fatal("domain 4.NF missing")
	}
	if domain.Description != "Number and Operations - Fractions" {
		t.Errorf("domain description = %q", domain.Description)
	}

	cluster, ok := domain.Clusters["4.NF.B"]
	if !ok {
		t.Fatal("cluster 4.NF.B missing")
	}
	if cluster.ClusterType != "major cluster" {
		t.Errorf("cluster_type = %q, want major cluster", cluster.ClusterType)
	}

	// The dangling child 4.NF.B.9 must not appear.
	if len(cluster.Standards) != 1 {
		t.Fatalf("cluster has %d standards, want 1", len(cluster.Standards))
	}

	std, ok := cluster.Standards["4.NF.B.3"]
	if !ok {
		t.Fatal("standard 4.NF.B.3 missing")
	}
	if len(std.SubStandards) != 1 {
		t.Fatalf("standard has %d sub-standards, want 1", len(std.SubStandards))
	}
	if sub := std.SubStandards["4.NF.B.3a"]; sub == nil || sub.Description == "" {
		t.Error("sub-standard 4.NF.B.3a missing or empty")
	}
}

func TestHierarchy_SingleDomainGrade(t *testing.T) {
	// A grade with exactly one domain still gets a bucket keyed and
	// sorted by the grade digit.
	store := NewStore([]*Entry{
		{ID: "4.MD", Description: "Measurement and Data", Level: LevelDomain},
	})

	h := store.Hierarchy()
	bucket, ok := h["4"]
	if !ok {
		t.Fatalf("bucket 4 missing, got %v", hierarchyKeys(h))
	}
	if bucket.SortKey != 4 {
		t.Errorf("SortKey = %d, want 4", bucket.SortKey)
	}
	if len(bucket.Domains) != 1 {
		t.Errorf("bucket has %d domains, want 1", len(bucket.Domains))
	}
}

func TestHierarchy_EmptyClusterType(t *testing.T) {
	h := testStore().Hierarchy()

	cluster := h["HS-A"].Domains["A-APR"].Clusters["A-APR.A"]
	if cluster.ClusterType != "" {
		t.Errorf("cluster_type = %q, want empty", cluster.ClusterType)
	}
}

func TestRenderText(t *testing.T) {
	got := testStore().RenderText(codes.Scope{})

	want := strings.Join([]string{
		"Domain 4.NF: Number and Operations - Fractions",
		"  Cluster 4.NF.B (major cluster): Build fractions from unit fractions",
		"    Standard 4.NF.B.3: Understand addition and subtraction of fractions",
		"      Sub-standard 4.NF.B.3a: Decompose a fraction into a sum of fractions",
		"Domain A-APR: Arithmetic with Polynomials and Rational Expressions",
		"  Cluster A-APR.A: Perform arithmetic operations on polynomials",
		"    Standard A-APR.1: Understand that polynomials form a system analogous to the integers",
	}, "\n")

	if got != want {
		t.Errorf("RenderText() =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderText_Scoped(t *testing.T) {
	store := testStore()

	got := store.RenderText(codes.ParseScopeValue("grade-4"))
	if !strings.Contains(got, "Domain 4.NF") {
		t.Error("grade-4 scope should include 4.NF")
	}
	if strings.Contains(got, "A-APR") {
		t.Error("grade-4 scope should exclude A-APR")
	}

	got = store.RenderText(codes.ParseScopeValue("algebra 1"))
	if !strings.Contains(got, "Domain A-APR") {
		t.Error("algebra scope should include A-APR")
	}
	if strings.Contains(got, "4.NF") {
		t.Error("algebra scope should exclude 4.NF")
	}
}

func TestRenderText_NoMatches(t *testing.T) {
	if got := testStore().RenderText(codes.ParseScopeValue("geometry")); got != "" {
		t.Errorf("RenderText(geometry) = %q, want empty", got)
	}
}

func hierarchyKeys(h Hierarchy) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}
