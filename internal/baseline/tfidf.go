package baseline

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/mathfish/mathfish/internal/taxonomy"
)

type sparseVec = map[int]float64

// stopWords are common English words excluded from the vocabulary.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "will": true, "with": true,
	"i": true, "me": true, "my": true, "we": true, "you": true, "your": true,
	"this": true, "these": true, "those": true, "there": true, "their": true,
}

// tokenize lowercases text and splits it into runs of letters and
// digits, dropping single-character tokens and stop words.
func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := cur.String()
		cur.Reset()
		if len(tok) < 2 || stopWords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// Index is an in-memory TF-IDF index over standard texts. Each document
// is a standard code followed by its description.
type Index struct {
	vocab map[string]int
	idf   []float64
	docs  []sparseVec
	ids   []string
}

func candidateText(c taxonomy.Candidate) string {
	return strings.TrimSpace(c.ID + " " + c.Description)
}

// NewIndex builds the index over the candidate standards.
func NewIndex(candidates []taxonomy.Candidate) *Index {
	idx := &Index{vocab: make(map[string]int)}
	if len(candidates) == 0 {
		return idx
	}

	// Build vocabulary.
	for _, c := range candidates {
		for _, tok := range tokenize(candidateText(c)) {
			if _, ok := idx.vocab[tok]; !ok {
				idx.vocab[tok] = len(idx.vocab)
			}
		}
	}

	// Document frequency.
	df := make([]int, len(idx.vocab))
	idx.docs = make([]sparseVec, len(candidates))
	idx.ids = make([]string, len(candidates))
	n := float64(len(candidates))

	for i, c := range candidates {
		idx.ids[i] = c.ID
		tf := make(map[int]int)
		for _, tok := range tokenize(candidateText(c)) {
			if j, ok := idx.vocab[tok]; ok {
				tf[j]++
			}
		}
		vec := make(sparseVec, len(tf))
		for j, count := range tf {
			vec[j] = float64(count)
			df[j]++
		}
		idx.docs[i] = vec
	}

	// IDF.
	idx.idf = make([]float64, len(idx.vocab))
	for j, d := range df {
		if d > 0 {
			idx.idf[j] = math.Log(n/float64(d)) + 1.0
		}
	}

	// Apply TF-IDF weighting.
	for _, vec := range idx.docs {
		for j := range vec {
			vec[j] *= idx.idf[j]
		}
	}

	return idx
}

// Len returns the number of indexed standards.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// ID returns the standard code of document i.
func (idx *Index) ID(i int) string {
	return idx.ids[i]
}

func (idx *Index) queryVec(text string) sparseVec {
	tf := make(map[int]int)
	for _, tok := range tokenize(text) {
		if j, ok := idx.vocab[tok]; ok {
			tf[j]++
		}
	}
	vec := make(sparseVec, len(tf))
	for j, count := range tf {
		vec[j] = float64(count) * idx.idf[j]
	}
	return vec
}

// TopK returns the codes of the k standards most similar to text, best
// first with ties kept in corpus order. Standards with zero similarity
// never match, so fewer than k codes may come back.
func (idx *Index) TopK(text string, k int) []string {
	if len(idx.ids) == 0 || k <= 0 {
		return nil
	}
	qvec := idx.queryVec(text)
	if len(qvec) == 0 {
		return nil
	}

	type scored struct {
		index int
		score float64
	}
	var results []scored
	for i, dvec := range idx.docs {
		if sim := cosineSim(qvec, dvec); sim > 0 {
			results = append(results, scored{i, sim})
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})
	if len(results) > k {
		results = results[:k]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = idx.ids[r.index]
	}
	return out
}

// SparseVector returns the tf-idf vector for text as parallel
// index/value slices, L2-normalized and sorted by vocabulary index.
func (idx *Index) SparseVector(text string) ([]uint32, []float32) {
	return toSparsePair(idx.queryVec(text))
}

// DocVector returns document i's stored vector in the same form.
func (idx *Index) DocVector(i int) ([]uint32, []float32) {
	return toSparsePair(idx.docs[i])
}

func toSparsePair(vec sparseVec) ([]uint32, []float32) {
	if len(vec) == 0 {
		return nil, nil
	}
	keys := make([]int, 0, len(vec))
	var norm float64
	for j, v := range vec {
		keys = append(keys, j)
		norm += v * v
	}
	sort.Ints(keys)
	norm = math.Sqrt(norm)

	indices := make([]uint32, len(keys))
	values := make([]float32, len(keys))
	for i, j := range keys {
		indices[i] = uint32(j)
		values[i] = float32(vec[j] / norm)
	}
	return indices, values
}

func cosineSim(a, b sparseVec) float64 {
	var dot, normA, normB float64
	for j, va := range a {
		if vb, ok := b[j]; ok {
			dot += va * vb
		}
		normA += va * va
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
