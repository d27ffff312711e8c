package matcher

import (
	"sync"

	"github.com/coder/hnsw"
)

const (
	// indexMaxNeighbors is the HNSW M parameter.
	indexMaxNeighbors = 16
	// indexSearchK is how many approximate neighbors are pulled before
	// exact rescoring.
	indexSearchK = 8
)

// Index is an approximate nearest-neighbor pre-selector for large
// enrollments. A linear scan is fine at classroom scale; past a few
// thousand encodings the HNSW graph narrows the candidate set first.
// Selected neighbors are always rescored exactly by Matcher.Match, so
// the threshold and tie policies are unaffected by the approximation.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	byKey map[string]Candidate
}

// NewIndex builds an index over a snapshot of candidates, ordering the
// graph by the same metric the exact matcher scores with. Candidates
// with empty embeddings are skipped.
func NewIndex(metric Metric, candidates []Candidate) *Index {
	g := hnsw.NewGraph[string]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	if metric == MetricEuclidean {
		g.Distance = hnsw.EuclideanDistance
	} else {
		g.Distance = hnsw.CosineDistance
	}

	byKey := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			continue
		}
		key := c.StudentID.String()
		g.Add(hnsw.MakeNode(key, c.Embedding))
		byKey[key] = c
	}

	return &Index{graph: g, byKey: byKey}
}

// Add inserts or replaces one candidate.
func (ix *Index) Add(c Candidate) {
	if len(c.Embedding) == 0 {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := c.StudentID.String()
	ix.graph.Add(hnsw.MakeNode(key, c.Embedding))
	ix.byKey[key] = c
}

// Len returns the number of indexed candidates.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byKey)
}

// Select returns the approximate nearest candidates to the probe, to be
// rescored exactly by the caller.
func (ix *Index) Select(probe []float32) []Candidate {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	neighbors := ix.graph.Search(probe, indexSearchK)
	out := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		if c, ok := ix.byKey[n.Key]; ok {
			out = append(out, c)
		}
	}
	return out
}

// MatchIndexed narrows candidates through the index, then applies the
// exact match. With a mismatching or empty index it is equivalent to a
// full scan over the selected set only, so callers should keep the
// index in sync with the store snapshot.
func (m *Matcher) MatchIndexed(probe []float32, ix *Index) (Match, bool) {
	if ix == nil || ix.Len() == 0 {
		return Match{}, false
	}
	return m.Match(probe, ix.Select(probe))
}
