// Package matcher decides identity from a probe vector and a snapshot of
// enrolled encodings. It is a pure comparison: no learning happens at
// request time, and identical inputs always produce identical results.
package matcher

import (
	"math"

	"github.com/google/uuid"
)

// Metric names the score function of an extractor's vector space. The
// best-candidate direction and the threshold predicate both depend on it.
type Metric string

const (
	// MetricCosine scores by cosine similarity: higher is closer,
	// accept when score > threshold.
	MetricCosine Metric = "cosine"
	// MetricEuclidean scores by euclidean distance: lower is closer,
	// accept when score <= threshold.
	MetricEuclidean Metric = "euclidean"
)

// Candidate is one enrolled (identity, vector) pair from the encoding
// store snapshot.
type Candidate struct {
	StudentID uuid.UUID
	Embedding []float32
}

// Match is an accepted identification with its score.
type Match struct {
	StudentID uuid.UUID
	Score     float64
}

// Matcher compares probe vectors against candidates using a fixed
// metric and threshold. Both come from the extractor's space; they are
// configuration, not constants.
type Matcher struct {
	metric    Metric
	threshold float64
}

func New(metric Metric, threshold float64) *Matcher {
	return &Matcher{metric: metric, threshold: threshold}
}

func (m *Matcher) Metric() Metric     { return m.metric }
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match scans all candidates and returns the single best one that
// satisfies the threshold. If two or more candidates share the best
// qualifying score the result is ambiguous and Match rejects rather
// than pick one arbitrarily: misattributing attendance is worse than
// asking for a retake.
func (m *Matcher) Match(probe []float32, candidates []Candidate) (Match, bool) {
	if len(probe) == 0 {
		return Match{}, false
	}

	var (
		best      Match
		haveBest  bool
		bestCount int
	)

	for _, c := range candidates {
		if len(c.Embedding) != len(probe) {
			continue
		}

		score := m.score(probe, c.Embedding)

		switch {
		case !haveBest || m.better(score, best.Score):
			best = Match{StudentID: c.StudentID, Score: score}
			haveBest = true
			bestCount = 1
		case score == best.Score:
			bestCount++
		}
	}

	if !haveBest || !m.Accepts(best.Score) {
		return Match{}, false
	}
	if bestCount > 1 {
		// Ambiguous: equally best and both within threshold.
		return Match{}, false
	}

	return best, true
}

// Accepts reports whether a score satisfies the threshold predicate.
func (m *Matcher) Accepts(score float64) bool {
	if m.metric == MetricEuclidean {
		return score <= m.threshold
	}
	return score > m.threshold
}

func (m *Matcher) better(score, than float64) bool {
	if m.metric == MetricEuclidean {
		return score < than
	}
	return score > than
}

func (m *Matcher) score(a, b []float32) float64 {
	if m.metric == MetricEuclidean {
		return EuclideanDistance(a, b)
	}
	return CosineSimilarity(a, b)
}

// CosineSimilarity returns a value between -1.0 (opposite) and 1.0
// (identical). Zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

// EuclideanDistance returns the L2 distance between two vectors.
// Mismatched lengths score +Inf.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
