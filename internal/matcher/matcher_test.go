package matcher

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match_Cosine(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	tests := []struct {
		name       string
		threshold  float64
		probe      []float32
		candidates []Candidate
		wantID     uuid.UUID
		wantOK     bool
	}{
		{
			name:      "exact match accepted",
			threshold: 0.85,
			probe:     []float32{1, 0, 0},
			candidates: []Candidate{
				{StudentID: alice, Embedding: []float32{1, 0, 0}},
				{StudentID: bob, Embedding: []float32{0, 1, 0}},
			},
			wantID: alice,
			wantOK: true,
		},
		{
			name:      "orthogonal probe rejected",
			threshold: 0.85,
			probe:     []float32{0, 0, 1},
			candidates: []Candidate{
				{StudentID: alice, Embedding: []float32{1, 0, 0}},
				{StudentID: bob, Embedding: []float32{0, 1, 0}},
			},
			wantOK: false,
		},
		{
			name:      "best below threshold rejected",
			threshold: 0.99,
			probe:     []float32{1, 1, 0},
			candidates: []Candidate{
				{StudentID: alice, Embedding: []float32{1, 0, 0}},
			},
			wantOK: false,
		},
		{
			name:      "ambiguous tie rejected",
			threshold: 0.85,
			probe:     []float32{1, 0, 0},
			candidates: []Candidate{
				{StudentID: alice, Embedding: []float32{1, 0, 0}},
				{StudentID: bob, Embedding: []float32{2, 0, 0}}, // same direction, same similarity
			},
			wantOK: false,
		},
		{
			name:       "no candidates",
			threshold:  0.85,
			probe:      []float32{1, 0, 0},
			candidates: nil,
			wantOK:     false,
		},
		{
			name:      "dimension mismatch skipped",
			threshold: 0.85,
			probe:     []float32{1, 0, 0},
			candidates: []Candidate{
				{StudentID: bob, Embedding: []float32{1, 0}},
				{StudentID: alice, Embedding: []float32{1, 0, 0}},
			},
			wantID: alice,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(MetricCosine, tt.threshold)
			got, ok := m.Match(tt.probe, tt.candidates)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.StudentID)
			}
		})
	}
}

func TestMatcher_Match_Euclidean(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	m := New(MetricEuclidean, 0.6)

	candidates := []Candidate{
		{StudentID: alice, Embedding: []float32{0, 0, 0}},
		{StudentID: bob, Embedding: []float32{10, 10, 10}},
	}

	got, ok := m.Match([]float32{0.1, 0.1, 0.1}, candidates)
	require.True(t, ok)
	assert.Equal(t, alice, got.StudentID)
	assert.InDelta(t, math.Sqrt(0.03), got.Score, 1e-6)

	// Far from everyone.
	_, ok = m.Match([]float32{5, 5, 5}, candidates)
	assert.False(t, ok)
}

func TestMatcher_Match_Deterministic(t *testing.T) {
	m := New(MetricCosine, 0.5)

	candidates := make([]Candidate, 0, 50)
	for i := 0; i < 50; i++ {
		candidates = append(candidates, Candidate{
			StudentID: uuid.New(),
			Embedding: []float32{float32(i), float32(i % 7), 1},
		})
	}
	probe := []float32{3, 3, 1}

	first, firstOK := m.Match(probe, candidates)
	for i := 0; i < 10; i++ {
		got, ok := m.Match(probe, candidates)
		require.Equal(t, firstOK, ok)
		require.Equal(t, first, got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 1}))
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, 5.0, EuclideanDistance([]float32{0, 0}, []float32{3, 4}), 1e-9)
	assert.True(t, math.IsInf(EuclideanDistance([]float32{1}, []float32{1, 2}), 1))
}

func TestIndex_MatchIndexed(t *testing.T) {
	m := New(MetricCosine, 0.9)

	target := uuid.New()
	candidates := []Candidate{{StudentID: target, Embedding: unit(0)}}
	for i := 1; i < 200; i++ {
		candidates = append(candidates, Candidate{StudentID: uuid.New(), Embedding: unit(i)})
	}

	ix := NewIndex(MetricCosine, candidates)
	require.Equal(t, 200, ix.Len())

	got, ok := m.MatchIndexed(unit(0), ix)
	require.True(t, ok)
	assert.Equal(t, target, got.StudentID)

	// Empty index rejects.
	_, ok = m.MatchIndexed(unit(0), NewIndex(MetricCosine, nil))
	assert.False(t, ok)
}

func TestIndex_MatchIndexed_Euclidean(t *testing.T) {
	m := New(MetricEuclidean, 0.6)

	target := uuid.New()
	candidates := []Candidate{{StudentID: target, Embedding: unit(0)}}
	for i := 1; i < 200; i++ {
		candidates = append(candidates, Candidate{StudentID: uuid.New(), Embedding: unit(i)})
	}

	// The graph orders by the same metric the matcher scores with, so
	// the true nearest neighbor survives pre-selection.
	ix := NewIndex(MetricEuclidean, candidates)
	got, ok := m.MatchIndexed(unit(0), ix)
	require.True(t, ok)
	assert.Equal(t, target, got.StudentID)
	assert.InDelta(t, 0.0, got.Score, 1e-6)
}

func TestIndex_Add(t *testing.T) {
	ix := NewIndex(MetricCosine, nil)
	id := uuid.New()

	ix.Add(Candidate{StudentID: id, Embedding: unit(3)})
	ix.Add(Candidate{StudentID: uuid.New()}) // no embedding, skipped

	assert.Equal(t, 1, ix.Len())

	m := New(MetricCosine, 0.9)
	got, ok := m.MatchIndexed(unit(3), ix)
	require.True(t, ok)
	assert.Equal(t, id, got.StudentID)
}

// unit returns a deterministic unit-ish vector distinct per seed.
func unit(seed int) []float32 {
	v := make([]float32, 16)
	for i := range v {
		v[i] = float32(math.Sin(float64(seed*16 + i + 1)))
	}
	return v
}
