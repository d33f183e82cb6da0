package search

import "sort"

// Score is the similarity of one catalog row to a probe
type Score struct {
	Index int
	Value float64
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Zero vectors score 0 against everything, themselves included.
func CosineSimilarity(a, b SparseVector) float64 {
	normA, normB := a.Norm(), b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp(Dot(a, b) / (normA * normB))
}

// clamp keeps rounding noise from leaving [0,1]
func clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Matrix is a dense, square, symmetric similarity matrix
type Matrix struct {
	size int
	data []float64
}

// PairwiseMatrix computes the similarity of every pair of vectors once
func PairwiseMatrix(vectors []SparseVector) *Matrix {
	n := len(vectors)
	m := &Matrix{size: n, data: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s := CosineSimilarity(vectors[i], vectors[j])
			m.data[i*n+j] = s
			m.data[j*n+i] = s
		}
	}
	return m
}

func (m *Matrix) Size() int {
	return m.size
}

func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.size+j]
}

// Row returns a copy of row i
func (m *Matrix) Row(i int) []float64 {
	row := make([]float64, m.size)
	copy(row, m.data[i*m.size:(i+1)*m.size])
	return row
}

// Scores returns row i as item scores in catalog order
func (m *Matrix) Scores(i int) []Score {
	scores := make([]Score, m.size)
	base := i * m.size
	for j := range scores {
		scores[j] = Score{Index: j, Value: m.data[base+j]}
	}
	return scores
}

// SimilarityOf scores a probe vector against every vector, in order
func SimilarityOf(query SparseVector, vectors []SparseVector) []Score {
	scores := make([]Score, len(vectors))
	for i, v := range vectors {
		scores[i] = Score{Index: i, Value: CosineSimilarity(query, v)}
	}
	return scores
}

// Rank sorts scores descending, ties kept in catalog order, drops
// excluded rows and truncates to k. k <= 0 means no limit.
func Rank(scores []Score, k int, exclude func(int) bool) []Score {
	ranked := make([]Score, 0, len(scores))
	for _, s := range scores {
		if exclude != nil && exclude(s.Index) {
			continue
		}
		ranked = append(ranked, s)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
