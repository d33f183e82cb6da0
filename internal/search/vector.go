package search

import "math"

// SparseVector holds the non-zero weights of a document vector.
// Indices are strictly ascending vocabulary positions.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// IsZero reports whether the vector has no non-zero entries
func (v SparseVector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Norm returns the euclidean length of the vector
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Get returns the weight stored at vocabulary index idx
func (v SparseVector) Get(idx int) float64 {
	lo, hi := 0, len(v.Indices)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case v.Indices[mid] == idx:
			return v.Values[mid]
		case v.Indices[mid] < idx:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

// Dense expands the vector to a slice of the given width
func (v SparseVector) Dense(size int) []float64 {
	out := make([]float64, size)
	for k, idx := range v.Indices {
		if idx < size {
			out[idx] = v.Values[k]
		}
	}
	return out
}

// Dot computes the inner product of two sparse vectors
func Dot(a, b SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

func normalize(v SparseVector) SparseVector {
	norm := v.Norm()
	if norm == 0 {
		return SparseVector{}
	}
	for k := range v.Values {
		v.Values[k] /= norm
	}
	return v
}
