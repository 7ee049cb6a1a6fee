package data

import "sort"

// SparseVector maps token ids to non-negative weights. Keys are unique and
// carry no implied order.
type SparseVector map[uint32]float32

// Clone returns a copy of the vector.
func (v SparseVector) Clone() SparseVector {
	out := make(SparseVector, len(v))
	for k, w := range v {
		out[k] = w
	}
	return out
}

// Scale multiplies every weight by f and returns a new vector. Scaling by
// zero yields a vector whose entries are all exactly zero.
func (v SparseVector) Scale(f float32) SparseVector {
	out := make(SparseVector, len(v))
	for k, w := range v {
		out[k] = w * f
	}
	return out
}

// Sum returns the total weight across all entries.
func (v SparseVector) Sum() float64 {
	var sum float64
	for _, w := range v {
		sum += float64(w)
	}
	return sum
}

// Unzip returns the entries as parallel index/value slices, sorted by index
// for deterministic wire encoding.
func (v SparseVector) Unzip() ([]uint32, []float32) {
	indices := make([]uint32, 0, len(v))
	for k := range v {
		indices = append(indices, k)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	values := make([]float32, len(indices))
	for i, k := range indices {
		values[i] = v[k]
	}
	return indices, values
}

// Dot returns the dot product with another sparse vector.
func (v SparseVector) Dot(other SparseVector) float64 {
	a, b := v, other
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for k, w := range a {
		if ow, ok := b[k]; ok {
			sum += float64(w) * float64(ow)
		}
	}
	return sum
}
