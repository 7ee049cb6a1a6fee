package term

import "github.com/incidentlabs/hybrid-index/internal/data"

// Vectorize builds a pure term-frequency sparse vector: one entry per distinct
// token id, weighted by its occurrence count. No IDF weighting and no length
// normalization is applied; the sparse side of a hybrid query only needs to
// capture lexical overlap, not rank on its own.
func Vectorize(ids []uint32) data.SparseVector {
	vec := make(data.SparseVector, len(ids))
	for _, id := range ids {
		vec[id]++
	}
	return vec
}

// VectorizeText tokenizes text and returns its term-frequency vector.
func VectorizeText(t *Tokenizer, text string) (data.SparseVector, error) {
	ids, err := t.Encode(text)
	if err != nil {
		return nil, err
	}
	return Vectorize(ids), nil
}
