package transforms

import (
	"context"
	"encoding/binary"
	"hash/fnv"

	"github.com/incidentlabs/hybrid-index/internal/data"
	"github.com/incidentlabs/hybrid-index/internal/term"
)

const (
	// DefaultShingleWindow is the token window hashed per shingle.
	DefaultShingleWindow = 17
	// DefaultNumShingles is the number of signature buckets kept.
	DefaultNumShingles = 16
)

// Sketch attaches a compact near-duplicate signature to each document: every
// window-sized token shingle is hashed, and the minimum hash per bucket is
// kept. Two documents sharing many shingles share many signature entries.
// Purely additive metadata; the text is not altered.
func Sketch(tokenizer *term.Tokenizer, window, num int) Stage {
	if window <= 0 {
		window = DefaultShingleWindow
	}
	if num <= 0 {
		num = DefaultNumShingles
	}
	return Map("sketch", func(ctx context.Context, doc *data.Document) error {
		ids, err := tokenizer.Encode(doc.Text)
		if err != nil {
			return err
		}
		doc.Shingles = shingleSignature(ids, window, num)
		return nil
	})
}

func shingleSignature(ids []uint32, window, num int) []uint64 {
	sig := make([]uint64, num)
	for i := range sig {
		sig[i] = ^uint64(0)
	}

	hashWindow := func(lo, hi int) uint64 {
		h := fnv.New64a()
		var buf [4]byte
		for _, id := range ids[lo:hi] {
			binary.LittleEndian.PutUint32(buf[:], id)
			h.Write(buf[:])
		}
		return h.Sum64()
	}

	if len(ids) <= window {
		h := hashWindow(0, len(ids))
		sig[h%uint64(num)] = h
		return sig
	}
	for i := 0; i+window <= len(ids); i++ {
		h := hashWindow(i, i+window)
		bucket := h % uint64(num)
		if h < sig[bucket] {
			sig[bucket] = h
		}
	}
	return sig
}
