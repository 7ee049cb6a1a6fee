// Package term provides deterministic text tokenization and term-frequency
// sparse vectors for lexical (hybrid) retrieval.
package term

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Token is a single lexical token with its byte span in the source text.
// Start/End allow splitting text on token boundaries without re-tokenizing.
type Token struct {
	Text  string
	ID    uint32
	Start int
	End   int
}

// Tokenizer maps text to a sequence of integer token ids. It is stateless and
// deterministic: the same text always yields the same token sequence. Ids are
// FNV-1a hashes of the lowercased token text, so no vocabulary needs to be
// shared between ingestion and query time.
type Tokenizer struct {
	pattern *regexp.Regexp
}

// NewTokenizer returns a tokenizer splitting on Unicode word boundaries.
// Words keep internal apostrophes; digit runs are separate tokens.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		pattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
	}
}

// Tokenize splits text into tokens with ids and byte offsets. Text that is
// not valid UTF-8 is rejected with an error naming the offending input rather
// than tokenized partially.
func (t *Tokenizer) Tokenize(text string) ([]Token, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("tokenize: input is not valid UTF-8: %q", truncate(text, 40))
	}
	spans := t.pattern.FindAllStringIndex(text, -1)
	tokens := make([]Token, len(spans))
	for i, span := range spans {
		word := text[span[0]:span[1]]
		tokens[i] = Token{
			Text:  word,
			ID:    TokenID(word),
			Start: span[0],
			End:   span[1],
		}
	}
	return tokens, nil
}

// Encode returns only the token ids for text.
func (t *Tokenizer) Encode(text string) ([]uint32, error) {
	tokens, err := t.Tokenize(text)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
	}
	return ids, nil
}

// TokenID returns the stable id for a token: FNV-1a over its lowercased text.
func TokenID(word string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(word)))
	return h.Sum32()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
