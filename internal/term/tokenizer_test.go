package term

import (
	"testing"
)

// TestTokenize_Deterministic verifies the same text always yields the same
// token id sequence.
func TestTokenize_Deterministic(t *testing.T) {
	tok := NewTokenizer()
	text := "Engine failure at 3000 feet near O'Hare"

	first, err := tok.Encode(text)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := tok.Encode(text)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Token %d differs: %d vs %d", i, first[i], second[i])
		}
	}
}

// TestTokenize_WordsAndNumbers verifies word/digit segmentation and that
// punctuation is dropped.
func TestTokenize_WordsAndNumbers(t *testing.T) {
	tok := NewTokenizer()
	tokens, err := tok.Tokenize("Flight AB-123 landed, safely.")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	want := []string{"Flight", "AB", "123", "landed", "safely"}
	if len(tokens) != len(want) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Text != w {
			t.Errorf("Token %d: expected %q, got %q", i, w, tokens[i].Text)
		}
	}
}

// TestTokenize_Apostrophes verifies internal apostrophes stay inside a token.
func TestTokenize_Apostrophes(t *testing.T) {
	tok := NewTokenizer()
	tokens, err := tok.Tokenize("the pilot's checklist")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("Expected 3 tokens, got %d", len(tokens))
	}
	if tokens[1].Text != "pilot's" {
		t.Errorf("Expected \"pilot's\", got %q", tokens[1].Text)
	}
}

// TestTokenize_Offsets verifies byte spans point back into the source text.
func TestTokenize_Offsets(t *testing.T) {
	tok := NewTokenizer()
	text := "gear up, flaps down"
	tokens, err := tok.Tokenize(text)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	for _, token := range tokens {
		if got := text[token.Start:token.End]; got != token.Text {
			t.Errorf("Span [%d:%d] = %q, token text %q", token.Start, token.End, got, token.Text)
		}
	}
}

// TestTokenize_InvalidUTF8 verifies malformed input is rejected, not
// tokenized partially.
func TestTokenize_InvalidUTF8(t *testing.T) {
	tok := NewTokenizer()
	if _, err := tok.Tokenize("valid\xffinvalid"); err == nil {
		t.Error("Expected error for invalid UTF-8, got nil")
	}
}

// TestTokenID_CaseInsensitive verifies ids are stable across letter case.
func TestTokenID_CaseInsensitive(t *testing.T) {
	if TokenID("Cessna") != TokenID("cessna") {
		t.Error("Expected identical ids for case variants")
	}
	if TokenID("cessna") == TokenID("boeing") {
		t.Error("Expected different ids for different words")
	}
}

// TestVectorize_Counts verifies duplicate ids accumulate as counts.
func TestVectorize_Counts(t *testing.T) {
	vec := Vectorize([]uint32{7, 7, 3})
	if len(vec) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(vec))
	}
	if vec[7] != 2 {
		t.Errorf("Expected weight 2 for id 7, got %v", vec[7])
	}
	if vec[3] != 1 {
		t.Errorf("Expected weight 1 for id 3, got %v", vec[3])
	}
}

// TestVectorizeText_WeightSum verifies total weight equals the token count:
// pure term frequency, no normalization.
func TestVectorizeText_WeightSum(t *testing.T) {
	tok := NewTokenizer()
	text := "engine engine failure engine failure stall"

	ids, err := tok.Encode(text)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	vec, err := VectorizeText(tok, text)
	if err != nil {
		t.Fatalf("VectorizeText failed: %v", err)
	}

	if got := vec.Sum(); got != float64(len(ids)) {
		t.Errorf("Weight sum %v, expected token count %d", got, len(ids))
	}
}

// TestVectorizeText_Empty verifies empty text yields an empty vector.
func TestVectorizeText_Empty(t *testing.T) {
	vec, err := VectorizeText(NewTokenizer(), "")
	if err != nil {
		t.Fatalf("VectorizeText failed: %v", err)
	}
	if len(vec) != 0 {
		t.Errorf("Expected empty vector, got %d entries", len(vec))
	}
}
