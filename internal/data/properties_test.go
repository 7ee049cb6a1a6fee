package data

import "testing"

// TestClone_DeepCopiesNestedMaps verifies mutating a clone leaves the
// original untouched.
func TestClone_DeepCopiesNestedMaps(t *testing.T) {
	orig := Properties{
		"path": "a.pdf",
		"entity": Properties{
			"aircraft": "Cessna 172",
		},
	}

	clone := orig.Clone()
	clone.Child("entity")["aircraft"] = "Boeing 737"

	if got := orig.Child("entity")["aircraft"]; got != "Cessna 172" {
		t.Errorf("Original mutated through clone: %v", got)
	}
}

// TestChild_CreatesAndConverts verifies Child creates missing maps and
// converts plain map[string]any in place.
func TestChild_CreatesAndConverts(t *testing.T) {
	p := Properties{}
	p.Child("entity")["year"] = 2023
	if y, ok := p.Child("entity").Int("year"); !ok || y != 2023 {
		t.Errorf("Expected year 2023, got %v (ok=%v)", y, ok)
	}

	q := Properties{"entity": map[string]any{"year": 2022}}
	if y, ok := q.Child("entity").Int("year"); !ok || y != 2022 {
		t.Errorf("Expected year 2022 via converted child, got %v (ok=%v)", y, ok)
	}
}

// TestLookup_DottedPaths covers present paths, absent segments and traversal
// through non-map values.
func TestLookup_DottedPaths(t *testing.T) {
	p := Properties{
		"path": "reports/x.pdf",
		"entity": map[string]any{
			"year":     2023,
			"aircraft": "Piper PA-28",
		},
	}

	if v, ok := p.Lookup("entity.year"); !ok || v != 2023 {
		t.Errorf("entity.year: got %v (ok=%v)", v, ok)
	}
	if v, ok := p.Lookup("path"); !ok || v != "reports/x.pdf" {
		t.Errorf("path: got %v (ok=%v)", v, ok)
	}
	if _, ok := p.Lookup("entity.location"); ok {
		t.Error("Expected miss for absent leaf")
	}
	if _, ok := p.Lookup("missing.year"); ok {
		t.Error("Expected miss for absent branch")
	}
	if _, ok := p.Lookup("path.deeper"); ok {
		t.Error("Expected miss when traversing through a scalar")
	}
}

// TestInt_NumericVariants verifies accessors accept JSON-decoded numbers.
func TestInt_NumericVariants(t *testing.T) {
	p := Properties{"a": 1, "b": int64(2), "c": 3.0, "d": "x"}
	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if got, ok := p.Int(key); !ok || got != want {
			t.Errorf("Int(%q): got %d (ok=%v), want %d", key, got, ok, want)
		}
	}
	if _, ok := p.Int("d"); ok {
		t.Error("Expected Int to reject a string value")
	}
}
