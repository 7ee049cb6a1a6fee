package data

import "testing"

// TestScale_ReturnsNewVector verifies scaling does not mutate the receiver
// and that zero scaling keeps zero-weight entries.
func TestScale_ReturnsNewVector(t *testing.T) {
	v := SparseVector{5: 2, 9: 1}

	half := v.Scale(0.5)
	if v[5] != 2 || v[9] != 1 {
		t.Error("Scale mutated the receiver")
	}
	if half[5] != 1 || half[9] != 0.5 {
		t.Errorf("Unexpected scaled weights: %v", half)
	}

	zero := v.Scale(0)
	if len(zero) != 2 {
		t.Errorf("Zero scale should keep entries, got %d", len(zero))
	}
	if zero[5] != 0 || zero[9] != 0 {
		t.Errorf("Expected all-zero weights, got %v", zero)
	}
}

// TestUnzip_SortedByIndex verifies the wire encoding order is deterministic.
func TestUnzip_SortedByIndex(t *testing.T) {
	v := SparseVector{42: 3, 7: 1, 1000: 2}
	indices, values := v.Unzip()

	wantIdx := []uint32{7, 42, 1000}
	wantVal := []float32{1, 3, 2}
	for i := range wantIdx {
		if indices[i] != wantIdx[i] || values[i] != wantVal[i] {
			t.Errorf("Entry %d: got (%d,%v), want (%d,%v)", i, indices[i], values[i], wantIdx[i], wantVal[i])
		}
	}
}

// TestDot_OverlapOnly verifies only shared ids contribute.
func TestDot_OverlapOnly(t *testing.T) {
	a := SparseVector{1: 2, 2: 3}
	b := SparseVector{2: 4, 3: 5}
	if got := a.Dot(b); got != 12 {
		t.Errorf("Dot = %v, want 12", got)
	}
	if got := a.Dot(SparseVector{}); got != 0 {
		t.Errorf("Dot with empty = %v, want 0", got)
	}
}
