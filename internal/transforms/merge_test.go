package transforms

import (
	"context"
	"testing"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

func runStage(t *testing.T, stage Stage, docs ...*data.Document) []*data.Document {
	t.Helper()
	out, failures, err := stage.Run(context.Background(), docs)
	if err != nil {
		t.Fatalf("Stage %s failed: %v", stage.Name(), err)
	}
	if len(failures) > 0 {
		t.Fatalf("Stage %s reported failures: %v", stage.Name(), failures)
	}
	return out
}

func elem(text string, props data.Properties) *data.Element {
	if props == nil {
		props = data.Properties{}
	}
	return &data.Element{Text: text, Properties: props}
}

// TestMerge_GroupsOnBreaks verifies break markers start new groups and text
// joins with newlines in reading order.
func TestMerge_GroupsOnBreaks(t *testing.T) {
	doc := data.NewDocument()
	doc.Elements = []*data.Element{
		elem("first", data.Properties{data.KeyMarkBreak: true}),
		elem("second", nil),
		elem("third", data.Properties{data.KeyMarkBreak: true}),
		elem("fourth", nil),
	}

	out := runStage(t, Merge(), doc)
	if len(out[0].Elements) != 2 {
		t.Fatalf("Expected 2 merged elements, got %d", len(out[0].Elements))
	}
	if out[0].Elements[0].Text != "first\nsecond" {
		t.Errorf("Group 0 text: %q", out[0].Elements[0].Text)
	}
	if out[0].Elements[1].Text != "third\nfourth" {
		t.Errorf("Group 1 text: %q", out[0].Elements[1].Text)
	}
}

// TestMerge_DropMarker verifies dropped elements contribute nothing.
func TestMerge_DropMarker(t *testing.T) {
	doc := data.NewDocument()
	doc.Elements = []*data.Element{
		elem("keep", data.Properties{data.KeyMarkBreak: true}),
		elem("boilerplate", data.Properties{data.KeyMarkDrop: true}),
		elem("also keep", nil),
	}

	out := runStage(t, Merge(), doc)
	if len(out[0].Elements) != 1 {
		t.Fatalf("Expected 1 merged element, got %d", len(out[0].Elements))
	}
	if out[0].Elements[0].Text != "keep\nalso keep" {
		t.Errorf("Merged text: %q", out[0].Elements[0].Text)
	}
}

// TestMerge_FirstElementPropertiesWin verifies the first group member's
// properties take precedence and later members only add missing keys.
func TestMerge_FirstElementPropertiesWin(t *testing.T) {
	doc := data.NewDocument()
	doc.Elements = []*data.Element{
		elem("a", data.Properties{data.KeyMarkBreak: true, data.KeyPageNumber: 1, "section": "intro"}),
		elem("b", data.Properties{data.KeyPageNumber: 2, "author": "NTSB"}),
	}

	out := runStage(t, Merge(), doc)
	props := out[0].Elements[0].Properties
	if page, _ := props.Int(data.KeyPageNumber); page != 1 {
		t.Errorf("Expected first element's page 1, got %d", page)
	}
	if props["section"] != "intro" {
		t.Errorf("Lost first element property: %v", props)
	}
	if props["author"] != "NTSB" {
		t.Errorf("Missing key from later member: %v", props)
	}
	if _, exists := props[data.KeyMarkBreak]; exists {
		t.Error("Break marker should not survive merging")
	}
}

// TestMerge_LeadingUnmarkedElements verifies elements before the first break
// still form a group.
func TestMerge_LeadingUnmarkedElements(t *testing.T) {
	doc := data.NewDocument()
	doc.Elements = []*data.Element{
		elem("preamble", nil),
		elem("body", data.Properties{data.KeyMarkBreak: true}),
	}

	out := runStage(t, Merge(), doc)
	if len(out[0].Elements) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(out[0].Elements))
	}
	if out[0].Elements[0].Text != "preamble" {
		t.Errorf("Preamble group text: %q", out[0].Elements[0].Text)
	}
}

// TestMarkBreaksByPage verifies page transitions get break markers.
func TestMarkBreaksByPage(t *testing.T) {
	doc := data.NewDocument()
	doc.Elements = []*data.Element{
		elem("p1a", data.Properties{data.KeyPageNumber: 1}),
		elem("p1b", data.Properties{data.KeyPageNumber: 1}),
		elem("p2", data.Properties{data.KeyPageNumber: 2}),
	}

	out := runStage(t, MarkBreaksByPage(), doc)
	els := out[0].Elements
	if !els[0].Properties.Bool(data.KeyMarkBreak) {
		t.Error("First element of page 1 should be marked")
	}
	if els[1].Properties.Bool(data.KeyMarkBreak) {
		t.Error("Second element of page 1 should not be marked")
	}
	if !els[2].Properties.Bool(data.KeyMarkBreak) {
		t.Error("First element of page 2 should be marked")
	}
}
