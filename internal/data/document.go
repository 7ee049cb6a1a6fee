// Package data defines the document model flowing through the transform pipeline.
package data

import "github.com/google/uuid"

// Document is the unit of work in the transform pipeline. Before explosion a
// document owns an ordered list of elements; after explosion each element has
// become its own document and Elements is empty.
type Document struct {
	ID         string
	Text       string // nullable text representation; empty means "no text"
	Properties Properties
	Elements   []*Element

	// Populated by the vectorization stages.
	Embedding []float32
	TermFreq  SparseVector
	Shingles  []uint64
}

// Element is a sub-unit of a document (one detected region of a page, one
// section of a report) prior to merge/explode. An element is owned exclusively
// by its parent document until explosion.
type Element struct {
	Text       string
	Properties Properties
}

// NewDocument creates an empty document with a fresh identifier.
func NewDocument() *Document {
	return &Document{
		ID:         uuid.New().String(),
		Properties: Properties{},
	}
}

// Entity returns the nested entity property map, creating it if absent.
func (d *Document) Entity() Properties {
	return d.Properties.Child(KeyEntity)
}

// Clone returns a deep copy of the document. Elements and property maps are
// copied so pipeline stages can mutate the result without aliasing.
func (d *Document) Clone() *Document {
	out := &Document{
		ID:         d.ID,
		Text:       d.Text,
		Properties: d.Properties.Clone(),
	}
	if d.Elements != nil {
		out.Elements = make([]*Element, len(d.Elements))
		for i, el := range d.Elements {
			out.Elements[i] = el.Clone()
		}
	}
	if d.Embedding != nil {
		out.Embedding = append([]float32(nil), d.Embedding...)
	}
	if d.TermFreq != nil {
		out.TermFreq = d.TermFreq.Clone()
	}
	if d.Shingles != nil {
		out.Shingles = append([]uint64(nil), d.Shingles...)
	}
	return out
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	return &Element{
		Text:       e.Text,
		Properties: e.Properties.Clone(),
	}
}

// Well-known property keys.
const (
	KeyEntity     = "entity"
	KeyPath       = "path"
	KeyParentID   = "parent_id"
	KeyPageNumber = "page_number"
	KeyHeaderPath = "header_path"

	// Merge markers set by a marking stage and consumed by the merger.
	KeyMarkBreak = "_break"
	KeyMarkDrop  = "_drop"
)
