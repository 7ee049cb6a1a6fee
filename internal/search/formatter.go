package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/incidentlabs/hybrid-index/internal/data"
	"github.com/incidentlabs/hybrid-index/internal/index"
)

// Defaults used when a hit's metadata lacks a field.
const (
	UnknownText   = "UNKNOWN"
	MissingNumber = -1
)

// FormattedHit is a display projection of one raw index hit.
type FormattedHit struct {
	Score    float64
	Path     string
	Aircraft string
	Location string
	DateTime string
	Day      int
	Month    int
	Year     int
	Text     string
}

// Format maps a raw hit to displayable fields: "UNKNOWN" for missing text
// fields, -1 for missing numeric date fields. Pure presentation; no side
// effects.
func Format(hit index.Hit) FormattedHit {
	meta := data.Properties(hit.Metadata)
	return FormattedHit{
		Score:    hit.Score,
		Path:     lookupText(meta, "path"),
		Aircraft: lookupText(meta, "entity.aircraft"),
		Location: lookupText(meta, "entity.location"),
		DateTime: lookupText(meta, "entity.dateTime"),
		Day:      lookupNumber(meta, "entity.day"),
		Month:    lookupNumber(meta, "entity.month"),
		Year:     lookupNumber(meta, "entity.year"),
		Text:     lookupText(meta, "text"),
	}
}

// String renders the hit as a compact multi-line block.
func (f FormattedHit) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%.4f  %s\n", f.Score, f.Path)
	fmt.Fprintf(&sb, "  aircraft: %s  location: %s\n", f.Aircraft, f.Location)
	fmt.Fprintf(&sb, "  date: %s (y=%d m=%d d=%d)\n", f.DateTime, f.Year, f.Month, f.Day)
	text := f.Text
	if len(text) > 200 {
		cut := 200
		// Back up to a rune boundary so the cut never splits a multi-byte
		// sequence.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	fmt.Fprintf(&sb, "  %s", text)
	return sb.String()
}

func lookupText(meta data.Properties, path string) string {
	v, ok := meta.Lookup(path)
	if !ok {
		return UnknownText
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return UnknownText
	}
	return s
}

func lookupNumber(meta data.Properties, path string) int {
	v, ok := meta.Lookup(path)
	if !ok {
		return MissingNumber
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return MissingNumber
	}
}
