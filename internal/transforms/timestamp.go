package transforms

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Raw entity fields recognized as timestamp sources, checked in order.
var rawDateKeys = []string{"dateAndTime", "dateTime"}

// Qualifiers stripped before parsing; extraction often carries a trailing
// local-time marker the parser cannot handle.
var localeQualifiers = []string{"local time", "local"}

// NormalizeTimestamps parses the free-text date extracted into the entity
// properties and rewrites it as integer day/month/year fields plus a
// canonical RFC 3339 dateTime string. Timestamps without an explicit UTC
// offset are interpreted as UTC, so their canonical form ends in "Z".
// Documents lacking both recognized raw fields pass through unchanged, and an
// unparseable value leaves the original fields untouched; neither is an
// error.
func NormalizeTimestamps() Stage {
	return Map("normalize_timestamps", func(ctx context.Context, doc *data.Document) error {
		entity := doc.Entity()

		var raw string
		var found bool
		for _, key := range rawDateKeys {
			if s, ok := entity.String(key); ok && s != "" {
				raw, found = s, true
				break
			}
		}
		if !found {
			return nil
		}

		parsed, err := dateparse.ParseIn(stripQualifiers(raw), time.UTC)
		if err != nil {
			return nil
		}

		entity["day"] = parsed.Day()
		entity["month"] = int(parsed.Month())
		entity["year"] = parsed.Year()
		entity["dateTime"] = parsed.Format(time.RFC3339)
		return nil
	})
}

func stripQualifiers(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, q := range localeQualifiers {
		if strings.HasSuffix(lower, q) {
			s = strings.TrimSpace(s[:len(s)-len(q)])
			lower = strings.ToLower(s)
		}
	}
	return s
}
