package transforms

import (
	"strings"
	"testing"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// TestNormalizeTimestamps_LocalQualifier verifies a fuzzy date with a
// trailing locale qualifier normalizes to integer fields and a UTC canonical
// string.
func TestNormalizeTimestamps_LocalQualifier(t *testing.T) {
	doc := data.NewDocument()
	doc.Entity()["dateAndTime"] = "January 17, 2023 Local"

	out := runStage(t, NormalizeTimestamps(), doc)
	entity := out[0].Entity()

	if d, _ := entity.Int("day"); d != 17 {
		t.Errorf("day = %d, want 17", d)
	}
	if m, _ := entity.Int("month"); m != 1 {
		t.Errorf("month = %d, want 1", m)
	}
	if y, _ := entity.Int("year"); y != 2023 {
		t.Errorf("year = %d, want 2023", y)
	}
	dt, _ := entity.String("dateTime")
	if !strings.HasSuffix(dt, "Z") {
		t.Errorf("dateTime %q should end in Z: no offset means UTC", dt)
	}
	if !strings.HasPrefix(dt, "2023-01-17") {
		t.Errorf("dateTime %q should begin with the date", dt)
	}
}

// TestNormalizeTimestamps_TimeOfDay verifies a date with a clock time keeps
// the time in the canonical form.
func TestNormalizeTimestamps_TimeOfDay(t *testing.T) {
	doc := data.NewDocument()
	doc.Entity()["dateAndTime"] = "March 3, 2022 3:00 PM local time"

	out := runStage(t, NormalizeTimestamps(), doc)
	entity := out[0].Entity()

	if y, _ := entity.Int("year"); y != 2022 {
		t.Errorf("year = %d, want 2022", y)
	}
	dt, _ := entity.String("dateTime")
	if dt != "2022-03-03T15:00:00Z" {
		t.Errorf("dateTime = %q, want 2022-03-03T15:00:00Z", dt)
	}
}

// TestNormalizeTimestamps_FallbackKey verifies the dateTime raw field is
// consulted when dateAndTime is absent.
func TestNormalizeTimestamps_FallbackKey(t *testing.T) {
	doc := data.NewDocument()
	doc.Entity()["dateTime"] = "2021-06-05"

	out := runStage(t, NormalizeTimestamps(), doc)
	entity := out[0].Entity()
	if y, _ := entity.Int("year"); y != 2021 {
		t.Errorf("year = %d, want 2021", y)
	}
}

// TestNormalizeTimestamps_MissingFields verifies documents without raw date
// fields pass through untouched.
func TestNormalizeTimestamps_MissingFields(t *testing.T) {
	doc := data.NewDocument()
	doc.Entity()["aircraft"] = "Cessna 172"

	out := runStage(t, NormalizeTimestamps(), doc)
	entity := out[0].Entity()
	if _, ok := entity.Int("year"); ok {
		t.Error("No date fields should be synthesized")
	}
	if a, _ := entity.String("aircraft"); a != "Cessna 172" {
		t.Error("Unrelated fields must survive")
	}
}

// TestNormalizeTimestamps_Unparseable verifies garbage input is left as-is
// without failing the document.
func TestNormalizeTimestamps_Unparseable(t *testing.T) {
	doc := data.NewDocument()
	doc.Entity()["dateAndTime"] = "sometime before lunch"

	out := runStage(t, NormalizeTimestamps(), doc)
	entity := out[0].Entity()
	if raw, _ := entity.String("dateAndTime"); raw != "sometime before lunch" {
		t.Errorf("Raw value altered: %q", raw)
	}
	if _, ok := entity.Int("year"); ok {
		t.Error("Unparseable date should not produce a year")
	}
}
