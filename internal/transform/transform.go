// =============================================================================
// Legacy Mongo Migrator - Field Transformer
// =============================================================================
//
// This module normalizes legacy field values into their canonical document
// forms:
//
//   - Currency: major-unit decimals become integer minor units (cents).
//   - Dates: when a profile names an anchor zone, the calendar date is
//     anchored at local noon in that zone and then converted to UTC. This
//     preserves the calendar day across the zone shift; a naive midnight-UTC
//     conversion would land dates near the zone boundary on the wrong day.
//   - Notes: the legacy free-text line fields are joined into one multi-line
//     notes value, optionally prefixed by a short primary field.
//
// Every transformation is a pure function of its input, so the output
// documents are bit-exact testable.
//
// =============================================================================

package transform

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/coerce"
)

// =============================================================================
// CURRENCY
// =============================================================================

// MinorUnits converts a major-unit decimal value to integer minor units,
// truncating toward zero. Missing or unparseable values yield 0.
func MinorUnits(value any) int64 {
	return int64(coerce.Float(value, 0) * 100)
}

// =============================================================================
// DATES
// =============================================================================

// DatePolicy controls how calendar dates become UTC instants.
type DatePolicy struct {
	loc *time.Location
}

// NaiveDates returns a policy with no zone conversion: dates parse as plain
// calendar instants (midnight UTC).
func NaiveDates() DatePolicy {
	return DatePolicy{}
}

// AnchoredDates returns a policy that anchors calendar dates at local noon
// in the named zone before converting to UTC. The zone name must exist in
// the tz database.
func AnchoredDates(zone string) (DatePolicy, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return DatePolicy{}, errors.Wrapf(err, "unknown anchor zone %q", zone)
	}
	return DatePolicy{loc: loc}, nil
}

// Anchored reports whether the policy performs noon anchoring.
func (p DatePolicy) Anchored() bool {
	return p.loc != nil
}

// Convert turns a raw date value into a UTC instant under the policy.
// Absent or unparseable values fall back to def. Callers passing "now" as
// def accept a non-deterministic value and should only do so for optional
// fields.
func (p DatePolicy) Convert(value any, def time.Time) time.Time {
	d := coerce.Date(value, time.Time{})
	if d.IsZero() {
		return def
	}
	if p.loc == nil {
		return d
	}
	local := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, p.loc)
	return local.UTC()
}

// =============================================================================
// FREE TEXT
// =============================================================================

// ComposeNotes joins the legacy note lines with newlines, keeping empty
// sub-fields as empty lines, and prefixes the primary short field when both
// are present. The result is a pure function of its inputs.
func ComposeNotes(primary string, lines []string) string {
	joined := strings.Join(lines, "\n")
	if strings.TrimSpace(joined) == "" {
		return primary
	}
	if primary == "" {
		return joined
	}
	return primary + "\n" + joined
}
