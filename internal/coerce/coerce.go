// =============================================================================
// Legacy Mongo Migrator - Safe Coercion Module
// =============================================================================
//
// This module is the single point through which every other component reads a
// legacy field value. Legacy records arrive untyped: a field that is numeric
// in one export is a padded string in the next, a date is sometimes empty,
// sometimes garbage. The rule here is simple: coercion never fails. Every
// function is total over its input domain and falls back to the caller's
// default instead of returning an error.
//
// COERCION RULES:
//   - nil and empty values become the type-specific default
//   - strings are trimmed before parsing
//   - numeric strings may use a comma as the decimal separator and may carry
//     asterisk padding (both artifacts of the legacy DBF exports)
//
// =============================================================================

package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used by the legacy exports.
const DateLayout = "2006-01-02"

// Str converts a raw value to a trimmed string, returning def for nil.
func Str(value any, def string) string {
	if value == nil {
		return def
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// JSON numbers decode as float64. Render integral values without a
		// fractional part so "4521" does not become "4521.000000".
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Int converts a raw value to an int64. Fractional inputs truncate toward
// zero; strings that do not parse as a whole number fall back to def.
func Int(value any, def int64) int64 {
	switch v := value.(type) {
	case nil:
		return def
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		s := cleanNumeric(v)
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return def
	default:
		return def
	}
}

// Float converts a raw value to a float64. A single comma decimal separator
// is normalized to a dot before parsing.
func Float(value any, def float64) float64 {
	switch v := value.(type) {
	case nil:
		return def
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case string:
		s := cleanNumeric(v)
		if s == "" || s == "." {
			return def
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return def
	default:
		return def
	}
}

// Date parses a raw value as a calendar date in DateLayout. Absent or
// unparseable values fall back to def.
func Date(value any, def time.Time) time.Time {
	s := Str(value, "")
	if s == "" {
		return def
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return def
	}
	return t
}

// cleanNumeric strips the padding and separator artifacts the legacy DBF
// exports leave in numeric fields: surrounding whitespace, asterisk padding,
// and a comma decimal separator.
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*")
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
