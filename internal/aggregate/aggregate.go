// =============================================================================
// Legacy Mongo Migrator - Grouping / Aggregation Module
// =============================================================================
//
// Many legacy exports are line-oriented: a sales order is spread across one
// invoice line per part. This module collapses those flat lines into one
// aggregate per grouping key (e.g. SONO, the order number).
//
// Ordering matters twice:
//   - groups appear in first-seen order, so reruns and tests are
//     deterministic
//   - records keep their source order inside a group, because "first line
//     wins" defaults (the counterparty code, the order date) read line one
//
// Records whose key coerces to the empty string still form a group keyed by
// "". Callers may filter that group out, but grouping itself never discards
// input.
//
// =============================================================================

package aggregate

import (
	"time"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/legacy"
)

// Aggregate is an ordered run of legacy records sharing one grouping key.
type Aggregate struct {
	// Key is the normalized grouping key: the key field's value, trimmed,
	// case preserved.
	Key string

	// Records holds the member records in source order.
	Records []legacy.Record
}

// FirstStr reads a field from the aggregate's first record. Used for
// first-line-wins derived scalars such as the counterparty code.
func (a *Aggregate) FirstStr(field, def string) string {
	if len(a.Records) == 0 {
		return def
	}
	return a.Records[0].Str(field, def)
}

// FirstDate reads a date field from the aggregate's first record.
func (a *Aggregate) FirstDate(field string, def time.Time) time.Time {
	if len(a.Records) == 0 {
		return def
	}
	return a.Records[0].Date(field, def)
}

// Group collapses records into aggregates keyed by the given field.
// Group order follows the first occurrence of each key; record order within
// a group follows the input.
func Group(records []legacy.Record, keyField string) []*Aggregate {
	index := make(map[string]*Aggregate)
	var ordered []*Aggregate

	for _, rec := range records {
		key := rec.Str(keyField, "")
		agg, ok := index[key]
		if !ok {
			agg = &Aggregate{Key: key}
			index[key] = agg
			ordered = append(ordered, agg)
		}
		agg.Records = append(agg.Records, rec)
	}
	return ordered
}
