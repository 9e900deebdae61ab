// =============================================================================
// Legacy Mongo Migrator - Legacy Record Model
// =============================================================================
//
// A LegacyRecord is one flat line from a legacy export: an ordered mapping of
// short field codes (ITEM, CUSTNO, SONO, PRICE, ...) to raw scalar values.
// Records are immutable once read. Field order is preserved because the
// legacy exports are positional at heart and the dry-run preview should show
// fields in the order the source system wrote them.
//
// All typed access goes through the coerce package, so missing and garbled
// values behave identically at every use site.
//
// =============================================================================

package legacy

import (
	"time"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/coerce"
)

// Field is a single name/value pair inside a record. Values are the raw
// scalars produced by the batch reader: string, float64, bool, or nil.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered collection of legacy fields.
type Record struct {
	fields []Field
}

// NewRecord builds a record from an ordered field list. Used by the batch
// readers and by tests.
func NewRecord(fields []Field) Record {
	return Record{fields: fields}
}

// Fields returns the record's fields in source order.
func (r Record) Fields() []Field {
	return r.fields
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.fields)
}

// Get returns the raw value for a field code and whether it was present.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Str reads a field as a trimmed string, falling back to def.
func (r Record) Str(name, def string) string {
	v, ok := r.Get(name)
	if !ok {
		return def
	}
	return coerce.Str(v, def)
}

// Int reads a field as an int64, falling back to def.
func (r Record) Int(name string, def int64) int64 {
	v, ok := r.Get(name)
	if !ok {
		return def
	}
	return coerce.Int(v, def)
}

// Float reads a field as a float64, falling back to def.
func (r Record) Float(name string, def float64) float64 {
	v, ok := r.Get(name)
	if !ok {
		return def
	}
	return coerce.Float(v, def)
}

// Date reads a field as a calendar date, falling back to def.
func (r Record) Date(name string, def time.Time) time.Time {
	v, ok := r.Get(name)
	if !ok {
		return def
	}
	return coerce.Date(v, def)
}
