// =============================================================================
// Legacy Mongo Migrator - Document Store Abstraction
// =============================================================================
//
// The engine talks to the target document store through the Store interface
// so the reconciliation logic can be exercised against an in-memory fake in
// tests. The production implementation (mongo.go) wraps the official MongoDB
// driver.
//
// The surface is deliberately narrow: the engine only ever needs to probe a
// natural key, look up a canonical identifier, establish the run-scoped
// unique index, and flush one unordered batch of writes. Resolution is
// read-only by construction - nothing on this interface mutates a document
// outside BulkWrite.
//
// =============================================================================

package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrUnavailable marks a store that could not be reached during the initial
// handshake. The CLI maps it to a distinct exit status because a run that
// never started is not the same failure as a run with unresolved records.
var ErrUnavailable = errors.New("document store unavailable")

// OpKind selects the write behavior of a single staged operation.
type OpKind int

const (
	// OpInsert inserts a new document.
	OpInsert OpKind = iota

	// OpUpdate applies a $set to documents matching the filter; it never
	// creates a document.
	OpUpdate

	// OpUpsert applies a $set, creating the document when the filter
	// matches nothing.
	OpUpsert
)

// WriteOp is one staged write inside a flush batch.
type WriteOp struct {
	// Kind selects insert, update, or upsert behavior.
	Kind OpKind

	// NaturalKey identifies the candidate in logs and previews.
	NaturalKey string

	// Filter selects the target documents for OpUpdate and OpUpsert.
	Filter bson.M

	// Document is the full document for OpInsert, or the $set payload for
	// OpUpdate and OpUpsert.
	Document bson.M
}

// BulkResult tallies the outcome of one unordered batch flush.
type BulkResult struct {
	// Inserted counts documents created by OpInsert operations.
	Inserted int64

	// Matched counts documents selected by OpUpdate/OpUpsert filters.
	// A matched document counts as committed even when the $set was a
	// no-op, because reruns converge on identical payloads.
	Matched int64

	// Upserted counts documents created by OpUpsert operations.
	Upserted int64

	// Duplicates counts operations rejected by the unique natural-key
	// index. These are tolerated: the batch continues.
	Duplicates int64

	// Failed counts operations rejected for any other reason.
	Failed int64
}

// Committed returns the number of operations that changed or confirmed a
// document.
func (r BulkResult) Committed() int64 {
	return r.Inserted + r.Matched + r.Upserted
}

// Store is the engine's view of the target document store.
type Store interface {
	// Ping verifies connectivity. A failure here is fatal to the run.
	Ping(ctx context.Context) error

	// FindID returns the canonical identifier of the first document whose
	// field equals value exactly, in the collection's natural scan order.
	FindID(ctx context.Context, collection, field, value string) (id any, found bool, err error)

	// FindIDFold is FindID with case-insensitive equality.
	FindIDFold(ctx context.Context, collection, field, value string) (id any, found bool, err error)

	// EnsureUniqueIndex establishes a unique index on the collection's
	// natural-key field. Creating an index that already exists is a no-op.
	EnsureUniqueIndex(ctx context.Context, collection, field string) error

	// BulkWrite flushes one batch of operations without ordering
	// guarantees. Duplicate-key conflicts are folded into the result, not
	// returned as an error; only transport-level failures error out.
	BulkWrite(ctx context.Context, collection string, ops []WriteOp) (BulkResult, error)
}
