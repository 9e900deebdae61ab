// =============================================================================
// Legacy Mongo Migrator - Batch Writer / Reconciliation Engine
// =============================================================================
//
// The engine is the stateful heart of a run. Every candidate document moves
// through one state machine:
//
//   STAGED -> {RESOLVED | UNRESOLVED}
//   RESOLVED -> {NEW | EXISTING}        (uniqueness probe on the natural key)
//   NEW -> DECIDED(INSERT)
//   EXISTING -> DECIDED(UPDATE | SKIP_EXISTING)   (per the profile's write mode)
//   UNRESOLVED -> DECIDED(SKIP_NO_REFERENCE | SKIP_NO_MATCH)
//
// Decisions accumulate into bounded per-collection batches. A full batch is
// flushed: real runs issue an unordered bulk write and tally what succeeded;
// duplicate-key collisions inside a batch are tolerated and counted as
// skips. Dry runs perform no I/O but produce the identical decisions plus a
// human-readable preview of every pending operation.
//
// The unique natural-key index is ensured once per collection before its
// first flush, so repeated or concurrent runs cannot create duplicate
// canonical documents. Reruns converge: existing documents are recognized by
// the probe and skipped or updated, never duplicated.
//
// Execution is single-threaded and synchronous. Lookups and flushes are the
// only blocking operations and they block the whole pipeline; there is no
// retry policy - a mid-run flush failure becomes failed counts, not an
// abort.
//
// =============================================================================

package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/config"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/legacy"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/report"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/resolver"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/store"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/transform"
)

// Decision is the terminal state of one candidate. Decisions are never
// persisted; they exist for the run's counters and the dry-run preview.
type Decision string

const (
	DecisionInsert          Decision = "INSERT"
	DecisionUpdate          Decision = "UPDATE"
	DecisionSkipExisting    Decision = "SKIP_EXISTING"
	DecisionSkipNoReference Decision = "SKIP_NO_REFERENCE"
	DecisionSkipNoMatch     Decision = "SKIP_NO_MATCH"
)

// Options configures an Engine.
type Options struct {
	// Store is the target document store.
	Store store.Store

	// Log receives structured run output.
	Log *zap.Logger

	// BatchSize bounds the staged batch per collection. Default 1000.
	BatchSize int

	// DryRun disables all writes and index creation while keeping the
	// decision counts identical to a real run.
	DryRun bool

	// Now supplies the clock for "now" defaults and updatedAt stamps.
	// Injectable so tests are deterministic. Default time.Now.
	Now func() time.Time
}

// pending is the staged batch for one target collection.
type pending struct {
	keyField string
	ops      []store.WriteOp
}

// Engine stages, decides, and flushes canonical documents for one run.
type Engine struct {
	store     store.Store
	resolver  *resolver.Resolver
	log       *zap.Logger
	rep       *report.Reporter
	runID     string
	batchSize int
	dryRun    bool
	now       func() time.Time

	batches map[string]*pending
	indexed map[string]bool
	preview []string
}

// New builds an engine. The resolver is wired with the standard fallback
// chain: strip a trailing ".0", then try a single leading zero.
func New(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:     opts.Store,
		resolver:  resolver.New(opts.Store, opts.Log, resolver.StripDotZero(), resolver.LeadingZero()),
		log:       opts.Log,
		runID:     uuid.NewString(),
		batchSize: opts.BatchSize,
		dryRun:    opts.DryRun,
		now:       opts.Now,
		batches:   make(map[string]*pending),
		indexed:   make(map[string]bool),
	}
}

// RunID identifies this engine's run in logs and preview file names.
func (e *Engine) RunID() string {
	return e.runID
}

// PreviewLines returns the dry-run preview accumulated so far, one line per
// pending operation.
func (e *Engine) PreviewLines() []string {
	return e.preview
}

// Run executes one migration profile against the given input batches, keyed
// by the profile's input roles. It returns the run's reporter so callers can
// inspect the counters.
func (e *Engine) Run(ctx context.Context, profile *config.Profile, batches map[string]*legacy.Batch) (*report.Reporter, error) {
	for _, role := range profile.Inputs {
		if _, ok := batches[role]; !ok {
			return nil, fmt.Errorf("profile %s requires input role %q", profile.Name, role)
		}
	}

	datePolicy, err := e.datePolicy(profile)
	if err != nil {
		return nil, err
	}

	e.log.Info("starting migration run",
		zap.String("run_id", e.runID),
		zap.String("profile", profile.Name),
		zap.String("entity", profile.Entity),
		zap.Bool("dry_run", e.dryRun))

	switch profile.Entity {
	case config.EntityOrder:
		err = e.runOrders(ctx, profile, datePolicy, batches)
	case config.EntitySupplier:
		err = e.runSuppliers(ctx, profile, batches)
	case config.EntityCustomer:
		err = e.runCustomers(ctx, profile, batches)
	case config.EntityContact:
		err = e.runContacts(ctx, profile, batches)
	case config.EntityPart:
		err = e.runParts(ctx, profile, batches)
	case config.EntityPartDetails:
		err = e.runPartDetails(ctx, profile, batches)
	case config.EntityContactLink:
		err = e.runContactLinks(ctx, profile, batches)
	default:
		err = fmt.Errorf("no builder for entity %q", profile.Entity)
	}
	if err != nil {
		return nil, err
	}

	if err := e.finish(ctx); err != nil {
		return nil, err
	}
	e.rep.Summary(e.dryRun)
	if !e.rep.Balanced() {
		e.log.Error("run counters do not balance; counts are unreliable",
			zap.String("run_id", e.runID))
	}
	return e.rep, nil
}

// datePolicy builds the profile's date transformation policy.
func (e *Engine) datePolicy(profile *config.Profile) (transform.DatePolicy, error) {
	if profile.Policy.AnchorZone == "" {
		return transform.NaiveDates(), nil
	}
	return transform.AnchoredDates(profile.Policy.AnchorZone)
}

// =============================================================================
// STAGING AND FLUSHING
// =============================================================================

// submit runs the uniqueness probe and the write-mode decision for one
// candidate document, then stages the resulting operation.
func (e *Engine) submit(ctx context.Context, collection, keyField, naturalKey string, doc bson.M, writeMode string) error {
	_, exists, err := e.store.FindID(ctx, collection, keyField, naturalKey)
	if err != nil {
		return err
	}

	switch {
	case exists && writeMode == config.WriteInsertOnly:
		e.skip(collection, naturalKey, DecisionSkipExisting, "canonical document already exists")
		e.rep.SkippedExisting(1)
		return nil

	case exists:
		return e.stage(ctx, collection, keyField, store.WriteOp{
			Kind:       store.OpUpdate,
			NaturalKey: naturalKey,
			Filter:     bson.M{keyField: naturalKey},
			Document:   doc,
		})

	case writeMode == config.WriteUpdateOnly:
		e.skip(collection, naturalKey, DecisionSkipNoMatch, "no existing document to update")
		e.rep.SkippedUnresolved(1)
		return nil

	case writeMode == config.WriteUpsert:
		return e.stage(ctx, collection, keyField, store.WriteOp{
			Kind:       store.OpUpsert,
			NaturalKey: naturalKey,
			Filter:     bson.M{keyField: naturalKey},
			Document:   doc,
		})

	default:
		return e.stage(ctx, collection, keyField, store.WriteOp{
			Kind:       store.OpInsert,
			NaturalKey: naturalKey,
			Document:   doc,
		})
	}
}

// skip logs one skipped candidate with its natural key and reason, so a
// human can re-drive the recovery path afterwards.
func (e *Engine) skip(collection, naturalKey string, decision Decision, reason string) {
	e.log.Warn("candidate skipped",
		zap.String("run_id", e.runID),
		zap.String("collection", collection),
		zap.String("natural_key", naturalKey),
		zap.String("decision", string(decision)),
		zap.String("reason", reason))
}

// stage appends one operation to its collection batch, ensuring the unique
// index first and flushing when the batch reaches capacity.
func (e *Engine) stage(ctx context.Context, collection, keyField string, op store.WriteOp) error {
	if !e.dryRun && !e.indexed[collection] {
		if err := e.store.EnsureUniqueIndex(ctx, collection, keyField); err != nil {
			return err
		}
		e.indexed[collection] = true
	}

	batch, ok := e.batches[collection]
	if !ok {
		batch = &pending{keyField: keyField}
		e.batches[collection] = batch
	}
	batch.ops = append(batch.ops, op)

	if len(batch.ops) >= e.batchSize {
		return e.flush(ctx, collection)
	}
	return nil
}

// flush drains one collection's staged batch.
func (e *Engine) flush(ctx context.Context, collection string) error {
	batch := e.batches[collection]
	if batch == nil || len(batch.ops) == 0 {
		return nil
	}
	ops := batch.ops
	batch.ops = nil

	if e.dryRun {
		for _, op := range ops {
			e.previewOp(collection, op)
		}
		e.rep.Committed(len(ops))
		e.log.Info("dry run: batch not written",
			zap.String("run_id", e.runID),
			zap.String("collection", collection),
			zap.Int("pending", len(ops)))
		return nil
	}

	res, err := e.store.BulkWrite(ctx, collection, ops)
	if err != nil {
		// A transport failure mid-run is surfaced through the counters,
		// not retried; the batches that already flushed stay committed.
		e.log.Error("batch flush failed",
			zap.String("run_id", e.runID),
			zap.String("collection", collection),
			zap.Int("operations", len(ops)),
			zap.Error(err))
		e.rep.Failed(len(ops))
		return nil
	}

	committed := int(res.Committed())
	duplicates := int(res.Duplicates)
	failed := len(ops) - committed - duplicates
	if failed < 0 {
		failed = 0
	}

	e.rep.Committed(committed)
	e.rep.SkippedExisting(duplicates)
	e.rep.Failed(failed)

	e.log.Info("batch flushed",
		zap.String("run_id", e.runID),
		zap.String("collection", collection),
		zap.Int("committed", committed),
		zap.Int("duplicates", duplicates),
		zap.Int("failed", failed))
	return nil
}

// finish flushes every collection with staged operations, in a stable order.
func (e *Engine) finish(ctx context.Context) error {
	collections := make([]string, 0, len(e.batches))
	for name := range e.batches {
		collections = append(collections, name)
	}
	sort.Strings(collections)

	for _, name := range collections {
		if err := e.flush(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// previewOp renders one pending operation for the dry-run preview. A record
// that cannot be rendered degrades only the preview; the decision already
// counted.
func (e *Engine) previewOp(collection string, op store.WriteOp) {
	verb := map[store.OpKind]string{
		store.OpInsert: "insert",
		store.OpUpdate: "update",
		store.OpUpsert: "upsert",
	}[op.Kind]

	rendered, err := bson.MarshalExtJSON(op.Document, false, false)
	if err != nil {
		e.log.Warn("preview unavailable for record",
			zap.String("collection", collection),
			zap.String("natural_key", op.NaturalKey),
			zap.Error(err))
		rendered = []byte("<unrenderable>")
	}
	e.preview = append(e.preview,
		fmt.Sprintf("%s %s [%s] %s", verb, collection, op.NaturalKey, rendered))
}
