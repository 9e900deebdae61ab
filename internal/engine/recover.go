// =============================================================================
// Legacy Mongo Migrator - Warnings-Log Recovery Mode
// =============================================================================
//
// A migration run logs every order line whose part could not be resolved.
// Recovery closes the loop: it re-reads those warnings, looks each missing
// part up in the legacy parts export, and inserts the ones that exist there
// but never made it into the canonical store. Parts already present (a later
// run may have migrated them) are skipped, as are identifiers the legacy
// export itself does not know.
//
// =============================================================================

package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/config"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/legacy"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/report"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/transform"
)

// Recover inserts the parts named in missing that exist in the legacy parts
// batch but not in the canonical store. It returns the run's reporter.
func (e *Engine) Recover(ctx context.Context, missing []string, parts *legacy.Batch) (*report.Reporter, error) {
	e.rep = report.New(e.log, e.runID, "recover-missing-parts", len(missing))

	// Index the legacy export once; the missing list is usually a small
	// fraction of it.
	byItem := make(map[string]legacy.Record, len(parts.Records))
	for _, rec := range parts.Records {
		if item := rec.Str("ITEM", ""); item != "" {
			byItem[item] = rec
		}
	}

	e.log.Info("starting recovery run",
		zap.String("run_id", e.runID),
		zap.Int("missing_parts", len(missing)),
		zap.Bool("dry_run", e.dryRun))

	for _, item := range missing {
		e.rep.Considered()

		if _, exists, err := e.store.FindID(ctx, "parts", "item_number", item); err != nil {
			return nil, err
		} else if exists {
			e.skip("parts", item, DecisionSkipExisting, "part migrated since the warning was logged")
			e.rep.SkippedExisting(1)
			continue
		}

		rec, known := byItem[item]
		if !known {
			e.skip("parts", item, DecisionSkipNoMatch, "part absent from the legacy export")
			e.rep.SkippedUnresolved(1)
			continue
		}

		now := e.now().UTC()
		doc := bson.M{
			"item_number":       item,
			"description":       rec.Str("DESCRIP", ""),
			"suppliers":         []any{},
			"quantity_on_hand":  rec.Float("ONHAND", 0),
			"default_price":     transform.MinorUnits(mustGet(rec, "PRICE")),
			"location":          rec.Str("SEQ", ""),
			"notes":             rec.Str("VPARTNO", ""),
			"alternate_part_id": []any{},
			"createdAt":         now,
			"updatedAt":         now,
		}

		if code := rec.Str("SUPPLIER", ""); code != "" {
			res, found, err := e.resolver.Resolve(ctx, supplierRef, code)
			if err != nil {
				return nil, err
			}
			if found {
				doc["suppliers"] = []any{res.ID}
			}
		}

		if err := e.submit(ctx, "parts", "item_number", item, doc, config.WriteInsertOnly); err != nil {
			return nil, err
		}
	}

	if err := e.finish(ctx); err != nil {
		return nil, err
	}
	e.rep.Summary(e.dryRun)
	return e.rep, nil
}
