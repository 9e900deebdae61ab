// =============================================================================
// Legacy Mongo Migrator - Item Number Repair Mode
// =============================================================================
//
// Some parts were migrated with a trailing ".0" baked into their item number
// (a float-typed export column leaking into a text key). This mode walks the
// old export for such identifiers and rewrites each canonical document to the
// identifier the current export actually uses: the stripped form, or the
// stripped form with a restored leading zero.
//
// A renamed identifier that already matches the new export exactly needs no
// repair; one that matches neither form is left alone and reported, since an
// automatic guess would corrupt the key. Repairs are probed against the
// store before staging, so a rerun after a successful repair converges to
// skips instead of staging updates that can no longer match.
//
// =============================================================================

package engine

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/legacy"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/report"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/store"
)

// FixItems renames canonical part identifiers that carry a legacy ".0"
// suffix, matching them against the current export. It returns the run's
// reporter.
func (e *Engine) FixItems(ctx context.Context, oldBatch, newBatch *legacy.Batch) (*report.Reporter, error) {
	// Identifiers the current export knows, raw and with the suffix
	// stripped.
	newRaw := make(map[string]bool, len(newBatch.Records))
	newStripped := make(map[string]bool, len(newBatch.Records))
	for _, rec := range newBatch.Records {
		item := rec.Str("ITEM", "")
		if item == "" {
			continue
		}
		newRaw[item] = true
		newStripped[strings.TrimSuffix(item, ".0")] = true
	}

	// Only suffixed identifiers from the old export are candidates.
	var units []string
	for _, rec := range oldBatch.Records {
		if item := rec.Str("ITEM", ""); strings.HasSuffix(item, ".0") {
			units = append(units, item)
		}
	}

	e.rep = report.New(e.log, e.runID, "fix-item-numbers", len(units))
	e.log.Info("starting item number repair",
		zap.String("run_id", e.runID),
		zap.Int("suffixed_items", len(units)),
		zap.Bool("dry_run", e.dryRun))

	for _, raw := range units {
		e.rep.Considered()

		if newRaw[raw] {
			e.skip("parts", raw, DecisionSkipExisting, "current export still uses this identifier")
			e.rep.SkippedExisting(1)
			continue
		}

		stripped := strings.TrimSuffix(raw, ".0")
		var renamed string
		switch {
		case newRaw[stripped] || newStripped[stripped]:
			renamed = stripped
		case newRaw["0"+stripped] || newStripped["0"+stripped]:
			renamed = "0" + stripped
		default:
			e.skip("parts", raw, DecisionSkipNoMatch, "no matching identifier in the current export")
			e.rep.SkippedUnresolved(1)
			continue
		}

		// Uniqueness probe before staging: once a repair has been applied
		// the old identifier matches nothing, and an unprobed update would
		// flush as a spurious failure on rerun.
		_, exists, err := e.store.FindID(ctx, "parts", "item_number", raw)
		if err != nil {
			return nil, err
		}
		if !exists {
			_, renamedExists, err := e.store.FindID(ctx, "parts", "item_number", renamed)
			if err != nil {
				return nil, err
			}
			if renamedExists {
				e.skip("parts", raw, DecisionSkipExisting, "identifier already renamed")
				e.rep.SkippedExisting(1)
			} else {
				e.skip("parts", raw, DecisionSkipNoMatch, "no canonical document carries this identifier")
				e.rep.SkippedUnresolved(1)
			}
			continue
		}

		op := store.WriteOp{
			Kind:       store.OpUpdate,
			NaturalKey: raw,
			Filter:     bson.M{"item_number": raw},
			Document:   bson.M{"item_number": renamed},
		}
		if err := e.stage(ctx, "parts", "item_number", op); err != nil {
			return nil, err
		}
	}

	if err := e.finish(ctx); err != nil {
		return nil, err
	}
	e.rep.Summary(e.dryRun)
	return e.rep, nil
}
