// =============================================================================
// Legacy Mongo Migrator - Fix Items Command
// =============================================================================
//
// This file defines the 'fix-items' command, which repairs part identifiers
// that were migrated with a trailing ".0" suffix. The old export names the
// damaged identifiers; the new export supplies the forms they should take.
//
// COMMAND USAGE:
//   migrator fix-items --old <old-export> --new <new-export> [flags]
//
// =============================================================================

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/engine"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/legacy"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// oldExportPath is the export containing the suffixed identifiers.
var oldExportPath string

// newExportPath is the export with the corrected identifiers.
var newExportPath string

// fixItemsDryRun decides everything but writes nothing.
var fixItemsDryRun bool

// =============================================================================
// FIX ITEMS COMMAND DEFINITION
// =============================================================================

var fixItemsCmd = &cobra.Command{
	Use:   "fix-items",
	Short: "Rename part identifiers that carry a legacy \".0\" suffix",
	Long: `The fix-items command compares the old and new legacy part exports and
renames canonical documents whose item number still carries a float-export
".0" suffix. A suffixed identifier renames to the form the new export uses:
the stripped value, or the stripped value with a restored leading zero.
Identifiers matching neither form are reported and left untouched.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runFixItems()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(fixItemsCmd)

	fixItemsCmd.Flags().StringVar(&oldExportPath, "old", "", "Old parts export, JSON or XLSX (required)")
	fixItemsCmd.MarkFlagRequired("old")

	fixItemsCmd.Flags().StringVar(&newExportPath, "new", "", "New parts export, JSON or XLSX (required)")
	fixItemsCmd.MarkFlagRequired("new")

	fixItemsCmd.Flags().BoolVar(&fixItemsDryRun, "dry-run", false, "Decide everything, write nothing")
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runFixItems() error {
	cfg, err := loadMainConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	oldBatch, err := legacy.ReadBatch(oldExportPath)
	if err != nil {
		return err
	}
	newBatch, err := legacy.ReadBatch(newExportPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := connectStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	eng := engine.New(engine.Options{
		Store:     st,
		Log:       log,
		BatchSize: cfg.BatchSize,
		DryRun:    fixItemsDryRun,
	})
	_, err = eng.FixItems(ctx, oldBatch, newBatch)
	return err
}
