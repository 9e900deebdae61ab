// =============================================================================
// Legacy Mongo Migrator - Recover Command
// =============================================================================
//
// This file defines the 'recover' command, which replays the "Part ... not
// found" warnings of an earlier migration run against the legacy parts
// export and inserts the parts that are still missing from the store.
//
// COMMAND USAGE:
//   migrator recover --warnings <log-file> --parts <parts-export> [flags]
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

// warningsPath is the log file of a previous run to scan for missing parts.
var warningsPath string

// partsPath is the legacy parts export to recover definitions from.
var partsPath string

// recoverDryRun decides everything but writes nothing.
var recoverDryRun bool

// =============================================================================
// RECOVER COMMAND DEFINITION
// =============================================================================

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Insert parts reported missing by an earlier migration run",
	Long: `The recover command scans a previous run's log for part-not-found
warnings, looks each missing part up in the legacy parts export, and inserts
the ones the store still lacks. Parts migrated since the warning was logged
are skipped, as are identifiers the export itself does not know.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecover()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().StringVar(&warningsPath, "warnings", "", "Log file of a previous run (required)")
	recoverCmd.MarkFlagRequired("warnings")

	recoverCmd.Flags().StringVar(&partsPath, "parts", "", "Legacy parts export, JSON or XLSX (required)")
	recoverCmd.MarkFlagRequired("parts")

	recoverCmd.Flags().BoolVar(&recoverDryRun, "dry-run", false, "Decide everything, write nothing")
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runRecover() error {
	cfg, err := loadMainConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	missing, err := legacy.ReadMissingParts(warningsPath)
	if err != nil {
		return err
	}
	parts, err := legacy.ReadBatch(partsPath)
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
		DryRun:    recoverDryRun,
	})
	_, err = eng.Recover(ctx, missing, parts)
	return err
}
