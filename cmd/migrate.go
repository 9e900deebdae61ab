// =============================================================================
// Legacy Mongo Migrator - Migrate Command
// =============================================================================
//
// This file defines the 'migrate' command, the main entry point for moving
// one legacy export into the document store.
//
// COMMAND USAGE:
//   migrator migrate --profile <name> --batch <role>=<file> [flags]
//
// A profile names the entity to migrate and the input roles it requires; the
// --batch flag binds each role to a concrete export file. The orders profile,
// for example, requires the "invoices" role and optionally "order-lines" for
// cross-referenced order dates:
//
//   migrator migrate --profile orders \
//       --batch invoices=./export/invoices.json \
//       --batch order-lines=./export/so_lines.xlsx
//
// PIPELINE:
//   1. Load configuration and the named profile
//   2. Read and validate each input batch (JSON or XLSX)
//   3. Connect to the document store
//   4. Run the reconciliation engine (group, resolve, normalize, decide)
//   5. Flush staged writes in bounded batches
//   6. Dry run: write the operation preview; real run: archive the inputs
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/engine"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/legacy"
	"github.com/ginjaninja78/legacy-mongo-migrator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// profileName selects the migration profile to run.
var profileName string

// batchArgs binds input roles to files, one "role=path" pair per flag.
var batchArgs []string

// mongoURI, databaseName, and batchSize override the configured values when
// set.
var (
	mongoURI     string
	databaseName string
	batchSize    int
)

// dryRun decides everything but writes nothing.
var dryRun bool

// =============================================================================
// MIGRATE COMMAND DEFINITION
// =============================================================================

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate one legacy export batch into the document store",
	Long: `The migrate command runs one migration profile against its input batches.

Reruns are safe: existing documents are recognized by their natural key and
skipped or updated according to the profile's write mode, never duplicated.

With --dry-run the engine makes every decision a real run would make and
reports identical counts, but writes nothing; the pending operations are
saved as a preview file in the output directory instead.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&profileName, "profile", "", "Migration profile to run (required)")
	migrateCmd.MarkFlagRequired("profile")

	migrateCmd.Flags().StringArrayVar(&batchArgs, "batch", nil,
		"Input batch as role=path; repeat for multi-input profiles (required)")
	migrateCmd.MarkFlagRequired("batch")

	migrateCmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "Override the configured store URI")
	migrateCmd.Flags().StringVar(&databaseName, "database", "", "Override the configured database name")
	migrateCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Override the configured flush batch size")
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Decide everything, write nothing")
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runMigrate() error {
	cfg, err := loadMainConfig()
	if err != nil {
		return err
	}
	if mongoURI != "" {
		cfg.MongoURI = mongoURI
	}
	if databaseName != "" {
		cfg.DatabaseName = databaseName
	}
	if batchSize > 0 {
		cfg.BatchSize = batchSize
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	profile, err := loadProfileByName(cfg.ProfilesDir, profileName)
	if err != nil {
		return err
	}

	batches, paths, err := readBatchFlags(batchArgs)
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
		DryRun:    dryRun,
	})
	if _, err := eng.Run(ctx, profile, batches); err != nil {
		return err
	}

	if dryRun {
		path, err := utils.WritePreviewLog(eng.PreviewLines(), cfg.OutputDir, eng.RunID())
		if err != nil {
			return err
		}
		log.Info("dry run preview written", zap.String("path", path))
		return nil
	}

	if cfg.ArchiveInputs {
		for _, path := range paths {
			archived, err := utils.ArchiveInputFile(path, cfg.InputArchiveDir)
			if err != nil {
				return err
			}
			log.Info("input batch archived",
				zap.String("from", path),
				zap.String("to", archived))
		}
	}
	return nil
}

// readBatchFlags parses the repeated role=path bindings and reads each file.
func readBatchFlags(args []string) (map[string]*legacy.Batch, []string, error) {
	batches := make(map[string]*legacy.Batch, len(args))
	var paths []string

	for _, arg := range args {
		role, path, ok := strings.Cut(arg, "=")
		if !ok || role == "" || path == "" {
			return nil, nil, fmt.Errorf("invalid --batch %q, expected role=path", arg)
		}
		if _, dup := batches[role]; dup {
			return nil, nil, fmt.Errorf("input role %q bound twice", role)
		}
		if !utils.FileExists(path) {
			return nil, nil, fmt.Errorf("batch file for role %q does not exist: %s", role, path)
		}
		batch, err := legacy.ReadBatch(path)
		if err != nil {
			return nil, nil, err
		}
		batches[role] = batch
		paths = append(paths, path)
	}
	return batches, paths, nil
}
