// =============================================================================
// Legacy Mongo Migrator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI and the shared
// plumbing every subcommand needs: configuration loading, logger setup, and
// store connection.
//
// COBRA CLI STRUCTURE:
//   rootCmd (migrator)
//   ├── migrateCmd   (migrator migrate)
//   ├── recoverCmd   (migrator recover)
//   ├── fixItemsCmd  (migrator fix-items)
//   ├── validateCmd  (migrator validate)
//   └── versionCmd   (migrator version)
//
// EXIT CODES:
//   0 - run completed; skipped records are reported in the summary, not the
//       exit status
//   1 - fatal error: malformed input, bad configuration, unknown profile
//   2 - document store unreachable
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/config"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/store"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug-level logging regardless of the configured level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "migrator",
	Short: "Legacy Mongo Migrator - Move flat legacy exports into a normalized document store",
	Long: `Legacy Mongo Migrator ingests flat record batches exported from a legacy
inventory system (JSON or XLSX) and migrates them into normalized MongoDB
collections: suppliers, customers, contacts, parts, and sales orders.

Runs are idempotent: a unique index on each collection's natural key plus a
per-record uniqueness probe make reruns converge instead of duplicating
documents. Every run ends with a balanced summary of what was committed,
skipped, and failed.

Example Usage:
  migrator migrate --profile orders --batch invoices=./export/invoices.json
  migrator migrate --profile parts --batch parts=./export/parts.xlsx --dry-run
  migrator recover --warnings ./logs/run.log --parts ./export/parts.json
  migrator validate`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and maps errors to the documented exit
// codes. Called once from main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, store.ErrUnavailable) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// =============================================================================
// SHARED PLUMBING
// =============================================================================

// loadMainConfig reads the main configuration honoring the --config flag.
func loadMainConfig() (*config.MainConfig, error) {
	return config.LoadMainConfig(cfgFile)
}

// loadProfileByName loads the profiles directory and selects one profile.
func loadProfileByName(dir, name string) (*config.Profile, error) {
	profiles, err := config.LoadProfiles(dir)
	if err != nil {
		return nil, err
	}
	profile, ok := profiles[name]
	if !ok {
		names := make([]string, 0, len(profiles))
		for n := range profiles {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown profile %q, available: %s", name, strings.Join(names, ", "))
	}
	return profile, nil
}

// newLogger builds the production logger at the configured level. --verbose
// wins over the config file.
func newLogger(cfg *config.MainConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapCfg.Build()
}

// connectStore dials the target store described by the configuration.
func connectStore(ctx context.Context, cfg *config.MainConfig, log *zap.Logger) (*store.Mongo, error) {
	return store.Connect(ctx, cfg.MongoURI, cfg.DatabaseName, log)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
