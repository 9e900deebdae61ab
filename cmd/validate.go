// =============================================================================
// Legacy Mongo Migrator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the main
// configuration and every migration profile without touching the store.
//
// COMMAND USAGE:
//   migrator validate
//
// =============================================================================

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and migration profiles",
	Long: `The validate command loads the main configuration file and every profile
in the profiles directory, reporting what a migrate run would see. It never
connects to the document store, so it is safe to run anywhere.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate() error {
	cfg, err := loadMainConfig()
	if err != nil {
		return err
	}
	fmt.Println("Configuration OK")
	fmt.Printf("  Store:      %s / %s\n", cfg.MongoURI, cfg.DatabaseName)
	fmt.Printf("  Batch size: %d\n", cfg.BatchSize)
	fmt.Printf("  Profiles:   %s\n", cfg.ProfilesDir)

	profiles, err := config.LoadProfiles(cfg.ProfilesDir)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles found in %s", cfg.ProfilesDir)
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("\n%d profile(s) OK\n", len(profiles))
	for _, name := range names {
		p := profiles[name]
		fmt.Printf("  %-14s entity=%-12s collection=%-10s key=%-16s mode=%s\n",
			p.Name, p.Entity, p.Collection, p.NaturalKey, p.WriteMode)
	}
	return nil
}
