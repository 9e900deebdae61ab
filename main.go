// =============================================================================
// Legacy Mongo Migrator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Legacy Mongo Migrator CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   migrator migrate    - Migrate one legacy export batch into the store
//   migrator recover    - Insert parts reported missing by an earlier run
//   migrator fix-items  - Repair item numbers damaged by float-typed exports
//   migrator validate   - Validate configuration and profiles
//   migrator version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core migration logic (not for external import)
//   - pkg/       : Shared utilities
//   - profiles/  : Migration profile YAMLs, one per entity variant
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/legacy-mongo-migrator/cmd"
)

func main() {
	cmd.Execute()
}
