// =============================================================================
// Legacy Mongo Migrator - Configuration Module
// =============================================================================
//
// This module loads and validates the two configuration layers:
//
//   1. Main Config (config.yaml): store address, batch sizing, directories.
//   2. Migration Profiles (profiles/*.yaml): one per migration variant.
//
// The profiles are the heart of the design. The legacy tooling this replaces
// was six near-duplicate scripts differing only in address handling, date
// timezone policy, status defaults, paid-flag defaults, and write mode. Here
// that variance is data: one engine, parameterized by the profile's policy
// record. Adding a variant means adding a YAML file, not forking the
// pipeline.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// MongoURI is the connection string for the target document store.
	// Default: "mongodb://localhost:27017"
	MongoURI string `yaml:"mongo_uri"`

	// DatabaseName is the target database.
	// Default: "migrationtest"
	DatabaseName string `yaml:"database_name"`

	// BatchSize is the flush granularity for staged writes.
	// Default: 1000
	BatchSize int `yaml:"batch_size"`

	// ProfilesDir is the directory containing migration profile YAMLs.
	// Default: "./profiles"
	ProfilesDir string `yaml:"profiles_dir"`

	// InputArchiveDir is where successfully processed batch files are moved
	// when ArchiveInputs is set. Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ArchiveInputs moves batch files to InputArchiveDir after a successful
	// real (non-dry-run) run. Default: false
	ArchiveInputs bool `yaml:"archive_inputs"`

	// OutputDir receives dry-run preview files. Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// LoadMainConfig reads the main configuration file. A missing file is not an
// error: the defaults describe a local store and relative directories, which
// is the common operator setup.
func LoadMainConfig(path string) (*MainConfig, error) {
	config := &MainConfig{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyMainDefaults(config)
	if err := validateMainConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyMainDefaults fills unset fields with their documented defaults.
func applyMainDefaults(config *MainConfig) {
	if config.MongoURI == "" {
		config.MongoURI = "mongodb://localhost:27017"
	}
	if config.DatabaseName == "" {
		config.DatabaseName = "migrationtest"
	}
	if config.BatchSize == 0 {
		config.BatchSize = 1000
	}
	if config.ProfilesDir == "" {
		config.ProfilesDir = "./profiles"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// validateMainConfig rejects values that would misbehave mid-run.
func validateMainConfig(config *MainConfig) error {
	if config.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", config.BatchSize)
	}
	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", config.LogLevel)
	}
	return nil
}

// =============================================================================
// MIGRATION PROFILES
// =============================================================================

// Entities a profile can migrate.
const (
	EntitySupplier    = "supplier"
	EntityCustomer    = "customer"
	EntityContact     = "contact"
	EntityPart        = "part"
	EntityOrder       = "order"
	EntityPartDetails = "part-details"
	EntityContactLink = "contact-link"
)

// Write modes.
const (
	// WriteInsertOnly creates documents and never touches existing ones.
	WriteInsertOnly = "insert-only"

	// WriteUpsert updates existing documents and creates missing ones.
	WriteUpsert = "upsert"

	// WriteUpdateOnly updates existing documents and skips missing ones.
	WriteUpdateOnly = "update-only"
)

// Policy is the per-profile variance record. Every behavioral difference
// between the legacy script variants lives here.
type Policy struct {
	// AnchorZone, when set, anchors calendar dates at local noon in this
	// zone before converting to UTC. Empty means naive date parsing.
	AnchorZone string `yaml:"anchor_zone"`

	// DefaultStatus is the status assigned to migrated order documents.
	DefaultStatus string `yaml:"default_status"`

	// DefaultPaid is the paid flag assigned to migrated freight methods.
	DefaultPaid bool `yaml:"default_paid"`

	// AttachShippingAddress controls whether customer documents carry a
	// shipping address sub-document copied from the billing address.
	AttachShippingAddress bool `yaml:"attach_shipping_address"`

	// Terms is the default payment terms value.
	Terms string `yaml:"terms"`

	// AccountType and AccountNumber populate the freight method of
	// migrated orders.
	AccountType   string `yaml:"account_type"`
	AccountNumber string `yaml:"account_number"`

	// SalesPersonID is the canonical user identifier assigned as the sales
	// person on migrated orders.
	SalesPersonID string `yaml:"sales_person_id"`
}

// Profile describes one migration variant.
type Profile struct {
	// Name identifies the profile; defaults to the file name without
	// extension.
	Name string `yaml:"name"`

	// Entity selects the document builder.
	Entity string `yaml:"entity"`

	// Collection is the target collection.
	Collection string `yaml:"collection"`

	// NaturalKey is the canonical field carrying the uniqueness
	// constraint, e.g. "order_number".
	NaturalKey string `yaml:"natural_key"`

	// Inputs lists the batch roles this profile requires, e.g.
	// ["invoices", "order-lines"]. The migrate command maps each role to a
	// file via --batch role=path.
	Inputs []string `yaml:"inputs"`

	// WriteMode is one of insert-only, upsert, update-only.
	WriteMode string `yaml:"write_mode"`

	// Policy holds the variant knobs.
	Policy Policy `yaml:"policy"`
}

var (
	validEntities = map[string]bool{
		EntitySupplier:    true,
		EntityCustomer:    true,
		EntityContact:     true,
		EntityPart:        true,
		EntityOrder:       true,
		EntityPartDetails: true,
		EntityContactLink: true,
	}
	validWriteModes = map[string]bool{
		WriteInsertOnly: true,
		WriteUpsert:     true,
		WriteUpdateOnly: true,
	}
)

// LoadProfiles reads every YAML file in the profiles directory.
func LoadProfiles(dir string) (map[string]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory %s: %w", dir, err)
	}

	profiles := make(map[string]*Profile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		profile, err := LoadProfile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := profiles[profile.Name]; dup {
			return nil, fmt.Errorf("duplicate profile name %q", profile.Name)
		}
		profiles[profile.Name] = profile
	}
	return profiles, nil
}

// LoadProfile reads and validates a single profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	profile := &Profile{}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	applyProfileDefaults(profile)

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return profile, nil
}

// applyProfileDefaults fills profile fields that have sensible defaults.
func applyProfileDefaults(profile *Profile) {
	if profile.WriteMode == "" {
		profile.WriteMode = WriteInsertOnly
	}
	if profile.Policy.Terms == "" {
		profile.Policy.Terms = "Net 30"
	}
	if profile.Policy.DefaultStatus == "" && profile.Entity == EntityOrder {
		profile.Policy.DefaultStatus = "Completed"
	}
}

// Validate rejects profiles the engine cannot run.
func (p *Profile) Validate() error {
	if !validEntities[p.Entity] {
		return fmt.Errorf("unknown entity %q", p.Entity)
	}
	if !validWriteModes[p.WriteMode] {
		return fmt.Errorf("unknown write_mode %q", p.WriteMode)
	}
	if p.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if p.NaturalKey == "" {
		return fmt.Errorf("natural_key is required")
	}
	if len(p.Inputs) == 0 {
		return fmt.Errorf("at least one input role is required")
	}
	return nil
}
