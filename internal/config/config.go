package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/taskvault/internal/clierr"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("no vault config found (run 'taskvault init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents a vault's task-engine configuration.
type Config struct {
	Version           int      `yaml:"version"`
	Vault             Vault    `yaml:"vault"`
	Extension         string   `yaml:"extension"`
	ExcludedFolders   []string `yaml:"excluded_folders,omitempty"`
	ExcludedPatterns  []string `yaml:"excluded_patterns,omitempty"`
	CustomStages      []string `yaml:"custom_stages,omitempty"`
	MetadataDelimiter string   `yaml:"metadata_delimiter"`
	DefaultPriority   string   `yaml:"default_priority,omitempty"`
	UndoLimit         int      `yaml:"undo_limit"`

	// dir is the absolute path to the vault directory (not serialized).
	dir string `yaml:"-"`
}

// Vault holds vault metadata.
type Vault struct {
	Name string `yaml:"name"`
}

// Dir returns the absolute path to the vault directory.
func (c *Config) Dir() string {
	return c.dir
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// NewDefault creates a Config with default values.
func NewDefault(name string) *Config {
	return &Config{
		Version:           CurrentVersion,
		Vault:             Vault{Name: name},
		Extension:         DefaultExtension,
		MetadataDelimiter: DefaultDelimiter,
		UndoLimit:         DefaultUndoLimit,
	}
}

// SetDir sets the vault directory path on the config.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Vault.Name == "" {
		return fmt.Errorf("%w: vault.name is required", ErrInvalid)
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("%w: extension must start with a dot", ErrInvalid)
	}
	if c.MetadataDelimiter == "" {
		return fmt.Errorf("%w: metadata_delimiter is required", ErrInvalid)
	}
	if hasDuplicates(c.CustomStages) {
		return fmt.Errorf("%w: custom_stages contain duplicates", ErrInvalid)
	}
	for _, s := range c.CustomStages {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: custom stage name is required", ErrInvalid)
		}
	}
	if c.DefaultPriority != "" && !contains(DefaultPriorities, c.DefaultPriority) {
		return fmt.Errorf("%w: default_priority %q not in %v", ErrInvalid, c.DefaultPriority, DefaultPriorities)
	}
	if c.UndoLimit < 1 {
		return fmt.Errorf("%w: undo_limit must be >= 1", ErrInvalid)
	}
	return nil
}

// Init creates a new vault config in the given directory.
func Init(dir, name string) (*Config, error) {
	const dirMode = 0o750

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault(name)
	cfg.SetDir(absDir)

	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return nil, fmt.Errorf("creating vault directory: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to its config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads and validates a config from the given vault directory.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.dir = absDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FindDir walks upward from startDir looking for a directory containing
// the vault config file. Returns the absolute path to the vault directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", clierr.New(clierr.VaultNotFound,
				"no vault found (run 'taskvault init' to create one)")
		}
		dir = parent
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func hasDuplicates(slice []string) bool {
	seen := make(map[string]bool, len(slice))
	for _, s := range slice {
		if seen[s] {
			return true
		}
		seen[s] = true
	}
	return false
}
