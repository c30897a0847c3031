package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInitAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Init(dir, "demo")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if cfg.Vault.Name != "demo" {
		t.Errorf("Vault.Name = %q", cfg.Vault.Name)
	}
	if cfg.Extension != DefaultExtension || cfg.MetadataDelimiter != DefaultDelimiter {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.UndoLimit != DefaultUndoLimit {
		t.Errorf("UndoLimit = %d", cfg.UndoLimit)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Vault.Name != "demo" || loaded.Version != CurrentVersion {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Dir() != cfg.Dir() {
		t.Errorf("Dir = %q, want %q", loaded.Dir(), cfg.Dir())
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte("version: [not\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return NewDefault("demo") }

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default is valid", func(*Config) {}, true},
		{"wrong version", func(c *Config) { c.Version = 99 }, false},
		{"missing name", func(c *Config) { c.Vault.Name = "" }, false},
		{"extension without dot", func(c *Config) { c.Extension = "md" }, false},
		{"empty delimiter", func(c *Config) { c.MetadataDelimiter = "" }, false},
		{"duplicate stages", func(c *Config) { c.CustomStages = []string{"Review", "Review"} }, false},
		{"blank stage", func(c *Config) { c.CustomStages = []string{"  "} }, false},
		{"custom stages ok", func(c *Config) { c.CustomStages = []string{"Review", "Blocked"} }, true},
		{"default priority ok", func(c *Config) { c.DefaultPriority = "medium" }, true},
		{"unknown priority", func(c *Config) { c.DefaultPriority = "urgent" }, false},
		{"zero undo limit", func(c *Config) { c.UndoLimit = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("err = %v, want ErrInvalid", err)
				}
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Init(dir, "demo")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Extension = "md"
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestFindDirWalksUp(t *testing.T) {
	root := t.TempDir()
	if _, err := Init(root, "demo"); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "work", "reports")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}

	found, err := FindDir(nested)
	if err != nil {
		t.Fatalf("FindDir: %v", err)
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}
	resolvedFound, err := filepath.EvalSymlinks(found)
	if err != nil {
		t.Fatal(err)
	}
	if resolvedFound != resolvedRoot {
		t.Errorf("FindDir = %q, want %q", found, root)
	}
}

func TestFindDirNotFound(t *testing.T) {
	if _, err := FindDir(t.TempDir()); err == nil {
		t.Error("FindDir found a vault in an empty tree")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Init(dir, "demo")
	if err != nil {
		t.Fatal(err)
	}

	cfg.ExcludedFolders = []string{"archive"}
	cfg.ExcludedPatterns = []string{"*.draft.md"}
	cfg.CustomStages = []string{"Review"}
	cfg.DefaultPriority = "high"
	cfg.UndoLimit = 5
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.ExcludedFolders) != 1 || loaded.ExcludedFolders[0] != "archive" {
		t.Errorf("ExcludedFolders = %v", loaded.ExcludedFolders)
	}
	if len(loaded.CustomStages) != 1 || loaded.CustomStages[0] != "Review" {
		t.Errorf("CustomStages = %v", loaded.CustomStages)
	}
	if loaded.DefaultPriority != "high" || loaded.UndoLimit != 5 {
		t.Errorf("loaded = %+v", loaded)
	}
}
