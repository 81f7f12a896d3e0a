package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Scan.Extensions) == 0 {
		t.Error("default extensions empty")
	}
	if !cfg.Scan.IncludeDeclarations {
		t.Error("declarations not included by default")
	}
	if cfg.Output.DefaultFormat != "json" {
		t.Errorf("default format = %q, want json", cfg.Output.DefaultFormat)
	}
	if cfg.Store.Path == "" {
		t.Error("default store path empty")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.DefaultFormat != DefaultConfig().Output.DefaultFormat {
		t.Errorf("missing config did not fall back to defaults: %+v", cfg)
	}
}

func TestLoadFromPathMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := `
scan:
  extensions: [".h", ".cc"]
output:
  default_format: yaml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if len(cfg.Scan.Extensions) != 2 {
		t.Errorf("extensions = %v, want the loaded pair", cfg.Scan.Extensions)
	}
	if cfg.Output.DefaultFormat != "yaml" {
		t.Errorf("format = %q, want yaml", cfg.Output.DefaultFormat)
	}
	// Unset fields take defaults.
	if len(cfg.Scan.Exclude) == 0 {
		t.Error("exclude patterns not merged from defaults")
	}
	if cfg.Store.Path != DefaultConfig().Store.Path {
		t.Errorf("store path = %q, want default", cfg.Store.Path)
	}
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := `
output:
  default_format: csv
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromPath(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateExtensions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.Extensions = []string{"h"}
	if err := Validate(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("dotless extension accepted: %v", err)
	}

	cfg.Scan.Extensions = nil
	if err := Validate(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty extensions accepted: %v", err)
	}
}

func TestFindConfigDirWalksUp(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, ConfigDirName)
	if err := os.Mkdir(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfigDir(nested)
	if err != nil {
		t.Fatalf("FindConfigDir: %v", err)
	}
	if found != configDir {
		t.Errorf("found = %q, want %q", found, configDir)
	}
}

func TestFindConfigDirNotFound(t *testing.T) {
	_, err := FindConfigDir(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureConfigDir(root)
	if err != nil {
		t.Fatalf("EnsureConfigDir: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("config dir not created: %v", err)
	}

	// Idempotent.
	again, err := EnsureConfigDir(root)
	if err != nil || again != dir {
		t.Errorf("second call = %q, %v", again, err)
	}
}

func TestSaveDefault(t *testing.T) {
	root := t.TempDir()

	path, err := SaveDefault(root)
	if err != nil {
		t.Fatalf("SaveDefault: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("saved config invalid: %v", err)
	}

	// Refuses to overwrite.
	if _, err := SaveDefault(root); err == nil {
		t.Error("SaveDefault overwrote existing config")
	}
}
