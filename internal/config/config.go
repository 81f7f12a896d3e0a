package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the doclens configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the doclens configuration directory
const ConfigDirName = ".doclens"

// Config holds all doclens configuration
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
	Store  StoreConfig  `yaml:"store"`
}

// ScanConfig holds configuration for source scanning
type ScanConfig struct {
	// Extensions lists the file extensions treated as C++ sources.
	Extensions []string `yaml:"extensions"`
	// Exclude lists glob patterns skipped during directory walks.
	Exclude []string `yaml:"exclude"`
	// IncludeDeclarations emits function prototypes at namespace scope.
	IncludeDeclarations bool `yaml:"include_declarations"`
	// Jobs caps the number of files extracted concurrently. Zero means
	// one worker per CPU.
	Jobs int `yaml:"jobs"`
}

// OutputConfig holds configuration for result rendering
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Pretty        bool   `yaml:"pretty"`
}

// StoreConfig holds configuration for the local entity index
type StoreConfig struct {
	// Path is the database file, relative paths resolve against the
	// config directory.
	Path string `yaml:"path"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .doclens/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .doclens directory by walking up from startDir.
// Returns the path to the .doclens directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .doclens directory if it doesn't exist.
// Returns the path to the .doclens directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if !IsValidFormat(cfg.Output.DefaultFormat) {
		return fmt.Errorf("%w: default_format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Output.DefaultFormat)
	}

	if len(cfg.Scan.Extensions) == 0 {
		return fmt.Errorf("%w: scan.extensions must not be empty", ErrInvalidConfig)
	}
	for _, ext := range cfg.Scan.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("%w: extension %q must start with a dot",
				ErrInvalidConfig, ext)
		}
	}

	if cfg.Scan.Jobs < 0 {
		return fmt.Errorf("%w: scan.jobs must be non-negative, got %d",
			ErrInvalidConfig, cfg.Scan.Jobs)
	}

	if cfg.Store.Path == "" {
		return fmt.Errorf("%w: store.path must not be empty", ErrInvalidConfig)
	}

	return nil
}

// SaveDefault writes the default configuration to .doclens/config.yaml in
// workDir. Creates the .doclens directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# doclens configuration\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
