package config

import "github.com/doclens/doclens/internal/parser"

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Extensions: parser.SourceExtensions,
			Exclude: []string{
				"third_party/**",
				"build/**",
				"out/**",
				"**/*_test.cc",
				"**/testdata/**",
			},
			IncludeDeclarations: true,
			Jobs:                0,
		},
		Output: OutputConfig{
			DefaultFormat: "json",
			Pretty:        true,
		},
		Store: StoreConfig{
			Path: "doclens.db",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Scan = mergeScanConfig(loaded.Scan, defaults.Scan)
	result.Output = mergeOutputConfig(loaded.Output, defaults.Output)
	result.Store = mergeStoreConfig(loaded.Store, defaults.Store)

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := ScanConfig{}

	if len(loaded.Extensions) > 0 {
		result.Extensions = loaded.Extensions
	} else {
		result.Extensions = defaults.Extensions
	}

	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	} else {
		result.Exclude = defaults.Exclude
	}

	// IncludeDeclarations: YAML unmarshals a missing bool as false, so a
	// false here cannot be told apart from unset; the default wins and
	// opting out goes through the CLI flag.
	result.IncludeDeclarations = loaded.IncludeDeclarations
	if !loaded.IncludeDeclarations && defaults.IncludeDeclarations {
		result.IncludeDeclarations = defaults.IncludeDeclarations
	}

	if loaded.Jobs != 0 {
		result.Jobs = loaded.Jobs
	} else {
		result.Jobs = defaults.Jobs
	}

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := OutputConfig{}

	if loaded.DefaultFormat != "" {
		result.DefaultFormat = loaded.DefaultFormat
	} else {
		result.DefaultFormat = defaults.DefaultFormat
	}

	// Pretty: same bool handling as IncludeDeclarations
	result.Pretty = loaded.Pretty
	if !loaded.Pretty && defaults.Pretty {
		result.Pretty = defaults.Pretty
	}

	return result
}

func mergeStoreConfig(loaded, defaults StoreConfig) StoreConfig {
	result := StoreConfig{}

	if loaded.Path != "" {
		result.Path = loaded.Path
	} else {
		result.Path = defaults.Path
	}

	return result
}

// ValidFormats lists the valid values for output format
var ValidFormats = []string{"json", "yaml", "text"}

// IsValidFormat checks if the given format value is valid
func IsValidFormat(format string) bool {
	for _, valid := range ValidFormats {
		if format == valid {
			return true
		}
	}
	return false
}
