// Package output renders extraction results as JSON, YAML or readable text.
package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatJSON is the default machine-readable JSON output
	FormatJSON Format = "json"

	// FormatYAML is the YAML output format
	FormatYAML Format = "yaml"

	// FormatText is a compact human-readable listing
	FormatText Format = "text"
)

// ParseFormat parses a format string into a Format value.
// Accepts: "json", "yaml", "text" (case-insensitive)
// Returns an error for invalid format values.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml":
		return FormatYAML, nil
	case "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected json, yaml, or text)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}
