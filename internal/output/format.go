// Package output routes rendered text to its destinations and writes the
// run manifest.
package output

import (
	"fmt"
	"strings"
)

// Format represents the manifest format.
type Format string

const (
	// FormatYAML is the default manifest format
	FormatYAML Format = "yaml"

	// FormatJSON is the JSON manifest format
	FormatJSON Format = "json"
)

// ParseFormat parses a format string into a Format value.
// Accepts: "yaml", "json" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected yaml or json)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}
