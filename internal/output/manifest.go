package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Manifest describes one extraction run.
type Manifest struct {
	// Tool is the program name and version that produced the run.
	Tool string `yaml:"tool" json:"tool"`

	// GeneratedAt is the run start time in RFC 3339.
	GeneratedAt string `yaml:"generated_at" json:"generated_at"`

	// Settings echoes the settings that influence output.
	Settings ManifestSettings `yaml:"settings" json:"settings"`

	// Headers holds one report per processed header, in processing order.
	Headers []*HeaderReport `yaml:"headers" json:"headers"`

	// Totals sums the per-header counters.
	Totals Totals `yaml:"totals" json:"totals"`
}

// ManifestSettings are the effective settings of a run.
type ManifestSettings struct {
	Language          string   `yaml:"language" json:"language"`
	ConstantsPattern  string   `yaml:"constants_pattern" json:"constants_pattern"`
	FunctionsPattern  string   `yaml:"functions_pattern" json:"functions_pattern"`
	Defines           []string `yaml:"defines,omitempty" json:"defines,omitempty"`
	IgnoreIdentifiers []string `yaml:"ignore_identifiers,omitempty" json:"ignore_identifiers,omitempty"`
	Indentation       int      `yaml:"indentation" json:"indentation"`
}

// HeaderReport is the outcome of one header.
type HeaderReport struct {
	Path      string `yaml:"path" json:"path"`
	Language  string `yaml:"language,omitempty" json:"language,omitempty"`
	InputHash string `yaml:"input_hash" json:"input_hash"`
	Cached    bool   `yaml:"cached" json:"cached"`

	Rendered  int `yaml:"rendered" json:"rendered"`
	Groups    int `yaml:"groups" json:"groups"`
	Filtered  int `yaml:"filtered" json:"filtered"`
	Skipped   int `yaml:"skipped" json:"skipped"`
	Constants int `yaml:"constants" json:"constants"`

	// Diagnostics lists locally recovered problems, one line each.
	Diagnostics []string `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`

	// Error is set when the header failed as a whole.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Totals sums header counters over a run.
type Totals struct {
	Headers   int `yaml:"headers" json:"headers"`
	Cached    int `yaml:"cached" json:"cached"`
	Failed    int `yaml:"failed" json:"failed"`
	Rendered  int `yaml:"rendered" json:"rendered"`
	Filtered  int `yaml:"filtered" json:"filtered"`
	Constants int `yaml:"constants" json:"constants"`
}

// NewManifest creates an empty manifest stamped with the current time.
func NewManifest(tool string, settings ManifestSettings) *Manifest {
	return &Manifest{
		Tool:        tool,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Settings:    settings,
		Headers:     []*HeaderReport{},
	}
}

// Add appends a header report and updates the totals.
func (m *Manifest) Add(h *HeaderReport) {
	m.Headers = append(m.Headers, h)
	m.Totals.Headers++
	if h.Cached {
		m.Totals.Cached++
	}
	if h.Error != "" {
		m.Totals.Failed++
	}
	m.Totals.Rendered += h.Rendered
	m.Totals.Filtered += h.Filtered
	m.Totals.Constants += h.Constants
}

// Write serializes the manifest to w in the given format.
func (m *Manifest) Write(w io.Writer, format Format) error {
	f, err := GetFormatter(format)
	if err != nil {
		return err
	}
	return f.FormatToWriter(w, m)
}

// WriteFile serializes the manifest to path.
func (m *Manifest) WriteFile(path string, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if err := m.Write(file, format); err != nil {
		file.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	return file.Close()
}
