package output

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestGetFormatterYAML tests that GetFormatter returns a YAML formatter
func TestGetFormatterYAML(t *testing.T) {
	formatter, err := GetFormatter(FormatYAML)
	if err != nil {
		t.Fatalf("GetFormatter(FormatYAML) failed: %v", err)
	}

	_, ok := formatter.(*YAMLFormatter)
	if !ok {
		t.Errorf("expected *YAMLFormatter, got %T", formatter)
	}
}

// TestGetFormatterJSON tests that GetFormatter returns a JSON formatter
func TestGetFormatterJSON(t *testing.T) {
	formatter, err := GetFormatter(FormatJSON)
	if err != nil {
		t.Fatalf("GetFormatter(FormatJSON) failed: %v", err)
	}

	_, ok := formatter.(*JSONFormatter)
	if !ok {
		t.Errorf("expected *JSONFormatter, got %T", formatter)
	}
}

// TestGetFormatterInvalid tests that GetFormatter returns error for invalid format
func TestGetFormatterInvalid(t *testing.T) {
	_, err := GetFormatter(Format("cgf"))
	if err == nil {
		t.Error("GetFormatter should return error for invalid format")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{"YAML", FormatYAML, false},
		{" yml ", FormatYAML, false},
		{"json", FormatJSON, false},
		{"Json", FormatJSON, false},
		{"cgf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func testManifest() *Manifest {
	m := NewManifest("headercvt", ManifestSettings{
		Language:         "c",
		ConstantsPattern: "CL_.*",
		FunctionsPattern: "cl[A-Z].*",
		Indentation:      2,
	})
	m.Add(&HeaderReport{Path: "cl.h", InputHash: "abc", Rendered: 4, Filtered: 1, Constants: 3})
	m.Add(&HeaderReport{Path: "cl_ext.h", InputHash: "def", Cached: true, Rendered: 2, Constants: 1,
		Diagnostics: []string{"unsupported-storage-class: bad (f)"}})
	m.Add(&HeaderReport{Path: "broken.h", Error: "syntax error"})
	return m
}

func TestManifestTotals(t *testing.T) {
	m := testManifest()
	want := Totals{Headers: 3, Cached: 1, Failed: 1, Rendered: 6, Filtered: 1, Constants: 4}
	if m.Totals != want {
		t.Errorf("Totals = %+v, want %+v", m.Totals, want)
	}
}

func TestManifestWriteYAML(t *testing.T) {
	m := testManifest()
	var b strings.Builder
	if err := m.Write(&b, FormatYAML); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded Manifest
	if err := yaml.Unmarshal([]byte(b.String()), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(decoded.Headers) != 3 {
		t.Fatalf("decoded %d headers, want 3", len(decoded.Headers))
	}
	if decoded.Headers[1].Path != "cl_ext.h" || !decoded.Headers[1].Cached {
		t.Errorf("second header = %+v", decoded.Headers[1])
	}
	if !strings.Contains(b.String(), "functions_pattern: cl[A-Z].*") {
		t.Errorf("settings missing from YAML:\n%s", b.String())
	}
}

func TestManifestWriteJSON(t *testing.T) {
	m := testManifest()
	var b strings.Builder
	if err := m.Write(&b, FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(b.String()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	totals, ok := decoded["totals"].(map[string]interface{})
	if !ok {
		t.Fatalf("totals missing: %v", decoded)
	}
	if totals["failed"] != float64(1) {
		t.Errorf("totals.failed = %v, want 1", totals["failed"])
	}
}
