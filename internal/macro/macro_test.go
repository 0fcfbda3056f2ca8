package macro

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hargabyte/headercvt/internal/filter"
)

func TestObserverReportsMatchingDefines(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObserver(filter.MustCompile(`CL_.*`), &buf)

	events := []Event{
		{Name: "CL_SUCCESS", Directive: Define},
		{Name: "FOO", Directive: Define},
		{Name: "CL_SUCCESS", Directive: Undefine},
	}
	if err := obs.Observe(events); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	if got, want := buf.String(), "CL_SUCCESS\n"; got != want {
		t.Errorf("constants = %q, want %q", got, want)
	}
	if obs.Count() != 1 {
		t.Errorf("Count() = %d, want 1", obs.Count())
	}
}

func TestObserverKeepsOrderAndDuplicates(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObserver(filter.MustCompile(`CL_.*`), &buf)

	events := []Event{
		{Name: "CL_B", Directive: Define},
		{Name: "CL_A", Directive: Define},
		{Name: "CL_B", Directive: Undefine},
		{Name: "CL_B", Directive: Define},
	}
	if err := obs.Observe(events); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	if got, want := buf.String(), "CL_B\nCL_A\nCL_B\n"; got != want {
		t.Errorf("constants = %q, want %q", got, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestObserverWriteError(t *testing.T) {
	obs := NewObserver(filter.MustCompile(`CL_.*`), failingWriter{})
	err := obs.MacroDefined(Event{Name: "CL_X", Directive: Define})
	if err == nil {
		t.Fatal("expected write error")
	}
}

func TestDirectiveString(t *testing.T) {
	if Define.String() != "#define" || Undefine.String() != "#undef" {
		t.Errorf("unexpected directive strings %q %q", Define, Undefine)
	}
}
