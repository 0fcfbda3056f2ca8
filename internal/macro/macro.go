// Package macro reports preprocessor macro definitions whose names follow
// the constant naming convention.
package macro

import (
	"fmt"
	"io"

	"github.com/hargabyte/headercvt/internal/filter"
)

// Directive is the kind of macro directive an event came from.
type Directive int

const (
	// Define is a #define.
	Define Directive = iota
	// Undefine is an #undef.
	Undefine
)

// String returns the directive spelling.
func (d Directive) String() string {
	if d == Undefine {
		return "#undef"
	}
	return "#define"
}

// Event is one macro directive surfaced by the front end.
type Event struct {
	Name      string
	Directive Directive
	Line      uint32
}

// Observer writes matching #define names to the constants channel, one per
// line, in the order they were seen.
type Observer struct {
	pattern *filter.Pattern
	out     io.Writer
	count   int
}

// NewObserver returns an observer writing to out.
func NewObserver(pattern *filter.Pattern, out io.Writer) *Observer {
	return &Observer{pattern: pattern, out: out}
}

// MacroDefined handles one event.
func (o *Observer) MacroDefined(ev Event) error {
	if ev.Directive != Define {
		return nil
	}
	if !o.pattern.Match(ev.Name) {
		return nil
	}
	if _, err := fmt.Fprintln(o.out, ev.Name); err != nil {
		return fmt.Errorf("write constant %s: %w", ev.Name, err)
	}
	o.count++
	return nil
}

// Observe feeds every event to the observer and stops at the first write
// error.
func (o *Observer) Observe(events []Event) error {
	for _, ev := range events {
		if err := o.MacroDefined(ev); err != nil {
			return err
		}
	}
	return nil
}

// Count returns how many names were reported.
func (o *Observer) Count() int {
	return o.count
}
