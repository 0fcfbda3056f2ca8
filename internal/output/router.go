package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Channel names.
const (
	ChannelConstants    = "constants"
	ChannelDeclarations = "declarations"
)

// Stdout is the destination that names standard output.
const Stdout = "-"

// ErrClosed is returned by writes to a channel after its router closed.
var ErrClosed = errors.New("output channel closed")

// Router owns the output channels of a run. Every channel buffers what is
// written to it; Close flushes all channels exactly once, in the order
// they were opened. Channels with the same destination share one sink.
type Router struct {
	stdout   io.Writer
	channels []*Channel
	byName   map[string]*Channel
	sinks    map[string]*sink
	order    []*sink
	closed   bool
}

// Channel is one named, append-only output stream.
type Channel struct {
	name   string
	sink   *sink
	buf    bytes.Buffer
	router *Router
}

type sink struct {
	dest string
	w    io.Writer
	file *os.File
}

// NewRouter creates a router that sends the "-" destination to stdout.
func NewRouter(stdout io.Writer) *Router {
	return &Router{
		stdout: stdout,
		byName: make(map[string]*Channel),
		sinks:  make(map[string]*sink),
	}
}

// Open registers channel name with destination dest ("-" or a file path).
// File destinations are created immediately so that an unwritable path
// fails before any work is done.
func (r *Router) Open(name, dest string) (*Channel, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("output channel %q already open", name)
	}
	if dest == "" {
		return nil, fmt.Errorf("output channel %q: empty destination", name)
	}

	key := dest
	if dest != Stdout {
		key = filepath.Clean(dest)
	}
	s, ok := r.sinks[key]
	if !ok {
		s = &sink{dest: key, w: r.stdout}
		if key != Stdout {
			f, err := os.Create(key)
			if err != nil {
				return nil, fmt.Errorf("open output %s: %w", name, err)
			}
			s.file = f
			s.w = f
		}
		r.sinks[key] = s
		r.order = append(r.order, s)
	}

	ch := &Channel{name: name, sink: s, router: r}
	r.channels = append(r.channels, ch)
	r.byName[name] = ch
	return ch, nil
}

// Channel returns the open channel called name, or nil.
func (r *Router) Channel(name string) *Channel {
	return r.byName[name]
}

// Close flushes every channel to its sink and closes file sinks. Calling
// Close again is a no-op.
func (r *Router) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, ch := range r.channels {
		if ch.buf.Len() == 0 {
			continue
		}
		if _, err := ch.sink.w.Write(ch.buf.Bytes()); err != nil {
			errs = append(errs, fmt.Errorf("flush %s to %s: %w", ch.name, ch.sink.dest, err))
		}
		ch.buf.Reset()
	}
	for _, s := range r.order {
		if s.file == nil {
			continue
		}
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.dest, err))
		}
	}
	return errors.Join(errs...)
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// Destination returns the cleaned destination of the channel.
func (c *Channel) Destination() string {
	return c.sink.dest
}

// Write appends p to the channel buffer.
func (c *Channel) Write(p []byte) (int, error) {
	if c.router.closed {
		return 0, ErrClosed
	}
	return c.buf.Write(p)
}

// WriteString appends s to the channel buffer.
func (c *Channel) WriteString(s string) (int, error) {
	if c.router.closed {
		return 0, ErrClosed
	}
	return c.buf.WriteString(s)
}

// Len reports the number of buffered bytes not yet flushed.
func (c *Channel) Len() int {
	return c.buf.Len()
}
