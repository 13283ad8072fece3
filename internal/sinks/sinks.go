// Package sinks constructs and manages the output sink table.
package sinks

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/jittakal/streamtee/internal/errors"
	"github.com/jittakal/streamtee/pkg/fanout"
)

// Table is the fixed set of output sinks for one engine run. It is built
// once at startup; after construction the only mutations are the cursor and
// active-flag updates performed by the engine.
type Table struct {
	sinks []*fanout.Sink
	files []*os.File
}

// Open opens each path for writing, creating missing files and truncating
// existing ones, and returns the sink table in argument order. On failure
// every already-opened file is closed.
func Open(paths []string) (*Table, error) {
	t := &Table{
		sinks: make([]*fanout.Sink, 0, len(paths)),
		files: make([]*os.File, 0, len(paths)),
	}

	for _, path := range paths {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
		if err != nil {
			t.Close()
			return nil, &errors.SinkError{Name: path, Op: "open", Err: err}
		}
		fd := int(f.Fd())
		// A full-block write on a blocking pipe stalls until the reader
		// drains it, which would let one slow sink hold up the loop.
		if err := unix.SetNonblock(fd, true); err != nil {
			t.Close()
			f.Close()
			return nil, &errors.SinkError{Name: path, Op: "set_nonblock", Err: err}
		}
		t.files = append(t.files, f)
		t.sinks = append(t.sinks, &fanout.Sink{
			Name:   path,
			FD:     fd,
			Active: true,
		})
	}

	return t, nil
}

// FromFiles builds a table over descriptors the caller already owns, such
// as pipes inherited from an enclosing process. The table does not close
// them.
func FromFiles(files []*os.File) *Table {
	t := &Table{sinks: make([]*fanout.Sink, 0, len(files))}
	for _, f := range files {
		fd := int(f.Fd())
		unix.SetNonblock(fd, true)
		t.sinks = append(t.sinks, &fanout.Sink{
			Name:   f.Name(),
			FD:     fd,
			Active: true,
		})
	}
	return t
}

// Sinks returns the sink records in table order.
func (t *Table) Sinks() []*fanout.Sink {
	return t.sinks
}

// ActiveCount returns the number of sinks still accepting writes.
func (t *Table) ActiveCount() int {
	n := 0
	for _, s := range t.sinks {
		if s.Active {
			n++
		}
	}
	return n
}

// Close closes every file the table opened itself. Descriptors supplied via
// FromFiles are left open.
func (t *Table) Close() error {
	var lastErr error
	for _, f := range t.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	t.files = nil
	return lastErr
}
