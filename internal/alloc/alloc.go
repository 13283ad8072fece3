// Package alloc implements the data-allocation policy that decides which
// sink is responsible for which byte range of the input.
package alloc

import (
	"github.com/jittakal/streamtee/internal/errors"
	"github.com/jittakal/streamtee/pkg/fanout"
)

// Ensure implementation satisfies interface at compile time.
var _ fanout.Allocator = (*Allocator)(nil)

// Allocator distributes freshly read input across sinks. In copy mode every
// sink is responsible for every byte. In scatter mode each byte belongs to
// exactly one sink: new data is split evenly across the sinks that are
// write-ready and fully drained, visiting them in table order. With line
// alignment enabled, share boundaries are moved so that every window ends
// immediately after a newline, except a final window that holds an
// unterminated tail at end of input.
type Allocator struct {
	mode        fanout.Mode
	lineAligned bool
	pool        fanout.Pool
}

// New creates an allocator. The pool is only consulted for newline scans,
// so it may be nil unless lineAligned is set.
func New(mode fanout.Mode, lineAligned bool, pool fanout.Pool) *Allocator {
	return &Allocator{
		mode:        mode,
		lineAligned: lineAligned,
		pool:        pool,
	}
}

// Assign updates the sinks' windows. In copy mode every sink's PosToWrite
// becomes posRead. In scatter mode only drained ready sinks receive new
// windows, splitting the not yet assigned input below posRead among them.
func (a *Allocator) Assign(sinks []*fanout.Sink, ready []bool, posRead int64, final bool) error {
	if a.mode == fanout.ModeCopy {
		for _, s := range sinks {
			s.PosToWrite = posRead
		}
		return nil
	}

	// High-water mark of data already assigned to some sink, and the
	// number of sinks eligible for new work.
	var posAssigned int64
	available := int64(0)
	for i, s := range sinks {
		if s.PosToWrite > posAssigned {
			posAssigned = s.PosToWrite
		}
		if s.Drained() && ready[i] {
			available++
		}
	}
	if available == 0 {
		return nil
	}

	availableData := posRead - posAssigned
	dataPerSink := availableData / available
	remainder := availableData % available

	first := true
	for i, s := range sinks {
		if !s.Drained() || !ready[i] {
			continue
		}

		share := dataPerSink
		if first {
			// The first eligible sink also takes the integer remainder.
			share += remainder
			first = false
		}

		s.PosWritten = posAssigned
		if a.lineAligned {
			cut, ok, err := a.lineCut(s.Name, posAssigned, share, dataPerSink, availableData, posRead, final)
			if err != nil {
				return err
			}
			if !ok {
				// No newline inside the available data. Defer this sink
				// and wait for more input before assigning anything else.
				s.PosToWrite = posAssigned
				return nil
			}
			posAssigned = cut
		} else {
			posAssigned += share
		}
		s.PosToWrite = posAssigned
	}

	return nil
}

// lineCut moves a tentative share boundary so it falls immediately after a
// newline byte. It returns the new assignment position, or ok=false when
// the scan ran out of data before seeing any newline.
func (a *Allocator) lineCut(name string, posAssigned, share, dataPerSink, availableData, posRead int64, final bool) (int64, bool, error) {
	if share > 0 && availableData > a.pool.Stats().BlockSize/2 {
		return a.cutDense(name, posAssigned, share)
	}
	return a.cutSparse(posAssigned, dataPerSink, posRead, final)
}

// cutDense places the boundary at the end of the share and walks backward
// to the nearest newline. Safe only when lines are short relative to the
// block size; a share with no newline at all is a hard error because the
// backward walk cannot make progress across rounds.
func (a *Allocator) cutDense(name string, posAssigned, share int64) (int64, bool, error) {
	dataEnd := posAssigned + share - 1
	for {
		if a.pool.ByteAt(dataEnd) == '\n' {
			return dataEnd + 1, true, nil
		}
		dataEnd--
		if dataEnd+1 == posAssigned {
			return 0, false, &errors.ScanError{Sink: name, Span: share}
		}
	}
}

// cutSparse scans forward, remembering the last newline seen, until the
// accumulated share exceeds dataPerSink or the data runs out. Always
// correct, at the cost of touching every byte once.
//
// A scan that exhausts the data without a newline normally defers the sink,
// since the line may continue in input not yet read. Once the input has
// ended no continuation can arrive, so the unterminated tail becomes the
// sink's final window.
func (a *Allocator) cutSparse(posAssigned, dataPerSink, posRead int64, final bool) (int64, bool, error) {
	lastNewline := int64(-1)

	for dataEnd := posAssigned; ; dataEnd++ {
		if dataEnd >= posRead {
			if lastNewline != -1 {
				return lastNewline + 1, true, nil
			}
			if final && posRead > posAssigned {
				return posRead, true, nil
			}
			return 0, false, nil
		}

		if a.pool.ByteAt(dataEnd) == '\n' {
			lastNewline = dataEnd
			if dataEnd-posAssigned > dataPerSink {
				return dataEnd + 1, true, nil
			}
		}
	}
}
