// Package fanout defines core types and interfaces for the stream fan-out
// engine.
//
// The engine copies a single input byte stream to N output sinks without
// letting a slow or blocked sink stall the others. All positions are
// absolute byte offsets from the start of the input; buffer memory is owned
// exclusively by the pool, and sinks hold only offsets into it.
package fanout

import (
	"fmt"
)

// Mode selects how input bytes are distributed across sinks.
type Mode string

const (
	// ModeCopy delivers every input byte to every sink.
	ModeCopy Mode = "copy"
	// ModeScatter delivers every input byte to exactly one sink,
	// chosen to balance load.
	ModeScatter Mode = "scatter"
)

// ParseMode parses a mode name from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCopy, ModeScatter:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unsupported mode: %s (supported: copy, scatter)", s)
	}
}

// DefaultBlockSize is the default pool block size in bytes.
const DefaultBlockSize = 1024 * 1024

// Sink is one output stream record.
//
// Cursor invariant: 0 <= PosWritten <= PosToWrite <= source read position.
// Both cursors are monotone non-decreasing. Active flips to false on broken
// pipe and never flips back; the record itself lives until the engine exits.
type Sink struct {
	Name       string
	FD         int
	PosWritten int64
	PosToWrite int64
	Active     bool
}

// Drained reports whether the sink has no pending bytes to write.
func (s *Sink) Drained() bool {
	return s.PosWritten == s.PosToWrite
}

// Pending returns the number of bytes allocated to the sink but not yet
// written.
func (s *Sink) Pending() int64 {
	return s.PosToWrite - s.PosWritten
}

// String returns a short diagnostic representation.
func (s *Sink) String() string {
	return fmt.Sprintf("%s(fd=%d written=%d to_write=%d active=%t)",
		s.Name, s.FD, s.PosWritten, s.PosToWrite, s.Active)
}

// PoolStats contains pool residency statistics.
type PoolStats struct {
	BlockSize      int64
	ResidentBlocks int
	PeakResident   int
	Allocated      int64
	Freed          int64
}

// Pool supplies block-backed memory regions addressed by absolute offset.
// Regions never span a block boundary. The pool owns all block memory;
// callers borrow a region only for the duration of a single read or write.
type Pool interface {
	// SourceBuffer returns a writable region starting at pos, extending to
	// the end of the containing block. The block is allocated on demand.
	SourceBuffer(pos int64) []byte

	// SinkBuffer returns a readable region for a sink whose next unwritten
	// byte is at pos and whose allocation ends at limit. The region length
	// is min(block remainder, limit-pos).
	SinkBuffer(pos, limit int64) []byte

	// ByteAt returns the byte at a resident offset. Used by newline
	// scanning; the caller must ensure the containing block is resident.
	ByteAt(pos int64) byte

	// Free releases every block strictly below minPos's block. Idempotent;
	// releases are monotone.
	Free(minPos int64)

	// Stats returns current residency statistics.
	Stats() PoolStats
}

// Allocator decides how much of the freshly read data each sink is
// responsible for, by raising PosToWrite on drained, write-ready sinks.
type Allocator interface {
	// Assign distributes bytes up to posRead across the sinks. ready is
	// indexed like sinks and marks descriptors the multiplexer reported
	// writable. Only drained ready sinks receive new allocations. final
	// reports that posRead is the end of the input, so boundary decisions
	// that would otherwise wait for more data must resolve now.
	Assign(sinks []*Sink, ready []bool, posRead int64, final bool) error
}
