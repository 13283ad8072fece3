// Package pool provides block-backed buffering between a stream source and
// its sinks.
//
// This package realizes a logically infinite byte array as fixed-size
// blocks addressed by absolute input offset, so that readers and writers
// exchange offsets instead of pointers.
//
// # Addressing
//
// Block k holds bytes [k*B, (k+1)*B) for block size B. A region handed out
// for reading or writing never spans a block boundary:
//
//	buf := pool.SourceBuffer(pos)     // writable, len = B - pos%B
//	buf := pool.SinkBuffer(pos, limit) // readable, clipped at the boundary
//
// # Lifecycle
//
// 1. Allocate: blocks come into existence lazily when the reader first
// needs them; the block directory doubles as the stream grows
//
//	buf := pool.SourceBuffer(pos) // allocates the containing block
//
// 2. Borrow: sinks read through SinkBuffer during a single write call
//
// 3. Release: once every active sink has written past a block, it is freed
// from the front
//
//	pool.Free(minPosWritten)
//
// Releases are monotone and idempotent: calling Free with an older
// position is a no-op.
//
// # Residency
//
// A block stays resident exactly while some live cursor lies inside it.
// Stats() reports the current and peak resident counts, which bound the
// memory the stream can pin:
//
//	stats := pool.Stats()
//	fmt.Printf("resident: %d blocks (peak %d)\n",
//	    stats.ResidentBlocks, stats.PeakResident)
//
// # Concurrency
//
// The pool is not thread-safe. The engine owns it from a single goroutine;
// there is no other legitimate caller.
package pool
