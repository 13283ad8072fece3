// Package pool implements the block-backed buffer pool that absorbs the
// rate mismatch between the input stream and the output sinks.
package pool

import (
	"github.com/jittakal/streamtee/pkg/fanout"
)

// Ensure implementation satisfies interface at compile time.
var _ fanout.Pool = (*BlockPool)(nil)

// MetricsCollector defines metrics operations for the pool.
type MetricsCollector interface {
	IncBlocksAllocated()
	IncBlocksFreed()
	SetResidentBlocks(count int)
}

// BlockPool realizes a logically infinite byte array as an ordered sequence
// of equally sized blocks, indexed by absolute input offset. Block k holds
// bytes [k*B, (k+1)*B). Blocks are allocated lazily when first needed and
// freed in order from the front once every active sink has passed them.
//
// The pool is not safe for concurrent use; the engine drives it from a
// single goroutine.
type BlockPool struct {
	blockSize int64
	blocks    [][]byte
	begin     int // first resident block
	end       int // one past the last allocated block
	peak      int
	allocated int64
	freed     int64
	metrics   MetricsCollector
}

// New creates a pool with the given block size. A metrics collector may be
// nil.
func New(blockSize int64, metrics MetricsCollector) *BlockPool {
	if blockSize <= 0 {
		blockSize = fanout.DefaultBlockSize
	}
	return &BlockPool{
		blockSize: blockSize,
		metrics:   metrics,
	}
}

// BlockSize returns the configured block size in bytes.
func (p *BlockPool) BlockSize() int64 {
	return p.blockSize
}

// ensureBlock allocates block memory up to and including the given block
// index, doubling the block directory as needed.
func (p *BlockPool) ensureBlock(block int) {
	if block < p.end {
		return
	}

	for block >= len(p.blocks) {
		size := len(p.blocks) * 2
		if size == 0 {
			size = 1
		}
		grown := make([][]byte, size)
		copy(grown, p.blocks)
		p.blocks = grown
	}

	for i := p.end; i <= block; i++ {
		p.blocks[i] = make([]byte, p.blockSize)
		p.allocated++
		if p.metrics != nil {
			p.metrics.IncBlocksAllocated()
		}
	}
	p.end = block + 1

	if resident := p.end - p.begin; resident > p.peak {
		p.peak = resident
	}
	if p.metrics != nil {
		p.metrics.SetResidentBlocks(p.end - p.begin)
	}
}

// SourceBuffer returns a writable region starting at pos and extending to
// the end of the containing block, allocating the block if needed.
func (p *BlockPool) SourceBuffer(pos int64) []byte {
	block := int(pos / p.blockSize)
	offset := pos % p.blockSize

	p.ensureBlock(block)
	return p.blocks[block][offset:]
}

// SinkBuffer returns a readable region for a sink whose next unwritten byte
// is at pos and whose allocation ends at limit. The region never spans a
// block boundary and never extends past limit.
func (p *BlockPool) SinkBuffer(pos, limit int64) []byte {
	size := limit - pos
	if size <= 0 {
		return nil
	}

	block := int(pos / p.blockSize)
	offset := pos % p.blockSize
	if remainder := p.blockSize - offset; size > remainder {
		size = remainder
	}
	return p.blocks[block][offset : offset+size]
}

// ByteAt returns the byte at a resident offset.
func (p *BlockPool) ByteAt(pos int64) byte {
	block := int(pos / p.blockSize)
	return p.blocks[block][pos%p.blockSize]
}

// Free releases every block strictly below minPos's block. Safe to call
// idempotently; releases are monotone.
func (p *BlockPool) Free(minPos int64) {
	blockEnd := int(minPos / p.blockSize)
	if blockEnd > p.end {
		blockEnd = p.end
	}

	for i := p.begin; i < blockEnd; i++ {
		p.blocks[i] = nil
		p.freed++
		if p.metrics != nil {
			p.metrics.IncBlocksFreed()
		}
	}
	if blockEnd > p.begin {
		p.begin = blockEnd
		if p.metrics != nil {
			p.metrics.SetResidentBlocks(p.end - p.begin)
		}
	}
}

// Stats returns current residency statistics.
func (p *BlockPool) Stats() fanout.PoolStats {
	return fanout.PoolStats{
		BlockSize:      p.blockSize,
		ResidentBlocks: p.end - p.begin,
		PeakResident:   p.peak,
		Allocated:      p.allocated,
		Freed:          p.freed,
	}
}
