// Package engine implements the readiness-driven I/O loop that copies one
// input stream to many sinks.
//
// The loop is single-threaded and cooperative: the only suspension point is
// the poll(2) call. Each iteration asks the multiplexer which descriptors
// are ready, runs the writer phase first, and reads new input only when no
// downstream progress was made. Preferring writes over reads keeps the
// resident buffer set close to the minimum needed to bridge the slowest
// sink.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	apperrors "github.com/jittakal/streamtee/internal/errors"
	"github.com/jittakal/streamtee/pkg/fanout"
)

// MetricsCollector defines metrics operations for the engine.
type MetricsCollector interface {
	AddBytesRead(n int)
	AddBytesWritten(sink string, n int)
	IncBrokenPipes(sink string)
	IncPollWakeups()
	SetSinksActive(count int)
}

// Config contains engine construction parameters.
type Config struct {
	// SourceFD is the input descriptor, normally stdin.
	SourceFD int
	Logger   *slog.Logger
	// Metrics may be nil.
	Metrics MetricsCollector
}

// Engine drives the fan-out loop over a pool, an allocator and a sink
// table. One Engine serves one input stream; it is not safe for concurrent
// use.
type Engine struct {
	pool      fanout.Pool
	allocator fanout.Allocator
	sinks     []*fanout.Sink

	srcFD      int
	posRead    int64
	reachedEOF bool

	logger  *slog.Logger
	metrics MetricsCollector

	// scratch buffers reused across iterations
	pollfds []unix.PollFd
	sinkAt  []int
	ready   []bool
}

// New creates an engine over the given pool, allocator and sinks.
func New(p fanout.Pool, a fanout.Allocator, sinks []*fanout.Sink, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		pool:      p,
		allocator: a,
		sinks:     sinks,
		srcFD:     cfg.SourceFD,
		logger:    logger,
		metrics:   cfg.Metrics,
		ready:     make([]bool, len(sinks)),
	}
}

// BytesRead returns the number of input bytes consumed so far.
func (e *Engine) BytesRead() int64 {
	return e.posRead
}

// Run executes the fan-out loop until the input is drained and every active
// sink has caught up, or until a fatal error occurs. Closing any sink's
// read side early is not an error; the sink is deactivated and the rest
// keep going. When every sink has gone inactive the remaining input is
// undeliverable and the run ends cleanly.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if e.activeSinks() == 0 {
			e.logger.Warn("all sinks inactive, dropping remaining input",
				"bytes_read", e.posRead,
			)
			e.logSummary()
			return nil
		}

		srcIdx, pending := e.pollSet()
		if e.reachedEOF && pending == 0 {
			e.logSummary()
			return nil
		}

		if err := e.wait(); err != nil {
			return err
		}

		written, err := e.writePhase()
		if err != nil {
			return err
		}
		if written > 0 {
			// Progress was made downstream; loop without reading so a
			// slow sink cannot force unbounded buffer growth.
			continue
		}

		if srcIdx >= 0 && e.pollfds[srcIdx].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			if err := e.readPhase(); err != nil {
				return err
			}
		}
	}
}

// pollSet rebuilds the readiness request for this iteration. It returns the
// index of the source entry (-1 once EOF has been seen) and the number of
// sinks with pending bytes.
func (e *Engine) pollSet() (srcIdx, pending int) {
	e.pollfds = e.pollfds[:0]
	e.sinkAt = e.sinkAt[:0]

	srcIdx = -1
	if !e.reachedEOF {
		srcIdx = len(e.pollfds)
		e.pollfds = append(e.pollfds, unix.PollFd{Fd: int32(e.srcFD), Events: unix.POLLIN})
		e.sinkAt = append(e.sinkAt, -1)
	}

	for i, s := range e.sinks {
		if s.Active && s.PosWritten < e.posRead {
			e.pollfds = append(e.pollfds, unix.PollFd{Fd: int32(s.FD), Events: unix.POLLOUT})
			e.sinkAt = append(e.sinkAt, i)
			pending++
		}
	}
	return srcIdx, pending
}

// wait blocks on the multiplexer until at least one requested descriptor is
// ready. EINTR is retried: the Go runtime interrupts system calls with
// SIGURG for scheduling, so a bare interruption carries no meaning here.
// Termination signals are handled at the process level.
func (e *Engine) wait() error {
	for {
		_, err := unix.Poll(e.pollfds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrPollFailed, err)
		}
		if e.metrics != nil {
			e.metrics.IncPollWakeups()
		}
		return nil
	}
}

// writePhase allocates fresh data to ready sinks, then issues one write per
// writable sink. Broken pipe deactivates the sink; any other write failure
// is fatal. Returns the number of bytes written across all sinks.
func (e *Engine) writePhase() (int64, error) {
	for i := range e.ready {
		e.ready[i] = false
	}
	for fdIdx, sinkIdx := range e.sinkAt {
		if sinkIdx < 0 {
			continue
		}
		revents := e.pollfds[fdIdx].Revents
		e.ready[sinkIdx] = revents&(unix.POLLOUT|unix.POLLERR|unix.POLLHUP) != 0
	}

	if err := e.allocator.Assign(e.sinks, e.ready, e.posRead, e.reachedEOF); err != nil {
		return 0, err
	}

	var written int64
	for i, s := range e.sinks {
		if !e.ready[i] {
			continue
		}

		buf := e.pool.SinkBuffer(s.PosWritten, s.PosToWrite)
		if len(buf) == 0 {
			continue
		}

		n, err := unix.Write(s.FD, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				// Readiness was stale; the sink stays pending.
				continue
			}
			if err == unix.EPIPE {
				// Expected when a downstream consumer closes early.
				s.Active = false
				e.logger.Warn("sink reader closed early",
					"sink", s.Name,
					"written", s.PosWritten,
				)
				if e.metrics != nil {
					e.metrics.IncBrokenPipes(s.Name)
					e.metrics.SetSinksActive(e.activeSinks())
				}
				continue
			}
			return written, &apperrors.SinkError{Name: s.Name, Op: "write", Err: err}
		}

		s.PosWritten += int64(n)
		written += int64(n)
		if e.metrics != nil {
			e.metrics.AddBytesWritten(s.Name, n)
		}
	}

	// Release every block all still-active sinks have passed. With no
	// active sinks left the whole window is reclaimable.
	minPos := e.posRead
	for _, s := range e.sinks {
		if s.Active && s.PosWritten < minPos {
			minPos = s.PosWritten
		}
	}
	e.pool.Free(minPos)

	return written, nil
}

// readPhase issues one read from the source into the pool. A zero-length
// read marks end of input.
func (e *Engine) readPhase() error {
	buf := e.pool.SourceBuffer(e.posRead)

	n, err := unix.Read(e.srcFD, buf)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return nil
		}
		return &apperrors.SourceError{Pos: e.posRead, Err: err}
	}

	if n == 0 {
		e.reachedEOF = true
		e.logger.Debug("end of input", "bytes_read", e.posRead)
		return nil
	}

	e.posRead += int64(n)
	if e.metrics != nil {
		e.metrics.AddBytesRead(n)
	}
	return nil
}

func (e *Engine) activeSinks() int {
	n := 0
	for _, s := range e.sinks {
		if s.Active {
			n++
		}
	}
	return n
}

func (e *Engine) logSummary() {
	stats := e.pool.Stats()
	e.logger.Info("stream drained",
		"bytes_read", e.posRead,
		"sinks_active", e.activeSinks(),
		"peak_resident_blocks", stats.PeakResident,
	)
	for _, s := range e.sinks {
		e.logger.Debug("sink summary",
			"sink", s.Name,
			"bytes_written", s.PosWritten,
			"active", s.Active,
		)
	}
}
