package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Stream metrics
	BytesRead    prometheus.Counter
	BytesWritten *prometheus.CounterVec
	BrokenPipes  *prometheus.CounterVec
	SinksActive  prometheus.Gauge
	PollWakeups  prometheus.Counter

	// Pool metrics
	BlocksAllocated prometheus.Counter
	BlocksFreed     prometheus.Counter
	ResidentBlocks  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		// Stream metrics
		BytesRead: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stream_bytes_read_total",
				Help: "Total number of bytes read from the input stream",
			},
		),
		BytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sink_bytes_written_total",
				Help: "Total number of bytes written per sink",
			},
			[]string{"sink"},
		),
		BrokenPipes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sink_broken_pipes_total",
				Help: "Total number of sinks deactivated by a broken pipe",
			},
			[]string{"sink"},
		),
		SinksActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sinks_active",
				Help: "Number of sinks currently accepting writes",
			},
		),
		PollWakeups: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "poll_wakeups_total",
				Help: "Total number of multiplexer wakeups",
			},
		),

		// Pool metrics
		BlocksAllocated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pool_blocks_allocated_total",
				Help: "Total number of buffer blocks allocated",
			},
		),
		BlocksFreed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pool_blocks_freed_total",
				Help: "Total number of buffer blocks released",
			},
		),
		ResidentBlocks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pool_resident_blocks",
				Help: "Number of buffer blocks currently resident",
			},
		),
	}
}

// AddBytesRead adds to the bytes read counter.
func (m *Metrics) AddBytesRead(n int) {
	m.BytesRead.Add(float64(n))
}

// AddBytesWritten adds to a sink's bytes written counter.
func (m *Metrics) AddBytesWritten(sink string, n int) {
	m.BytesWritten.WithLabelValues(sink).Add(float64(n))
}

// IncBrokenPipes increments a sink's broken pipe counter.
func (m *Metrics) IncBrokenPipes(sink string) {
	m.BrokenPipes.WithLabelValues(sink).Inc()
}

// SetSinksActive sets the active sinks gauge.
func (m *Metrics) SetSinksActive(count int) {
	m.SinksActive.Set(float64(count))
}

// IncPollWakeups increments the multiplexer wakeup counter.
func (m *Metrics) IncPollWakeups() {
	m.PollWakeups.Inc()
}

// IncBlocksAllocated increments the blocks allocated counter.
func (m *Metrics) IncBlocksAllocated() {
	m.BlocksAllocated.Inc()
}

// IncBlocksFreed increments the blocks freed counter.
func (m *Metrics) IncBlocksFreed() {
	m.BlocksFreed.Inc()
}

// SetResidentBlocks sets the resident blocks gauge.
func (m *Metrics) SetResidentBlocks(count int) {
	m.ResidentBlocks.Set(float64(count))
}
