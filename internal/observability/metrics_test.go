package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	if metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestMetrics_StreamCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.AddBytesRead(4096)
	metrics.AddBytesRead(1024)

	if got := testutil.ToFloat64(metrics.BytesRead); got != 5120 {
		t.Errorf("BytesRead = %v, want 5120", got)
	}
}

func TestMetrics_PerSinkCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.AddBytesWritten("a.out", 100)
	metrics.AddBytesWritten("a.out", 50)
	metrics.AddBytesWritten("b.out", 25)
	metrics.IncBrokenPipes("b.out")

	if got := testutil.ToFloat64(metrics.BytesWritten.WithLabelValues("a.out")); got != 150 {
		t.Errorf("BytesWritten{a.out} = %v, want 150", got)
	}
	if got := testutil.ToFloat64(metrics.BytesWritten.WithLabelValues("b.out")); got != 25 {
		t.Errorf("BytesWritten{b.out} = %v, want 25", got)
	}
	if got := testutil.ToFloat64(metrics.BrokenPipes.WithLabelValues("b.out")); got != 1 {
		t.Errorf("BrokenPipes{b.out} = %v, want 1", got)
	}
}

func TestMetrics_Gauges(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.SetSinksActive(3)
	metrics.SetResidentBlocks(2)

	if got := testutil.ToFloat64(metrics.SinksActive); got != 3 {
		t.Errorf("SinksActive = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.ResidentBlocks); got != 2 {
		t.Errorf("ResidentBlocks = %v, want 2", got)
	}

	metrics.SetSinksActive(2)
	if got := testutil.ToFloat64(metrics.SinksActive); got != 2 {
		t.Errorf("SinksActive = %v, want 2 after update", got)
	}
}

func TestMetrics_PoolCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.IncBlocksAllocated()
	metrics.IncBlocksAllocated()
	metrics.IncBlocksFreed()
	metrics.IncPollWakeups()

	if got := testutil.ToFloat64(metrics.BlocksAllocated); got != 2 {
		t.Errorf("BlocksAllocated = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.BlocksFreed); got != 1 {
		t.Errorf("BlocksFreed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.PollWakeups); got != 1 {
		t.Errorf("PollWakeups = %v, want 1", got)
	}
}

func TestMetrics_AllRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.AddBytesRead(1)
	metrics.AddBytesWritten("s", 1)
	metrics.IncBrokenPipes("s")
	metrics.SetSinksActive(1)
	metrics.IncPollWakeups()
	metrics.IncBlocksAllocated()
	metrics.IncBlocksFreed()
	metrics.SetResidentBlocks(1)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metricFamilies) != 8 {
		t.Errorf("registered %d metric families, want 8", len(metricFamilies))
	}
}
