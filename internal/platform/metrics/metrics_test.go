package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	// Uninitialized metrics must be silent no-ops, not panics.
	IncCounter(MetricBlocksProcessed)
	SetGauge(MetricTreasuriesOpen, 1)

	Init()
	Init() // second call must not re-register

	IncCounter(MetricBlocksProcessed)
	if got := testutil.ToFloat64(counters[MetricBlocksProcessed]); got != 1 {
		t.Fatalf("expected counter 1, got %v", got)
	}

	AddCounter(MetricProposalsPolled, 3)
	if got := testutil.ToFloat64(counters[MetricProposalsPolled]); got != 3 {
		t.Fatalf("expected counter 3, got %v", got)
	}

	SetGauge(MetricTreasuriesOpen, 2)
	if got := testutil.ToFloat64(gauges[MetricTreasuriesOpen]); got != 2 {
		t.Fatalf("expected gauge 2, got %v", got)
	}
}
