package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/esmem/internal/engine"
)

func TestEngine_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewEngine(reg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e := engine.New(engine.WithInterceptors(m.Interceptor()))
	ctx := context.Background()

	_, _ = e.Index(ctx, engine.DocRequest{Index: "i", ID: "1", Body: map[string]any{}})
	_, _ = e.Create(ctx, engine.DocRequest{Index: "i", ID: "1", Body: map[string]any{}})
	_, _ = e.Get(ctx, engine.DocRequest{Index: "nope", ID: "1"})

	tests := []struct {
		op, status string
	}{
		{"index", StatusOK},
		{"create", "version_conflict_engine_exception"},
		{"get", "index_not_found_exception"},
	}
	for _, tc := range tests {
		if got := testutil.ToFloat64(m.operations.WithLabelValues(tc.op, tc.status)); got != 1 {
			t.Errorf("operations_total{%s,%s} = %f, want 1", tc.op, tc.status, got)
		}
	}
	if n := testutil.CollectAndCount(m.duration); n != 3 {
		t.Errorf("duration series = %d, want 3", n)
	}
}

func TestNewEngine_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewEngine(reg)
	if err != nil {
		t.Fatalf("first NewEngine: %v", err)
	}
	second, err := NewEngine(reg)
	if err != nil {
		t.Fatalf("second NewEngine: %v", err)
	}

	first.operations.WithLabelValues("search", StatusOK).Inc()
	if got := testutil.ToFloat64(second.operations.WithLabelValues("search", StatusOK)); got != 1 {
		t.Errorf("second engine sees %f, want shared counter", got)
	}
}

func TestNewEngine_IncompatibleCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Total engine operations by operation and outcome.",
	}, []string{"operation", "status"}))

	if _, err := NewEngine(reg); err == nil {
		t.Error("expected error for incompatible collector")
	}
}

func TestOutcome_PlainError(t *testing.T) {
	if got := outcome(context.Canceled); got != "error" {
		t.Errorf("outcome = %q", got)
	}
}
