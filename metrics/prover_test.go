package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProverMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewProverMetrics(reg)

	start := time.Now()
	m.Observe("longest-chain", OpProve, "stark", start, nil)
	m.Observe("longest-chain", OpProve, "stark", start, errors.New("boom"))
	m.Observe("longest-chain", OpExecute, "", start, nil)
	m.Request("prover_proveLongestChain")
	m.Request("prover_proveLongestChain")

	if got := testutil.CollectAndCount(m.duration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("longest-chain", OpProve, "stark")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("prover_proveLongestChain")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) != 3 {
		t.Errorf("families = %d, want 3", len(families))
	}
}

func TestNilProverMetrics(t *testing.T) {
	var m *ProverMetrics
	m.Observe("p", OpVerify, "snark", time.Now(), errors.New("x"))
	m.Request("x")
}
