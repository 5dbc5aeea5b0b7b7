package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestObserveDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveDispatch("Dispatched", "", 1000, 5*time.Millisecond)
	m.ObserveDispatch("Skipped", "RegionMismatch", 0, time.Millisecond)
	m.IncRefund()
	m.SetFlagged(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	if values["autoquote_dispatch_total"] != 2 {
		t.Fatalf("expected 2 dispatches, got %v", values["autoquote_dispatch_total"])
	}
	if values["autoquote_charged_total"] != 1000 {
		t.Fatalf("expected 1000 charged, got %v", values["autoquote_charged_total"])
	}
	if values["autoquote_flagged_hosts"] != 2 {
		t.Fatalf("expected 2 flagged, got %v", values["autoquote_flagged_hosts"])
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveDispatch("Dispatched", "", 1, time.Second)
	m.IncRefund()
	m.SetFlagged(1)
}
