package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDomainExportsQuoteMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDomain(reg)
	m.ObserveQuote("cart", []string{"volume", "basic", "volume"}, true, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "maca_pricing_lines_total", "source", "volume"); err != nil {
		t.Fatalf("fetch lines: %v", err)
	} else if got != 2 {
		t.Fatalf("expected volume lines=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "maca_pricing_quotes_total", "credit_flag", "true"); err != nil {
		t.Fatalf("fetch quotes: %v", err)
	} else if got != 1 {
		t.Fatalf("expected flagged quotes=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "maca_pricing_quote_duration_seconds", "purpose", "cart"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestDomainExportsTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDomain(reg)
	m.IncTransition("application", "approved")
	m.IncTransitionFailure("order", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "maca_workflow_transitions_total", "to", "approved"); err != nil || got != 1 {
		t.Fatalf("expected one approval transition, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "maca_workflow_transition_failures_total", "code", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected empty code normalized to unknown, got %f (%v)", got, err)
	}
}

func TestNilDomainIsNoop(t *testing.T) {
	var m *Domain
	m.ObserveQuote("preview", []string{"basic"}, false, time.Millisecond)
	m.IncTransition("order", "shipped")
	m.IncTransitionFailure("order", "STATE_CONFLICT")

	unregistered := NewDomain(nil)
	unregistered.IncTransition("order", "shipped")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
