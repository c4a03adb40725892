package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "maca"

// Domain records pricing and workflow activity. A nil *Domain is a valid no-op recorder.
type Domain struct {
	quoteLines       *prometheus.CounterVec
	quotes           *prometheus.CounterVec
	quoteDuration    *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
	transitionErrors *prometheus.CounterVec
}

// NewDomain registers the domain metrics on the provided registerer.
func NewDomain(reg prometheus.Registerer) *Domain {
	if reg == nil {
		return &Domain{}
	}
	quoteLines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricing_lines_total",
		Help:      "Priced order lines by winning discount source.",
	}, []string{"source"})
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricing_quotes_total",
		Help:      "Order quotes by purpose and credit outcome.",
	}, []string{"purpose", "credit_flag"})
	quoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pricing_quote_duration_seconds",
		Help:      "Time spent loading and pricing a quote.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"purpose"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_transitions_total",
		Help:      "Applied status transitions by entity and target status.",
	}, []string{"entity", "to"})
	transitionErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_transition_failures_total",
		Help:      "Rejected or failed status transitions by entity and error code.",
	}, []string{"entity", "code"})
	reg.MustRegister(quoteLines, quotes, quoteDuration, transitions, transitionErrors)
	return &Domain{
		quoteLines:       quoteLines,
		quotes:           quotes,
		quoteDuration:    quoteDuration,
		transitions:      transitions,
		transitionErrors: transitionErrors,
	}
}

// ObserveQuote records one priced quote. purpose is "preview", "cart" or "order".
func (d *Domain) ObserveQuote(purpose string, sources []string, creditFlag bool, elapsed time.Duration) {
	if d == nil || d.quotes == nil {
		return
	}
	for _, source := range sources {
		d.quoteLines.WithLabelValues(normalizeLabel(source)).Inc()
	}
	flag := "false"
	if creditFlag {
		flag = "true"
	}
	d.quotes.WithLabelValues(normalizeLabel(purpose), flag).Inc()
	d.quoteDuration.WithLabelValues(normalizeLabel(purpose)).Observe(elapsed.Seconds())
}

// IncTransition counts a committed status change.
func (d *Domain) IncTransition(entity, to string) {
	if d == nil || d.transitions == nil {
		return
	}
	d.transitions.WithLabelValues(normalizeLabel(entity), normalizeLabel(to)).Inc()
}

// IncTransitionFailure counts a transition that was refused or failed to persist.
func (d *Domain) IncTransitionFailure(entity, code string) {
	if d == nil || d.transitionErrors == nil {
		return
	}
	d.transitionErrors.WithLabelValues(normalizeLabel(entity), normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
