package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pixcheckout/pkg/enums"
)

// CheckoutMetrics records PIX copy acknowledgments and role resolution outcomes.
type CheckoutMetrics struct {
	copies         *prometheus.CounterVec
	cancels        prometheus.Counter
	roleLookups    *prometheus.CounterVec
	lookupDuration prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	copies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pix_code_copies_total",
		Help: "PIX code copy acknowledgments by clipboard mechanism.",
	}, []string{"mechanism"})
	cancels := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pix_payment_cancels_total",
		Help: "Cancel actions forwarded from the payment code display.",
	})
	roleLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "role_lookups_total",
		Help: "Role resolutions by outcome.",
	}, []string{"outcome"})
	lookupDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "role_lookup_duration_seconds",
		Help:    "Duration of role lookups in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(copies, cancels, roleLookups, lookupDuration)
	return &CheckoutMetrics{
		copies:         copies,
		cancels:        cancels,
		roleLookups:    roleLookups,
		lookupDuration: lookupDuration,
	}
}

// IncCopy counts a copy acknowledgment for the mechanism that served it.
func (m *CheckoutMetrics) IncCopy(mechanism enums.CopyMechanism) {
	if m == nil || m.copies == nil {
		return
	}
	m.copies.WithLabelValues(normalizeLabel(mechanism.String())).Inc()
}

func (m *CheckoutMetrics) IncCancel() {
	if m == nil || m.cancels == nil {
		return
	}
	m.cancels.Inc()
}

// IncRoleLookup counts a finished role resolution.
func (m *CheckoutMetrics) IncRoleLookup(outcome enums.RoleLookupOutcome) {
	if m == nil || m.roleLookups == nil {
		return
	}
	m.roleLookups.WithLabelValues(normalizeLabel(outcome.String())).Inc()
}

// ObserveLookup records how long the role transport took.
func (m *CheckoutMetrics) ObserveLookup(duration time.Duration) {
	if m == nil || m.lookupDuration == nil {
		return
	}
	m.lookupDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
