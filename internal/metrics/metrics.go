// Package metrics exposes the service's Prometheus instruments. Collectors
// are registered once at init via promauto and shared process-wide.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatego",
		Name:      "registrations_total",
		Help:      "Registration decisions by outcome and reason.",
	}, []string{"outcome", "reason"})

	checkins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatego",
		Name:      "checkins_total",
		Help:      "Check-in attempts by result.",
	}, []string{"result"})

	smsCodes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gatego",
		Name:      "sms_codes_sent_total",
		Help:      "Verification codes handed to the notifier.",
	})
)

func ObserveRegistration(outcome, reason string) {
	if reason == "" {
		reason = "none"
	}
	registrations.WithLabelValues(outcome, reason).Inc()
}

func ObserveCheckin(result string) {
	checkins.WithLabelValues(result).Inc()
}

func ObserveSMSCode() {
	smsCodes.Inc()
}
