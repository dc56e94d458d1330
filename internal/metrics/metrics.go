// Package metrics holds Prometheus instruments used across the app.  All
// collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RegisterTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "instance_register_total",
			Help: "Cumulative number of instance registrations (replacements included).",
		})

	ValidateSuccessTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "instance_validate_success_total",
			Help: "Cumulative number of successful secret validations.",
		})

	ValidateFailureTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "instance_validate_failure_total",
			Help: "Cumulative number of rejected secret validations.",
		})

	DeleteTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "instance_delete_total",
			Help: "Cumulative number of completed cascading deletions.",
		})

	UpdateCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_update_created_total",
			Help: "Cumulative number of update records written.",
		})
)

func init() {
	prometheus.MustRegister(
		RegisterTotal,
		ValidateSuccessTotal,
		ValidateFailureTotal,
		DeleteTotal,
		UpdateCreatedTotal,
	)
}
