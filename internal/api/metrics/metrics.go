// Package metrics defines the custom Prometheus metrics of the accounts
// service. It is the single source of truth for metric names, labels and help
// strings.
//
// Build one Metrics value per registry at startup with New and hand it to the
// services and storage wrappers that record into it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// Metrics holds every collector registered by New.
type Metrics struct {
	// LoginAttemptsTotal counts login attempts.
	// Label:
	//   - result: "success", "invalid_credentials" or "error"
	LoginAttemptsTotal *prometheus.CounterVec

	// SignupsTotal counts signup attempts.
	// Label:
	//   - result: "created", "name_taken", "invalid" or "error"
	SignupsTotal *prometheus.CounterVec

	// StorageOperationDuration measures a single repository call.
	// Labels:
	//   - backend: "sqlite" or "json"
	//   - operation: "get_by_name", "get_all", "save", "update", "delete"
	StorageOperationDuration *prometheus.HistogramVec

	// StorageErrorsTotal counts repository calls that failed for reasons other
	// than a missing or duplicate user.
	// Labels:
	//   - backend, operation: as above
	StorageErrorsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoginAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Total number of login attempts, by result.",
			},
			[]string{"result"},
		),
		SignupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signups_total",
				Help:      "Total number of signup attempts, by result.",
			},
			[]string{"result"},
		),
		StorageOperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_operation_duration_seconds",
				Help:      "Duration of user repository operations.",
				Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
			},
			[]string{"backend", "operation"},
		),
		StorageErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Total number of failed user repository operations.",
			},
			[]string{"backend", "operation"},
		),
	}
}

// LoginAttempt records the outcome of one login.
func (m *Metrics) LoginAttempt(result string) {
	m.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// Signup records the outcome of one signup.
func (m *Metrics) Signup(result string) {
	m.SignupsTotal.WithLabelValues(result).Inc()
}
