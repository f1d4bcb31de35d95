// Package metrics exposes Prometheus counters for the listing wizard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters the wizard core increments.
type Metrics struct {
	LookupsTotal         *prometheus.CounterVec
	SessionsCreated      prometheus.Counter
	ExcursionsStarted    prometheus.Counter
	CommitsAttempted     prometheus.Counter
	CommitsSucceeded     prometheus.Counter
	CommitsFailed        prometheus.Counter
	DuplicatesSuppressed prometheus.Counter
}

// New registers all counters against the given registerer. Tests pass a fresh
// prometheus.NewRegistry to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcmarket_registry_lookups_total",
			Help: "Registry lookups by outcome.",
		}, []string{"outcome"}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcmarket_wizard_sessions_created_total",
			Help: "Wizard sessions started.",
		}),
		ExcursionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcmarket_payment_excursions_started_total",
			Help: "Payment excursions handed off to the provider.",
		}),
		CommitsAttempted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcmarket_listing_commits_attempted_total",
			Help: "Listing commit calls issued after a success return.",
		}),
		CommitsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcmarket_listing_commits_succeeded_total",
			Help: "Listings created.",
		}),
		CommitsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcmarket_listing_commits_failed_total",
			Help: "Listing commits rejected by the persistence API.",
		}),
		DuplicatesSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcmarket_listing_duplicate_commits_suppressed_total",
			Help: "Commit attempts suppressed by the latch or the durable marker.",
		}),
	}
}
