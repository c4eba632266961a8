package ircstate

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the Prometheus registry used by this package
	Registry = prometheus.NewRegistry()

	// ModeEventsTotal counts processed channel MODE events
	ModeEventsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ircstate_mode_events_total",
			Help: "Channel MODE events run through the reconciliation engine",
		},
	)

	// ListRepliesTotal counts list-reply rows merged, by mode letter
	ListRepliesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircstate_list_replies_total",
			Help: "List-reply rows merged into channel state",
		},
		[]string{"mode"},
	)

	// ListChangesTotal counts entry mutations by action
	// (add, remove, replace, sync-new, sync-replace)
	ListChangesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircstate_list_changes_total",
			Help: "List entry mutations by action",
		},
		[]string{"action"},
	)

	// DesyncsTotal counts internal-consistency violations found while
	// merging server list dumps
	DesyncsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ircstate_desyncs_total",
			Help: "Same-setter timestamp conflicts between live state and list dumps",
		},
	)

	// CapabilityFaultsTotal counts MODE events dropped because ISUPPORT
	// had not advertised CHANMODES/PREFIX yet
	CapabilityFaultsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ircstate_capability_faults_total",
			Help: "MODE events refused before capabilities were known",
		},
	)

	// RefreshQueriesTotal counts list refresh queries sent after own
	// status changes
	RefreshQueriesTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ircstate_refresh_queries_total",
			Help: "MODE list queries sent after the client's own status changed",
		},
	)
)

// MetricsHandler returns an http.Handler serving this package's registry,
// for mounting wherever the application exposes metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
