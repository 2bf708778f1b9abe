// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// NavigationTransitions counts navigation outcomes by screen and result
	// (pushed, auth_required, invalid_id, deep_link_failed, popped).
	NavigationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localfelo",
			Name:      "navigation_transitions_total",
			Help:      "Navigation transitions by target screen and outcome.",
		},
		[]string{"screen", "outcome"},
	)

	// LocationUpdates counts location writes by audience (guest, user) and result.
	LocationUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localfelo",
			Name:      "location_updates_total",
			Help:      "Location updates by audience and result.",
		},
		[]string{"audience", "result"},
	)

	// SchemaDriftRetries counts writes retried without optional columns.
	SchemaDriftRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localfelo",
			Name:      "schema_drift_retries_total",
			Help:      "Writes retried against a reduced column set.",
		},
		[]string{"table"},
	)

	// SessionBootstraps counts bootstrap results by source (backend, local, guest).
	SessionBootstraps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localfelo",
			Name:      "session_bootstraps_total",
			Help:      "Session bootstraps by resolved source.",
		},
		[]string{"source"},
	)

	// TransientNotifications counts pop-ups and toasts surfaced by the feed watcher.
	TransientNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localfelo",
			Name:      "transient_notifications_total",
			Help:      "Notifications surfaced as pop-up or toast.",
		},
		[]string{"kind"},
	)

	// ActiveClientStates tracks how many client states the registry holds.
	ActiveClientStates = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "localfelo",
		Name:      "client_states_active",
		Help:      "Client states currently held in memory.",
	})

	// RealtimeConnections tracks open websocket connections.
	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "localfelo",
		Name:      "realtime_connections",
		Help:      "Open realtime websocket connections.",
	})
)

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
