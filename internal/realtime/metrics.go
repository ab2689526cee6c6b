// Package realtime — Prometheus instrumentation for the live channel.
//
// Cardinality stays bounded: the only label is the outbound event name,
// which is a small fixed vocabulary (see events.go).
package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	// wsConnectedUsers gauges the number of users with a live registry entry.
	wsConnectedUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connected_users",
			Help: "Current number of users with a live websocket connection.",
		},
	)

	// wsEventsSent counts events handed to a connection's send buffer.
	wsEventsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_sent_total",
			Help: "Total number of real-time events delivered to connections.",
		},
		[]string{"event"},
	)

	// wsEventsDropped counts events that could not be enqueued (slow or
	// closing connections). Dropping is by contract: delivery is best-effort.
	wsEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_dropped_total",
			Help: "Total number of real-time events dropped instead of delivered.",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(wsConnectedUsers, wsEventsSent, wsEventsDropped)
}
