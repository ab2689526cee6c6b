// Package realtime — event router.
//
// The router delivers named events to one user or to everyone currently
// connected. It never buffers or retries for offline users: missed
// real-time events are recovered through the REST surface.
package realtime

import "github.com/rs/zerolog/log"

// Router pushes events through the registry's live handles.
//
// Ordering: events to the same recipient are enqueued in call order into
// that connection's single ordered send buffer, so a recipient observes
// them in the order the router was invoked. No ordering is guaranteed
// across different recipients.
type Router struct {
	reg *Registry
}

// NewRouter returns a Router over reg.
func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// SendToUser delivers one event to userID's live connection. It returns
// false when the user has no registry entry or the connection refused the
// event (closing, buffer full) — both degrade to a logged drop, never an
// error surfaced to the caller.
func (rt *Router) SendToUser(userID, event string, payload any) bool {
	conn, ok := rt.reg.Lookup(userID)
	if !ok {
		return false
	}
	if err := conn.Send(event, payload); err != nil {
		wsEventsDropped.WithLabelValues(event).Inc()
		log.Warn().
			Str("user_id", userID).
			Str("event", event).
			Err(err).
			Msg("dropped real-time event")
		return false
	}
	wsEventsSent.WithLabelValues(event).Inc()
	return true
}

// Broadcast delivers one event to every connected user, fire-and-forget per
// recipient: a connection that refuses the event is logged and skipped, it
// never blocks delivery to the others.
func (rt *Router) Broadcast(event string, payload any) {
	for _, conn := range rt.reg.snapshot() {
		if err := conn.Send(event, payload); err != nil {
			wsEventsDropped.WithLabelValues(event).Inc()
			log.Warn().Str("event", event).Err(err).Msg("dropped broadcast event")
			continue
		}
		wsEventsSent.WithLabelValues(event).Inc()
	}
}
