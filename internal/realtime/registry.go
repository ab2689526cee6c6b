// Package realtime — connection registry.
//
// The registry is the single source of truth for "is this user reachable
// right now". It is process-local: this design assumes one server instance
// owns all live connections; sharding the registry across instances is a
// deployment concern this package does not address.
package realtime

import "sync"

// Conn is the opaque transport handle the router pushes events through.
// Send must be safe for concurrent use and must not block on network I/O;
// implementations enqueue into a per-connection ordered buffer and report
// an error when the event cannot be accepted (buffer full, closing).
type Conn interface {
	Send(event string, payload any) error
}

// Registry owns the live userID → connection mapping and the typing-edge
// map. All access goes through its methods; the raw maps are never exposed.
//
// Single-session policy: a user has at most one live entry. Registering a
// user who already has an entry replaces the old handle — the displaced
// physical connection is not closed here (that is the transport layer's
// job when it detects closure), it simply stops being reachable.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]Conn
	typing map[string]string // fromUserID -> toUserID, at most one edge per user
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]Conn),
		typing: make(map[string]string),
	}
}

// Register makes conn the live handle for userID, replacing any previous
// entry (last write wins).
func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	r.conns[userID] = conn
	n := len(r.conns)
	r.mu.Unlock()
	wsConnectedUsers.Set(float64(n))
}

// Unregister removes userID's entry. Removing an absent user is a no-op,
// which guards against out-of-order disconnects after an overwrite.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	delete(r.conns, userID)
	n := len(r.conns)
	r.mu.Unlock()
	wsConnectedUsers.Set(float64(n))
}

// UnregisterConn removes userID's entry only while it still maps to conn.
// It reports whether the entry was removed: false means a newer session
// already displaced conn, and the caller must not tear down the live state
// that now belongs to the replacement.
func (r *Registry) UnregisterConn(userID string, conn Conn) bool {
	r.mu.Lock()
	cur, ok := r.conns[userID]
	if !ok || cur != conn {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	n := len(r.conns)
	r.mu.Unlock()
	wsConnectedUsers.Set(float64(n))
	return true
}

// Lookup returns the live handle for userID, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// Count returns the number of connected users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ListIDs returns a snapshot of all connected user IDs.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// snapshot returns all live connections for a broadcast pass.
func (r *Registry) snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// SetTyping records that from is typing to to. A user has at most one
// outgoing edge: a new target silently replaces the old one, no stop event
// is implied for the replaced edge.
func (r *Registry) SetTyping(from, to string) {
	r.mu.Lock()
	r.typing[from] = to
	r.mu.Unlock()
}

// ClearTyping removes from's outgoing edge and returns the target it had.
// Clearing an absent edge is a no-op.
func (r *Registry) ClearTyping(from string) (to string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	to, ok = r.typing[from]
	if ok {
		delete(r.typing, from)
	}
	return to, ok
}

// TypingEdges returns a snapshot of all live typing edges.
func (r *Registry) TypingEdges() []TypingEdge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TypingEdge, 0, len(r.typing))
	for from, to := range r.typing {
		out = append(out, TypingEdge{From: from, To: to})
	}
	return out
}
