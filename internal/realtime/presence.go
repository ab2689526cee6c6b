// Package realtime — presence state machine.
//
// Per-user lifecycle: offline → online → {online, away, busy} → offline,
// with typing as an orthogonal sub-state of online. Every transition
// mirrors itself into the durable status store best-effort: store failures
// are logged and swallowed, the in-memory registry stays authoritative,
// and the next transition re-upserts the row anyway.
package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// StatusStore is the durable mirror of presence state. Implementations do
// their own I/O; the presence layer never calls them while holding the
// registry lock, so a stalled write delays only that transition's
// durability, not admission or routing for other connections.
type StatusStore interface {
	UpsertPresence(ctx context.Context, userID string, isOnline bool, now time.Time) error
	SetStatus(ctx context.Context, userID, status string, now time.Time) (*domain.UserStatus, error)
	SetOffline(ctx context.Context, userID string, now time.Time) (found bool, err error)
	SetTyping(ctx context.Context, userID string, typingTo *string) error
}

// Presence drives presence transitions over the registry, router, and
// status store. Safe for concurrent use from many connection lifecycles.
type Presence struct {
	reg    *Registry
	router *Router
	store  StatusStore

	now func() time.Time
}

// NewPresence wires the presence state machine.
func NewPresence(reg *Registry, router *Router, store StatusStore) *Presence {
	return &Presence{
		reg:    reg,
		router: router,
		store:  store,
		now:    time.Now,
	}
}

// HandleConnect admits userID's already-authenticated connection: registers
// the handle (displacing any previous session), broadcasts user_online to
// everyone, sends the newcomer the online_users snapshot, and mirrors the
// transition to the store. The broadcast is never skipped — other clients
// rely on it to stay in sync even when the store write fails.
func (p *Presence) HandleConnect(ctx context.Context, userID string, conn Conn) {
	p.reg.Register(userID, conn)

	p.router.Broadcast(EventUserOnline, UserEvent{UserID: userID})
	p.router.SendToUser(userID, EventOnlineUsers, p.reg.ListIDs())

	if err := p.store.UpsertPresence(ctx, userID, true, p.now()); err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("persist online status")
	}
	log.Info().Str("user_id", userID).Int("online", p.reg.Count()).Msg("user connected")
}

// HandleDisconnect tears down userID's live state: registry entry, typing
// edge, durable mirror, then the user_offline broadcast.
func (p *Presence) HandleDisconnect(ctx context.Context, userID string) {
	p.reg.Unregister(userID)
	p.reg.ClearTyping(userID)

	if err := p.store.UpsertPresence(ctx, userID, false, p.now()); err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("persist offline status")
	}

	p.router.Broadcast(EventUserOffline, UserEvent{UserID: userID})
	log.Info().Str("user_id", userID).Int("online", p.reg.Count()).Msg("user disconnected")
}

// HandleDisconnectConn is the transport-facing variant of HandleDisconnect.
// It tears down userID's state only while conn is still the registered
// session: when a newer connection has displaced conn, the lingering old
// transport's closure must not knock the replacement offline.
func (p *Presence) HandleDisconnectConn(ctx context.Context, userID string, conn Conn) {
	if !p.reg.UnregisterConn(userID, conn) {
		return
	}
	p.reg.ClearTyping(userID)

	if err := p.store.UpsertPresence(ctx, userID, false, p.now()); err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("persist offline status")
	}

	p.router.Broadcast(EventUserOffline, UserEvent{UserID: userID})
	log.Info().Str("user_id", userID).Int("online", p.reg.Count()).Msg("user disconnected")
}

// SetStatus updates userID's status (creating the row defaulted to online
// when absent; empty status keeps the stored value) and broadcasts
// user_status_update unconditionally — clients receive the broadcast even
// when the value did not change.
func (p *Presence) SetStatus(ctx context.Context, userID, status string) (*domain.UserStatus, error) {
	row, err := p.store.SetStatus(ctx, userID, status, p.now())
	if err != nil {
		return nil, err
	}

	p.router.Broadcast(EventUserStatusUpdate, StatusUpdateEvent{
		UserID:   userID,
		Status:   row.Status,
		IsOnline: row.IsOnline,
		LastSeen: row.LastSeen,
	})
	return row, nil
}

// SetOffline is the explicit client-initiated offline transition, distinct
// from a transport disconnect. With no status row it silently succeeds and
// nothing is broadcast.
func (p *Presence) SetOffline(ctx context.Context, userID string) error {
	found, err := p.store.SetOffline(ctx, userID, p.now())
	if err != nil {
		return err
	}
	if found {
		p.router.Broadcast(EventUserOffline, UserEvent{UserID: userID})
	}
	return nil
}

// StartTyping records that from is typing to to and routes typing_start to
// the target only. When the target is not connected the whole thing is
// silently dropped: typing indicators are best-effort and never queued.
// A start toward a new target replaces any previous edge from the same
// source without emitting a stop for the replaced edge.
func (p *Presence) StartTyping(ctx context.Context, from, to string) {
	if _, ok := p.reg.Lookup(to); !ok {
		return
	}

	p.reg.SetTyping(from, to)
	if err := p.store.SetTyping(ctx, from, &to); err != nil {
		log.Warn().Str("user_id", from).Err(err).Msg("persist typing status")
	}
	p.router.SendToUser(to, EventTypingStart, TypingEvent{From: from, To: to})
}

// StopTyping clears from's typing edge and routes typing_stop to the
// target. Dropped silently when the target is offline; stopping with no
// active edge is a no-op on the edge map.
func (p *Presence) StopTyping(ctx context.Context, from, to string) {
	if _, ok := p.reg.Lookup(to); !ok {
		return
	}

	p.reg.ClearTyping(from)
	if err := p.store.SetTyping(ctx, from, nil); err != nil {
		log.Warn().Str("user_id", from).Err(err).Msg("persist typing status")
	}
	p.router.SendToUser(to, EventTypingStop, TypingEvent{From: from, To: to})
}

// PrivateMessage routes a direct message to its recipient if connected.
// The message itself is not persisted here; that is the messaging
// workflow's job. Returns whether live delivery happened.
func (p *Presence) PrivateMessage(from, to, message string) bool {
	return p.router.SendToUser(to, EventPrivateMessage, PrivateMessageEvent{
		From:      from,
		Message:   message,
		Timestamp: p.now(),
	})
}

// ProfileView tells target their profile was viewed by viewer, if target
// is connected.
func (p *Presence) ProfileView(viewer, target string) bool {
	return p.router.SendToUser(target, EventProfileViewed, ProfileViewedEvent{
		ViewerID:  viewer,
		Timestamp: p.now(),
	})
}

// Router exposes the underlying event router so other workflows (e.g.
// notification pushes) can route through the same connections.
func (p *Presence) Router() *Router { return p.router }

// OnlineCount returns the number of connected users.
func (p *Presence) OnlineCount() int { return p.reg.Count() }

// OnlineUserIDs returns a snapshot of connected user IDs.
func (p *Presence) OnlineUserIDs() []string { return p.reg.ListIDs() }

// TypingEdges returns a snapshot of live typing edges.
func (p *Presence) TypingEdges() []TypingEdge { return p.reg.TypingEdges() }
