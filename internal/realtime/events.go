// Package realtime implements the live presence and event-delivery core:
// the connection registry, the presence state machine, and the event router.
//
// This file defines the outbound event vocabulary. Event names and payload
// shapes are part of the wire contract with clients and must not change
// without a protocol version bump.
package realtime

import "time"

// Outbound event names.
const (
	EventUserOnline          = "user_online"
	EventOnlineUsers         = "online_users"
	EventUserOffline         = "user_offline"
	EventUserStatusUpdate    = "user_status_update"
	EventTypingStart         = "typing_start"
	EventTypingStop          = "typing_stop"
	EventPrivateMessage      = "private_message"
	EventProfileViewed       = "profile_viewed"
	EventNewNotification     = "new_notification"
	EventNotificationRemoved = "notification_removed"
)

// UserEvent announces a single user's connect or disconnect.
type UserEvent struct {
	UserID string `json:"userId"`
}

// StatusUpdateEvent is broadcast on every setStatus call, even when the
// status value did not change.
type StatusUpdateEvent struct {
	UserID   string     `json:"userId"`
	Status   string     `json:"status"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen"`
}

// TypingEvent is routed to the typing target only.
type TypingEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PrivateMessageEvent is the pass-through direct message payload. Message
// persistence belongs to the messaging workflow, not this core.
type PrivateMessageEvent struct {
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProfileViewedEvent tells a user their profile was just viewed.
type ProfileViewedEvent struct {
	ViewerID  string    `json:"viewer_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationRef carries enough of a removed notification's identity for
// the recipient's client to reconcile local state without a follow-up fetch.
type NotificationRef struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	FromUserID string    `json:"from_user_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NotificationRemovedEvent announces that a previously delivered
// notification was revoked by the inverse action (e.g. an unlike).
type NotificationRemovedEvent struct {
	Type             string          `json:"type"`
	NotificationID   string          `json:"notificationId"`
	FromUserID       string          `json:"from_user_id"`
	UserID           string          `json:"user_id"`
	NotificationData NotificationRef `json:"notificationData"`
}

// TypingEdge is one entry of the introspection view over live typing state.
type TypingEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
