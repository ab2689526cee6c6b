// Package domain defines the persistence models for user presence status,
// notifications, and profile likes. These types are mapped with GORM and
// form the data layer of the social backend.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// User status values. StatusOnline through StatusBusy are the states a
// connected user may cycle through; StatusOffline is set on disconnect.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
	StatusBusy    = "busy"
)

// ValidStatus reports whether s is one of the four known status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusOffline, StatusAway, StatusBusy:
		return true
	}
	return false
}

// Notification types emitted by the domain workflows.
const (
	NotificationTypeLike    = "like"
	NotificationTypeMessage = "message"
)

// JSONMap stores a free-form JSON object in a single text column. It backs
// the Notification.Data payload that clients use to reconcile local state.
type JSONMap map[string]any

// Value implements driver.Valuer; nil maps serialize as SQL NULL.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for text and blob columns.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("domain: unsupported JSONMap source type")
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// UserStatus is the durable mirror of a user's live presence state. One row
// per user, created lazily on the first presence event. The live connection
// registry — not this row — decides whether real-time delivery is attempted;
// this row may lag briefly behind the in-memory state.
//
// Fields:
//   - UserID: stable user identifier; unique (one row per user).
//   - IsOnline: whether a live connection is believed to exist.
//   - Status: online|offline|away|busy.
//   - LastSeen: updated on every presence transition.
//   - TypingTo: who the user is typing to, or nil; cleared on disconnect.
type UserStatus struct {
	ID        uint           `json:"id"        gorm:"primaryKey;autoIncrement"`
	UserID    string         `json:"user_id"   gorm:"type:varchar(64);not null;uniqueIndex"`
	IsOnline  bool           `json:"is_online" gorm:"not null;default:false"`
	Status    string         `json:"status"    gorm:"type:varchar(16);not null;default:'offline';check:status IN ('online','offline','away','busy')"`
	LastSeen  *time.Time     `json:"last_seen"`
	TypingTo  *string        `json:"typing_to" gorm:"type:varchar(64)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`
}

// TableName returns the database table name for UserStatus.
func (UserStatus) TableName() string { return "user_statuses" }

// Notification is a persisted notification addressed to UserID, generated by
// an action of FromUserID (a like, a message). Bursts of equivalent
// notifications are collapsed by the deduplication window before rows are
// created.
type Notification struct {
	ID         string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_user_notifications"`
	FromUserID string         `json:"from_user_id" gorm:"type:varchar(64);not null;index"`
	Type       string         `json:"type"         gorm:"type:varchar(32);not null;index"`
	Title      string         `json:"title"        gorm:"type:varchar(255);not null"`
	Message    string         `json:"message"      gorm:"type:text;not null"`
	Data       JSONMap        `json:"data"         gorm:"type:text"`
	IsRead     bool           `json:"is_read"      gorm:"not null;default:false"`
	ReadAt     *time.Time     `json:"read_at"`
	CreatedAt  time.Time      `json:"created_at"   gorm:"index"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// Like records that LikerID liked LikedUserID's profile. The pair is unique:
// like/unlike is idempotent at the relationship level, which is what makes
// the notification dedup race (two near-simultaneous likes both passing the
// window check) an accepted trade-off rather than a correctness bug.
// Likes are deleted for real on unlike: a soft-deleted row would keep the
// unique slot occupied and block a re-like.
type Like struct {
	ID          string    `json:"id"            gorm:"type:char(36);primaryKey"`
	LikerID     string    `json:"liker_id"      gorm:"type:varchar(64);not null;index;uniqueIndex:ux_likes_pair"`
	LikedUserID string    `json:"liked_user_id" gorm:"type:varchar(64);not null;index;uniqueIndex:ux_likes_pair"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string { return "likes" }
