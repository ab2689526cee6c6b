// Package services — durable status store adapter.
//
// GormStatusStore adapts the repository free functions to the
// realtime.StatusStore interface expected by the presence state machine.
// This keeps the realtime core decoupled from the concrete repo package
// while reusing existing functions.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/realtime"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// GormStatusStore persists presence state through GORM.
type GormStatusStore struct {
	DB *gorm.DB
}

// UpsertPresence proxies repo.UpsertPresence.
func (s GormStatusStore) UpsertPresence(ctx context.Context, userID string, isOnline bool, now time.Time) error {
	return repo.UpsertPresence(ctx, s.DB, userID, isOnline, now)
}

// SetStatus proxies repo.SetStatus.
func (s GormStatusStore) SetStatus(ctx context.Context, userID, status string, now time.Time) (*domain.UserStatus, error) {
	return repo.SetStatus(ctx, s.DB, userID, status, now)
}

// SetOffline proxies repo.SetOffline.
func (s GormStatusStore) SetOffline(ctx context.Context, userID string, now time.Time) (bool, error) {
	return repo.SetOffline(ctx, s.DB, userID, now)
}

// SetTyping proxies repo.SetTyping.
func (s GormStatusStore) SetTyping(ctx context.Context, userID string, typingTo *string) error {
	return repo.SetTyping(ctx, s.DB, userID, typingTo)
}

var _ realtime.StatusStore = GormStatusStore{}
