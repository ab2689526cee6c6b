// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the UserStatus
// model — the durable, best-effort mirror of live presence state.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// UpsertPresence records an online/offline transition for userID using
// find-or-create semantics: the row is created lazily on the first presence
// event and updated on every subsequent one. Going offline also clears the
// typing edge, mirroring the in-memory cleanup on disconnect.
func UpsertPresence(ctx context.Context, db *gorm.DB, userID string, isOnline bool, now time.Time) error {
	status := domain.StatusOffline
	if isOnline {
		status = domain.StatusOnline
	}

	var row domain.UserStatus
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = domain.UserStatus{
			UserID:   userID,
			IsOnline: isOnline,
			Status:   status,
			LastSeen: &now,
		}
		return db.WithContext(ctx).Create(&row).Error
	case err != nil:
		return err
	}

	updates := map[string]any{
		"is_online": isOnline,
		"status":    status,
		"last_seen": now,
	}
	if !isOnline {
		updates["typing_to"] = nil
	}
	return db.WithContext(ctx).Model(&row).Updates(updates).Error
}

// SetStatus updates the status and last_seen for userID, creating the row
// defaulted to online/now when absent. An empty status keeps the stored
// value (matching the REST contract, where status is optional). It returns
// the row as persisted.
func SetStatus(ctx context.Context, db *gorm.DB, userID, status string, now time.Time) (*domain.UserStatus, error) {
	var row domain.UserStatus
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if status == "" {
			status = domain.StatusOnline
		}
		row = domain.UserStatus{
			UserID:   userID,
			IsOnline: true,
			Status:   status,
			LastSeen: &now,
		}
		if err := db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, err
		}
		return &row, nil
	case err != nil:
		return nil, err
	}

	if status == "" {
		status = row.Status
	}
	if err := db.WithContext(ctx).Model(&row).Updates(map[string]any{
		"status":    status,
		"last_seen": now,
	}).Error; err != nil {
		return nil, err
	}
	row.Status = status
	row.LastSeen = &now
	return &row, nil
}

// SetOffline marks an existing row offline and clears the typing edge.
// When no row exists it does nothing and reports found=false; explicit
// offline for a user who never had a presence event silently succeeds.
func SetOffline(ctx context.Context, db *gorm.DB, userID string, now time.Time) (found bool, err error) {
	var row domain.UserStatus
	err = db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = db.WithContext(ctx).Model(&row).Updates(map[string]any{
		"is_online": false,
		"status":    domain.StatusOffline,
		"last_seen": now,
		"typing_to": nil,
	}).Error
	return true, err
}

// SetTyping persists the outgoing typing edge for userID (nil clears it).
// Missing rows are a no-op: typing state is best-effort and never creates
// a status row on its own.
func SetTyping(ctx context.Context, db *gorm.DB, userID string, typingTo *string) error {
	var row domain.UserStatus
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&row).Update("typing_to", typingTo).Error
}

// GetStatus fetches the status row for userID.
func GetStatus(ctx context.Context, db *gorm.DB, userID string) (*domain.UserStatus, error) {
	var row domain.UserStatus
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListOnline returns the status rows of all online users except excludeUserID.
func ListOnline(ctx context.Context, db *gorm.DB, excludeUserID string) ([]domain.UserStatus, error) {
	var out []domain.UserStatus
	err := db.WithContext(ctx).
		Where("is_online = ? AND user_id <> ?", true, excludeUserID).
		Order("last_seen DESC").
		Find(&out).Error
	return out, err
}
