// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model, including the recent-duplicate query used by the
// deduplication window.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateNotification inserts a new notification row.
func CreateNotification(db *gorm.DB, userID, fromUserID, ntype, title, message string, data domain.JSONMap) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:         uuid.NewString(),
		UserID:     userID,
		FromUserID: fromUserID,
		Type:       ntype,
		Title:      title,
		Message:    message,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
	return n, db.Create(n).Error
}

// CountRecentNotifications counts notifications matching
// (userID, fromUserID, ntype) created at or after since. The deduplicator
// suppresses a new notification when this is non-zero. The query is
// unscoped on purpose: a revoked (soft-deleted) notification still counts,
// so a like/unlike/like toggle inside the window yields one notification,
// not one per toggle.
func CountRecentNotifications(db *gorm.DB, userID, fromUserID, ntype string, since time.Time) (int64, error) {
	var total int64
	err := db.Unscoped().Model(&domain.Notification{}).
		Where("user_id = ? AND from_user_id = ? AND type = ? AND created_at >= ?", userID, fromUserID, ntype, since).
		Count(&total).Error
	return total, err
}

// LatestNotification returns the most recently created notification matching
// (userID, fromUserID, ntype), or gorm.ErrRecordNotFound.
func LatestNotification(db *gorm.DB, userID, fromUserID, ntype string) (*domain.Notification, error) {
	var n domain.Notification
	err := db.
		Where("user_id = ? AND from_user_id = ? AND type = ?", userID, fromUserID, ntype).
		Order("created_at DESC").
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNotification fetches a notification by ID.
func GetNotification(db *gorm.DB, id string) (*domain.Notification, error) {
	var n domain.Notification
	if err := db.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNotification removes a notification row (soft delete).
func DeleteNotification(db *gorm.DB, id string) error {
	return db.Delete(&domain.Notification{}, "id = ?", id).Error
}

// CountNotifications uses a raw COUNT so a missing table surfaces as an error.
func CountNotifications(db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND deleted_at IS NULL", userID).Scan(&total).Error
	return total, err
}

// ListNotificationsPage returns a page of a user's notifications, newest first.
func ListNotificationsPage(db *gorm.DB, userID string, offset, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UnreadNotificationCount counts a user's unread notifications.
func UnreadNotificationCount(db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&total).Error
	return total, err
}

// MarkNotificationRead flags a single notification as read.
func MarkNotificationRead(db *gorm.DB, id string, now time.Time) error {
	return db.Model(&domain.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error
}

// MarkAllNotificationsRead flags every unread notification for userID as read.
func MarkAllNotificationsRead(db *gorm.DB, userID string, now time.Time) error {
	return db.Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error
}
