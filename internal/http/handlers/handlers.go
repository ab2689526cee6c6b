// Package handlers — wiring and shared contracts.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. Service contracts
// are defined here as interfaces so the transport stays decoupled from the
// concrete service structs.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/realtime"
)

// StatusService defines user-status operations consumed by HTTP handlers.
type StatusService interface {
	// UpdateStatus applies (and broadcasts) a status change for userID.
	UpdateStatus(ctx context.Context, userID, status string) (*domain.UserStatus, error)
	// SetOffline applies the explicit offline transition for userID.
	SetOffline(ctx context.Context, userID string) error
	// Get returns userID's durable status row.
	Get(ctx context.Context, userID string) (*domain.UserStatus, error)
	// OnlineUsers lists online users' rows, excluding the caller.
	OnlineUsers(ctx context.Context, userID string) ([]domain.UserStatus, error)
}

// NotificationService defines notification read-model operations.
type NotificationService interface {
	// ListPage returns a page of userID's notifications and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, int64, error)
	// MarkRead flags one notification as read.
	MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error)
	// MarkAllRead flags all of userID's unread notifications as read.
	MarkAllRead(ctx context.Context, userID string) error
	// Delete removes one of userID's notifications.
	Delete(ctx context.Context, userID, notificationID string) error
	// UnreadCount returns the number of unread notifications.
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// LikeService defines the like/unlike workflow operations.
type LikeService interface {
	// Like records a like and notifies the liked user.
	Like(ctx context.Context, likerID, likedUserID string) (*domain.Like, error)
	// Unlike removes a like and revokes its notification.
	Unlike(ctx context.Context, likerID, likedUserID string) error
	// ListReceived returns likes aimed at userID.
	ListReceived(ctx context.Context, userID string) ([]domain.Like, error)
	// ListGiven returns likes made by userID.
	ListGiven(ctx context.Context, userID string) ([]domain.Like, error)
}

// PresenceIntrospection exposes the live registry's read-only views to REST
// collaborators.
type PresenceIntrospection interface {
	OnlineCount() int
	OnlineUserIDs() []string
	TypingEdges() []realtime.TypingEdge
}

// Handlers groups the HTTP endpoints for status, notifications, likes, and
// presence introspection.
type Handlers struct {
	statusSvc StatusService
	notifSvc  NotificationService
	likeSvc   LikeService
	presence  PresenceIntrospection
}

// New constructs a Handlers instance bound to the given services.
func New(statusSvc StatusService, notifSvc NotificationService, likeSvc LikeService, presence PresenceIntrospection) *Handlers {
	return &Handlers{
		statusSvc: statusSvc,
		notifSvc:  notifSvc,
		likeSvc:   likeSvc,
		presence:  presence,
	}
}

// userID extracts the authenticated user id from the Gin context (set by the
// auth middleware). If absent it falls back to the "X-User-ID" header (tests
// use it). It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
