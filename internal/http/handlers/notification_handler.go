// Package handlers – notification endpoints.
//
// The notification surface is strictly a read model plus read-state
// bookkeeping: creation and revocation happen server-side (likes, profile
// views), never through this API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/services"
	"github.com/tbourn/go-social-backend/internal/utils"
)

// ListNotifications handles GET /notifications?page=&page_size= and returns
// the caller's notifications newest first with pagination metadata.
func (h *Handlers) ListNotifications(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.notifSvc.ListPage(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list notifications")
		return
	}
	ok(c, http.StatusOK, gin.H{
		"notifications": items,
		"pagination":    paginationFor(page, pageSize, total),
	})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *Handlers) UnreadCount(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	n, err := h.notifSvc.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not count notifications")
		return
	}
	ok(c, http.StatusOK, gin.H{"unread": n})
}

// MarkNotificationRead handles PUT /notifications/:id/read.
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	n, err := h.notifSvc.MarkRead(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotificationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")
		case errors.Is(err, services.ErrForbiddenNotification):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "notification belongs to another user")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "could not mark notification read")
		}
		return
	}
	ok(c, http.StatusOK, n)
}

// MarkAllNotificationsRead handles PUT /notifications/read-all.
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	if err := h.notifSvc.MarkAllRead(c.Request.Context(), uid); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "could not mark notifications read")
		return
	}
	noContent(c)
}

// DeleteNotification handles DELETE /notifications/:id.
func (h *Handlers) DeleteNotification(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	err := h.notifSvc.Delete(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotificationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")
		case errors.Is(err, services.ErrForbiddenNotification):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "notification belongs to another user")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete notification")
		}
		return
	}
	noContent(c)
}
