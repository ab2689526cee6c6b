// Package handlers – user status endpoints.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/services"
)

// UpdateStatusRequest is the payload for PUT /status.
type UpdateStatusRequest struct {
	// One of: online, offline, away, busy. Empty keeps the stored value.
	Status string `json:"status"`
}

// UpdateStatus handles PUT /status. It applies the caller's status change
// and returns the updated durable row. The change is broadcast to all live
// connections even when the value did not change.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON payload")
		return
	}

	row, err := h.statusSvc.UpdateStatus(c.Request.Context(), uid, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be one of online, offline, away, busy")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "could not update status")
		return
	}
	ok(c, http.StatusOK, row)
}

// GoOffline handles POST /status/offline, the explicit client-initiated
// offline transition (e.g. on logout).
func (h *Handlers) GoOffline(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	if err := h.statusSvc.SetOffline(c.Request.Context(), uid); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "could not set offline")
		return
	}
	noContent(c)
}

// GetStatus handles GET /status/:id and returns a user's durable status row.
func (h *Handlers) GetStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing user id")
		return
	}

	row, err := h.statusSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrStatusNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no status recorded for user")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load status")
		return
	}
	ok(c, http.StatusOK, row)
}

// OnlineStatuses handles GET /status/online and returns the durable rows of
// all online users, excluding the caller.
func (h *Handlers) OnlineStatuses(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	rows, err := h.statusSvc.OnlineUsers(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list online users")
		return
	}
	ok(c, http.StatusOK, gin.H{"users": rows, "count": len(rows)})
}
