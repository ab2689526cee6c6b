// Package handlers – profile like endpoints.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/services"
)

// Like handles POST /likes/:id: the caller likes user :id's profile. The
// liked user gets a real-time notification unless the dedup window collapses
// it.
func (h *Handlers) Like(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	target := c.Param("id")
	if target == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing user id")
		return
	}

	like, err := h.likeSvc.Like(c.Request.Context(), uid, target)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfLike):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot like your own profile")
		case errors.Is(err, services.ErrAlreadyLiked):
			fail(c, http.StatusConflict, ErrCodeConflict, "profile already liked")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not record like")
		}
		return
	}
	ok(c, http.StatusCreated, like)
}

// Unlike handles DELETE /likes/:id: the caller removes their like of user
// :id's profile, revoking the matching notification.
func (h *Handlers) Unlike(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	target := c.Param("id")
	if target == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing user id")
		return
	}

	if err := h.likeSvc.Unlike(c.Request.Context(), uid, target); err != nil {
		if errors.Is(err, services.ErrLikeNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "like not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not remove like")
		return
	}
	noContent(c)
}

// LikesReceived handles GET /likes/received.
func (h *Handlers) LikesReceived(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	likes, err := h.likeSvc.ListReceived(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list likes")
		return
	}
	ok(c, http.StatusOK, gin.H{"likes": likes, "count": len(likes)})
}

// LikesGiven handles GET /likes/given.
func (h *Handlers) LikesGiven(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	likes, err := h.likeSvc.ListGiven(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list likes")
		return
	}
	ok(c, http.StatusOK, gin.H{"likes": likes, "count": len(likes)})
}
