// Package handlers – presence introspection endpoints.
//
// These read straight from the in-memory registry, not the database: they
// answer "who is connected right now", which can briefly disagree with the
// durable status rows while a write is in flight.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PresenceOnline handles GET /presence/online and returns the ids of users
// with a live connection.
func (h *Handlers) PresenceOnline(c *gin.Context) {
	ids := h.presence.OnlineUserIDs()
	ok(c, http.StatusOK, gin.H{"user_ids": ids, "count": len(ids)})
}

// PresenceTyping handles GET /presence/typing and returns the active typing
// edges.
func (h *Handlers) PresenceTyping(c *gin.Context) {
	edges := h.presence.TypingEdges()
	ok(c, http.StatusOK, gin.H{"typing": edges, "count": len(edges)})
}
