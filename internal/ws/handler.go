// Package ws — connection admission and upgrade.
package ws

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/auth"
	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/realtime"
)

// Handler admits and serves websocket connections. Admission happens before
// the upgrade: a connection that fails verification is rejected with 401
// and no registry state is created.
type Handler struct {
	verifier auth.Verifier
	presence *realtime.Presence
	cfg      config.WSConfig
	upgrader websocket.Upgrader
}

// NewHandler wires the websocket endpoint.
func NewHandler(verifier auth.Verifier, presence *realtime.Presence, cfg config.WSConfig) *Handler {
	return &Handler{
		verifier: verifier,
		presence: presence,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect cross-origin; REST CORS policy is
			// enforced separately and the credential is the admission gate.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. The credential comes from the "token" query
// parameter or a bearer Authorization header.
func (h *Handler) Serve(c *gin.Context) {
	token := credentialFrom(c)
	userID, err := h.verifier.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    "unauthorized",
			"message": "invalid or missing credential",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Warn().Str("user_id", userID).Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(userID, conn, h.cfg, h.presence)
	h.presence.HandleConnect(c.Request.Context(), userID, client)

	go client.writePump()
	go client.readPump()
}

// credentialFrom extracts the token from the query string or the
// Authorization header.
func credentialFrom(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
