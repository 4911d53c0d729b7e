package handlers

import (
	"context"
	"time"

	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const wsAuthTimeout = 10 * time.Second

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// WSHandler streams booking events to the authenticated user. The first
// frame a client sends must be {"type":"auth","token":"<jwt>"}.
type WSHandler struct {
	ctx    context.Context
	hub    *websocket.Hub
	secret string
}

func NewWSHandler(ctx context.Context, hub *websocket.Hub, secret string) *WSHandler {
	return &WSHandler{ctx: ctx, hub: hub, secret: secret}
}

// Upgrade rejects plain HTTP requests on the websocket route.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocketcontrib.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *WSHandler) Serve() fiber.Handler {
	return websocketcontrib.New(h.serve)
}

func (h *WSHandler) serve(c *websocketcontrib.Conn) {
	_ = c.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	var msg authMessage
	if err := c.ReadJSON(&msg); err != nil || msg.Type != "auth" {
		log.Debug().Err(err).Msg("websocket auth failed: invalid or missing auth message")
		_ = c.WriteJSON(fiber.Map{"type": "error", "message": "Invalid or missing auth message"})
		_ = c.Close()
		return
	}
	actor, err := middleware.ParseToken(h.secret, msg.Token)
	if err != nil {
		log.Debug().Err(err).Msg("websocket auth failed: invalid token")
		_ = c.WriteJSON(fiber.Map{"type": "error", "message": "Invalid token"})
		_ = c.Close()
		return
	}
	_ = c.SetReadDeadline(time.Time{})

	if err := c.WriteJSON(fiber.Map{"type": "ready", "userId": actor.UserID}); err != nil {
		_ = c.Close()
		return
	}

	client := &websocket.Client{UserID: actor.UserID, Conn: c}
	h.hub.Register(h.ctx, client)
	log.Debug().Str("user_id", actor.UserID.String()).Msg("websocket client registered")
	defer func() {
		h.hub.Unregister(h.ctx, client)
		_ = c.Close()
	}()

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsUnexpectedCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Debug().Err(err).Str("user_id", actor.UserID.String()).Msg("websocket read error")
			}
			return
		}
	}
}
