package handler

import (
	"context"
	"strconv"

	"fitcommunity/config"
	"fitcommunity/internal/auth"
	"fitcommunity/internal/domain"
	"fitcommunity/internal/logging"
	"fitcommunity/internal/service"
	"fitcommunity/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// inboundFrame is what clients send over the chat socket.
type inboundFrame struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	MediaURL string `json:"media_url"`
}

// UpgradeChatWS serves /ws/chat?token=&chat_id=. Inbound "message" frames go
// through ChatService.Send, so they are stored, fanned out and notified
// exactly like REST sends.
func UpgradeChatWS(cfg *config.JWTConfig, hub *ws.ChatHub, chats *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			respondError(c, domain.Unauthenticated("token required"))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			respondError(c, domain.Unauthenticated("invalid token"))
			return
		}
		chatID, err := strconv.ParseUint(c.Query("chat_id"), 10, 64)
		if err != nil || chatID == 0 {
			respondError(c, domain.Invalid("invalid chat_id"))
			return
		}
		if err := chats.CanJoin(claims.UserID, uint(chatID)); err != nil {
			respondError(c, err)
			return
		}
		conn, err := ws.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		log := logging.Ctx(c.Request.Context()).With().Uint("user_id", claims.UserID).Uint64("chat_id", chatID).Logger()
		// frames run on a context detached from the upgrade request
		ctx := logging.WithRequestID(context.Background(), logging.RequestID(c.Request.Context()))
		client := ws.NewClient(claims.UserID, uint(chatID))
		hub.Join(client)
		defer hub.Leave(client)
		log.Debug().Msg("chat socket opened")

		ws.Serve(conn, client, func(raw []byte) {
			var f inboundFrame
			if json.Unmarshal(raw, &f) != nil || f.Type != "message" {
				return
			}
			if _, err := chats.Send(ctx, claims.UserID, uint(chatID), f.Content, f.MediaURL); err != nil {
				log.Warn().Err(err).Msg("chat socket send failed")
				if b, mErr := json.Marshal(map[string]string{"type": "error", "error": err.Error()}); mErr == nil {
					select {
					case client.Send <- b:
					default:
					}
				}
			}
		})
		log.Debug().Msg("chat socket closed")
	}
}
