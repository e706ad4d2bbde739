package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// IdentityLocal is the fiber local holding the authenticated identity ID
const IdentityLocal = "identity_id"

func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		identityID, ok := c.Locals(IdentityLocal).(uuid.UUID)
		if !ok || identityID == uuid.Nil {
			_ = c.Close()
			return
		}

		client := &Client{
			hub:        hub,
			conn:       c,
			identityID: identityID,
			send:       make(chan []byte, 256),
		}

		hub.register <- client

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
