package stream

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SnapshotSource supplies the current full snapshot of a user's partition,
// sent once when a listener connects.
type SnapshotSource interface {
	SnapshotJSON(ctx context.Context, userID string) ([]byte, error)
}

func RegisterRoutes(r fiber.Router, hub *Hub, snapshots SnapshotSource) {
	r.Get("/ws/:userID", websocket.New(func(c *websocket.Conn) {
		userID := c.Params("userID")
		client := hub.Register(userID)

		if snapshots != nil {
			initial, err := snapshots.SnapshotJSON(context.Background(), userID)
			if err != nil {
				log.Printf("initial snapshot error: %v", err)
			} else if err := c.WriteMessage(websocket.TextMessage, initial); err != nil {
				hub.Unregister(client)
				return
			}
		}

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
