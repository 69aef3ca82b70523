package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/spot-the-same/internal/game"
	"github.com/trentd187/spot-the-same/internal/live"
	// fasthttp is the HTTP engine under fiber; its StreamWriter lets a handler keep
	// writing to the response after returning.
	"github.com/valyala/fasthttp"
)

// keepAliveInterval is how often an idle stream sends a comment line so proxies
// do not close it.
const keepAliveInterval = 15 * time.Second

// EventSnapshot is the first event on every stream: the game as it is now.
const EventSnapshot live.EventType = "snapshot"

// GameEvents returns a handler for GET /api/v1/games/:id/events.
// It is a Server-Sent Events stream: one "data:" line of JSON (a live.Event) per
// change to the game, starting with a snapshot. The stream ends when the
// client disconnects, the hub drops a client that stopped reading, or the
// server shuts down.
func GameEvents(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, ok := gameIDParam(c)
		if !ok {
			return badRequest(c, "invalid game ID")
		}

		g, err := svc.GetGame(c.UserContext(), gameID)
		if err != nil {
			return writeError(c, err)
		}
		snapshot, err := json.Marshal(live.Event{
			Type:   EventSnapshot,
			GameID: g.ID,
			Turn:   g.Turn,
			Votes:  g.NoPlayAgainPlayers,
			Game:   gameResponse(g),
		})
		if err != nil {
			return writeError(c, err)
		}

		client := live.NewClient(gameID)
		if !hub.Register(client) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "shutting down"})
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer hub.Unregister(client)

			if writeSSE(w, snapshot) != nil {
				return
			}

			ticker := time.NewTicker(keepAliveInterval)
			defer ticker.Stop()

			for {
				select {
				case data, ok := <-client.Send:
					if !ok {
						return
					}
					if writeSSE(w, data) != nil {
						return
					}
				case <-ticker.C:
					// A failed flush is how we notice the client went away.
					if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
						return
					}
					if w.Flush() != nil {
						return
					}
				}
			}
		}))
		return nil
	}
}

// writeSSE writes one event and flushes it to the connection.
func writeSSE(w *bufio.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
