// Package live fans game events out to the players watching a game.
// Browsers subscribe with Server-Sent Events (GET /api/v1/games/:id/events) and the
// handlers publish an Event after every state change, so clients learn that a round
// was won or a player joined without polling the API.
package live

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// EventType names what happened to a game.
type EventType string

const (
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventGameStarted  EventType = "game_started"
	EventTurn         EventType = "turn"    // a round was won
	EventMistake      EventType = "mistake" // a wrong tap was logged
	EventGameFinished EventType = "game_finished"
	EventVote         EventType = "play_again_vote"
	EventRematch      EventType = "rematch"
	EventGameDeleted  EventType = "game_deleted"
)

// Event is the JSON payload written to subscribers. Game carries the snapshot
// the publisher had after the change (any JSON-encodable value); only the other
// fields relevant to Type are set.
type Event struct {
	Type       EventType  `json:"type"`
	GameID     uuid.UUID  `json:"gameId"`
	PlayerID   *uuid.UUID `json:"playerId,omitempty"`
	Turn       int        `json:"turn"`
	Votes      int        `json:"votes,omitempty"`
	NextGameID *uuid.UUID `json:"nextGameId,omitempty"`
	Game       any        `json:"game,omitempty"`
}

// Client is one subscriber. The hub writes encoded events to Send; the SSE
// writer drains it. Send is closed when the client is unregistered.
type Client struct {
	GameID uuid.UUID
	Send   chan []byte
}

// NewClient returns a client subscribed to gameID with a small send buffer.
func NewClient(gameID uuid.UUID) *Client {
	return &Client{GameID: gameID, Send: make(chan []byte, 16)}
}

type message struct {
	gameID uuid.UUID
	data   []byte
}

// Hub tracks subscribers per game. All changes to the client set happen on the
// Run goroutine; mu only guards reads from other goroutines (Subscribers).
type Hub struct {
	clients map[uuid.UUID]map[*Client]bool

	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a hub. Call Run in its own goroutine before using it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for gameID, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, gameID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.GameID] == nil {
				h.clients[client.GameID] = make(map[*Client]bool)
			}
			h.clients[client.GameID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.gameID] {
				select {
				case client.Send <- msg.data:
				default:
					// Slow reader; drop it rather than stall every other game.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove deletes the client and closes its channel. Callers hold mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.GameID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.GameID)
	}
}

// Publish encodes the event and queues it for everyone watching its game.
// It never blocks the caller: when the queue is full the event is dropped.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("live: encode %s event: %v", ev.Type, err)
		return
	}
	h.BroadcastToGame(ev.GameID, data)
}

// BroadcastToGame queues raw data for every client watching gameID.
func (h *Hub) BroadcastToGame(gameID uuid.UUID, data []byte) {
	select {
	case h.broadcast <- message{gameID: gameID, data: data}:
	default:
		log.Printf("live: broadcast queue full, dropping event for game %s", gameID)
	}
}

// Register starts delivering events for the client's game. It reports false
// once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister stops delivery and closes client.Send. Unregistering twice is harmless.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns how many clients are watching the game.
func (h *Hub) Subscribers(gameID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[gameID])
}
