package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, c *Client) ([]byte, bool) {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		return data, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the hub")
		return nil, false
	}
}

func TestHub_PublishReachesOnlyTheGame(t *testing.T) {
	h, _ := runHub(t)
	gameA, gameB := uuid.New(), uuid.New()

	watcherA := NewClient(gameA)
	watcherB := NewClient(gameB)
	h.Register(watcherA)
	h.Register(watcherB)

	player := uuid.New()
	h.Publish(Event{Type: EventTurn, GameID: gameA, PlayerID: &player, Turn: 3})

	data, ok := receive(t, watcherA)
	if !ok {
		t.Fatal("watcher channel closed")
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != EventTurn || ev.GameID != gameA || ev.Turn != 3 || ev.PlayerID == nil || *ev.PlayerID != player {
		t.Errorf("received %+v", ev)
	}

	select {
	case data := <-watcherB.Send:
		t.Errorf("watcher of another game received %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	h, _ := runHub(t)
	gameID := uuid.New()

	c := NewClient(gameID)
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c)

	if _, ok := receive(t, c); ok {
		t.Error("Send still open after Unregister")
	}
	if n := h.Subscribers(gameID); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h, _ := runHub(t)
	gameID := uuid.New()

	slow := NewClient(gameID)
	h.Register(slow)

	for i := 0; i <= cap(slow.Send); i++ {
		h.BroadcastToGame(gameID, []byte("x"))
	}

	deadline := time.Now().Add(time.Second)
	for h.Subscribers(gameID) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	drained := 0
	for range slow.Send {
		drained++
	}
	if drained != cap(slow.Send) {
		t.Errorf("drained %d buffered events, want %d", drained, cap(slow.Send))
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	h, cancel := runHub(t)
	c := NewClient(uuid.New())
	if !h.Register(c) {
		t.Fatal("Register() on a running hub = false")
	}

	cancel()
	if _, ok := receive(t, c); ok {
		t.Error("Send still open after the hub stopped")
	}
	if h.Register(NewClient(uuid.New())) {
		t.Error("Register() on a stopped hub = true")
	}
}
