package game

import (
	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/models"
)

// BindSeats decides who sits where when a game starts.
//
// seats is every seat of the game in seat-number order. Seats that are already
// bound keep their player. Each roster player without a seat, taken in roster
// order, gets the lowest-numbered empty seat. Players left over when the seats
// run out stay unseated. The result is a new slice; the input is not modified.
func BindSeats(seats []models.Seat, roster []uuid.UUID) []models.Seat {
	out := make([]models.Seat, len(seats))
	copy(out, seats)

	seated := make(map[uuid.UUID]bool, len(out))
	for _, s := range out {
		if id, ok := s.Bound(); ok {
			seated[id] = true
		}
	}

	next := 0
	for _, player := range roster {
		if seated[player] {
			continue
		}
		for next < len(out) && !out[next].Empty() {
			next++
		}
		if next == len(out) {
			break
		}
		out[next] = models.BoundSeat(player)
		seated[player] = true
	}
	return out
}
