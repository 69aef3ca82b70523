package models

import "github.com/google/uuid"

// Seat is either Empty (dealt but nobody sits there yet) or Bound to a user.
// The zero value is an empty seat.
type Seat struct {
	userID uuid.UUID
	bound  bool
}

// EmptySeat returns an unbound seat.
func EmptySeat() Seat { return Seat{} }

// BoundSeat returns a seat bound to the given user.
func BoundSeat(userID uuid.UUID) Seat { return Seat{userID: userID, bound: true} }

// Bound returns the seated user and true, or uuid.Nil and false for an empty seat.
func (s Seat) Bound() (uuid.UUID, bool) {
	return s.userID, s.bound
}

// Empty reports whether nobody sits in the seat.
func (s Seat) Empty() bool { return !s.bound }
