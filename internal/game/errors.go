package game

import (
	"errors"

	"gorm.io/gorm"
)

// Failures returned by Service operations. A stale guess is not one of them:
// TakeTurn reports it through TurnResult.TooSlow.
var (
	ErrGameNotFound     = errors.New("game not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotSeated        = errors.New("player has no seat in this game")
	ErrNotRegistered    = errors.New("user not registered")
	ErrGameFull         = errors.New("game is full")
	ErrGameStarted      = errors.New("game already started")
	ErrGameNotStarted   = errors.New("game not started")
	ErrGameNotFinished  = errors.New("game not finished")
	ErrRosterIncomplete = errors.New("not all players have joined")
	ErrInvalidDeckSize  = errors.New("invalid deck size")
	ErrInvalidPlayers   = errors.New("invalid number of players")
	ErrNoJoinCode       = errors.New("could not allocate a join code")
)

// IsNotFound reports whether err is one of the "row is missing" failures.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNotSeated)
}

// notFound maps gorm's missing-row error to the given domain error and leaves
// every other error untouched.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
