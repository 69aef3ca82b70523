package game

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/database"
	"github.com/trentd187/spot-the-same/internal/deck"
	"github.com/trentd187/spot-the-same/internal/models"
	"gorm.io/gorm"
)

// newTestService returns a Service over a fresh in-memory SQLite database.
func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return NewService(db, rand.New(rand.NewSource(42))), db
}

// newUser registers a user and returns its ID.
func newUser(t *testing.T, db *gorm.DB, email string) uuid.UUID {
	t.Helper()
	u := models.User{Email: email}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u.ID
}

// startedGame creates a game for the given users (first one creates) and has the
// rest join, which starts it.
func startedGame(t *testing.T, svc *Service, deckSize int, players ...uuid.UUID) *models.Game {
	t.Helper()
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, players[0], len(players), deckSize)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	for _, p := range players[1:] {
		if g, err = svc.JoinGame(ctx, g.ID, p); err != nil {
			t.Fatalf("join game: %v", err)
		}
	}
	if !g.Started {
		t.Fatalf("game did not start after the roster filled")
	}
	return g
}

// topCard returns the player's current top card.
func topCard(t *testing.T, svc *Service, gameID, playerID uuid.UUID) deck.Card {
	t.Helper()
	hand, err := svc.GetPlayerCards(context.Background(), gameID, playerID)
	if err != nil {
		t.Fatalf("get cards: %v", err)
	}
	if len(hand) == 0 {
		t.Fatalf("player %s has no cards", playerID)
	}
	return hand[0]
}

// matchingGuess builds a correct guess for the player against the current state.
func matchingGuess(t *testing.T, svc *Service, gameID, playerID uuid.UUID) Guess {
	t.Helper()
	g, err := svc.GetGame(context.Background(), gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	top := topCard(t, svc, gameID, playerID)
	shared := top.Shared(g.Active())
	if len(shared) != 1 {
		t.Fatalf("top card %v and active card %v share %v", top, g.Active(), shared)
	}
	return Guess{
		GameID:        gameID,
		PlayerID:      playerID,
		Card:          top,
		Turn:          g.Turn,
		GuessedSymbol: shared[0],
		ReactionMs:    500,
		ActiveAtGuess: g.Active(),
	}
}
