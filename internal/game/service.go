// Package game is the server-authoritative core of Spot the Same: it creates and
// deals games, seats players, arbitrates concurrent guesses and chains rematches.
//
// Every operation takes the caller's already-resolved user ID as a parameter; the
// HTTP layer is responsible for authenticating the request before calling in.
//
// Concurrency: a Game row is the unit of shared state. Guesses are arbitrated with
// a compare-and-swap on games.turn (see TakeTurn); lifecycle operations (join,
// start, leave, vote, rematch) read the game row FOR UPDATE inside a transaction.
// Different games never contend with each other.
package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/deck"
	"github.com/trentd187/spot-the-same/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service runs game use-cases against the database.
type Service struct {
	db *gorm.DB

	rngMu sync.Mutex // *rand.Rand is not safe for concurrent use
	rng   *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded default.
func NewService(db *gorm.DB, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{db: db, rng: rng}
}

// shuffleCard returns the card's symbols in a new random order.
func (s *Service) shuffleCard(c deck.Card) deck.Card {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return deck.Shuffle(s.rng, c)
}

// deal generates a fresh deck for the deck size and deals it to the given number of seats.
func (s *Service) deal(deckSize, seats int) (deck.Card, []deck.Deck, error) {
	d, err := deck.Generate(deck.Order(deckSize))
	if err != nil {
		return nil, nil, ErrInvalidDeckSize
	}
	if err := deck.CheckAssets(d); err != nil {
		return nil, nil, err
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	active, hands := deck.Deal(s.rng, d, seats)
	return active, hands, nil
}

// --- Queries ---

// GetGame returns the game or ErrGameNotFound.
func (s *Service) GetGame(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	var g models.Game
	if err := s.db.WithContext(ctx).First(&g, "id = ?", gameID).Error; err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	return &g, nil
}

// GetGameByCode resolves a join code to its game.
func (s *Service) GetGameByCode(ctx context.Context, code string) (*models.Game, error) {
	var g models.Game
	if err := s.db.WithContext(ctx).First(&g, "join_code = ?", normalizeJoinCode(code)).Error; err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	return &g, nil
}

// ListGames returns the most recently created games, newest first.
func (s *Service) ListGames(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var games []models.Game
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&games).Error
	return games, err
}

// GetPlayerCards returns the player's remaining hand, top card first. A player
// without a seat in the game gets an empty hand.
func (s *Service) GetPlayerCards(ctx context.Context, gameID, userID uuid.UUID) (deck.Deck, error) {
	var details models.GameDetails
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		First(&details).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return deck.Deck{}, nil
	}
	if err != nil {
		return nil, err
	}
	hand := details.Hand()
	if hand == nil {
		hand = deck.Deck{}
	}
	return hand, nil
}

// GetSeats returns every seat of the game in seat order.
func (s *Service) GetSeats(ctx context.Context, gameID uuid.UUID) ([]models.GameDetails, error) {
	return seatsOf(s.db.WithContext(ctx), gameID)
}

// GetTurnsByGame returns the game's turn log ordered by round, then by insertion.
func (s *Service) GetTurnsByGame(ctx context.Context, gameID uuid.UUID) ([]models.Turn, error) {
	var turns []models.Turn
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("turn ASC").Order("id ASC").
		Find(&turns).Error
	return turns, err
}

// GetUsersByIDs returns one entry per requested ID, in the same order, with nil
// for IDs that do not match a user.
func (s *Service) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	out := make([]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out, nil
}

// IsParticipant reports whether the user is on the game's roster, holds one of its
// seats, or created it.
func (s *Service) IsParticipant(ctx context.Context, gameID, userID uuid.UUID) (bool, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return false, err
	}
	if g.HasPlayer(userID) || g.CreatedBy == userID {
		return true, nil
	}
	var seats int64
	err = s.db.WithContext(ctx).Model(&models.GameDetails{}).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		Count(&seats).Error
	return seats > 0, err
}

// --- helpers shared by the mutations ---

// lockGame loads the game row for update. The lock is held until the surrounding
// transaction ends. SQLite ignores the locking clause; its single writer
// connection gives the same serialization.
func lockGame(tx *gorm.DB, gameID uuid.UUID) (*models.Game, error) {
	var g models.Game
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, "id = ?", gameID).Error
	if err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	return &g, nil
}

// requireUser fails with ErrNotRegistered unless the user has signed up.
func requireUser(tx *gorm.DB, userID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotRegistered
	}
	return nil
}

func seatsOf(tx *gorm.DB, gameID uuid.UUID) ([]models.GameDetails, error) {
	var seats []models.GameDetails
	err := tx.Where("game_id = ?", gameID).Order("seat_number ASC").Find(&seats).Error
	return seats, err
}
