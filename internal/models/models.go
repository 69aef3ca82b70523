// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a Spot the Same session where:
//   - Users create and join Games
//   - A Game owns one GameDetails row per seat (that seat's hand and score)
//   - Every guess, right or wrong, is appended to the Turn log
//   - Rematch votes are PlayAgainVote rows; a finished Game links to its rematch via NextGameID
//
// The Game row is the unit of concurrency: its Turn column is the round token that
// decides which of several simultaneous guesses wins a round.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/deck"
	// datatypes gives us JSON columns (JSONB on Postgres, JSON text on SQLite) with
	// typed accessors, so a hand of cards round-trips as [][]int without hand-written Scan/Value.
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- Enums ---
// Go doesn't have a built-in enum keyword, so we simulate them using a named string type
// plus constants.

// UserRole is a user's global permission level.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin" // Can list and delete any game
	UserRoleUser  UserRole = "user"  // Regular player
)

// TurnOutcome classifies one entry of the turn log.
type TurnOutcome string

const (
	TurnOutcomeCorrect TurnOutcome = "correct" // Won the round
	TurnOutcomeWrong   TurnOutcome = "wrong"   // Tapped a symbol that was not the match
	TurnOutcomeTooSlow TurnOutcome = "tooSlow" // Guessed against a round that had already advanced
)

// --- Models ---

// User is the minimal identity record. The identity provider owns the person;
// we only keep enough to show a name and avatar and to use the ID as a foreign key.
// Users must register (POST /api/v1/users) before they can create or join games.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExternalID *string   `gorm:"uniqueIndex:idx_users_external_id"` // Identity provider subject ("sub" claim)
	Email      string    `gorm:"uniqueIndex;not null"`
	Username   *string   // Optional display name
	AvatarURL  *string   // Optional profile picture URL
	Role       UserRole  `gorm:"type:varchar(16);not null;default:'user'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DisplayName returns the username if one is set, otherwise the email.
func (u User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

// Game is the authoritative record of one session.
//
// Turn is the round token. It is 0 while the game waits for players, becomes 1 when
// the game starts and increases by exactly one for every accepted guess. It never
// decreases and never resets.
type Game struct {
	ID                 uuid.UUID                       `gorm:"type:uuid;primaryKey"`
	JoinCode           string                          `gorm:"size:6;uniqueIndex;not null"` // Short code players type (or scan) to join
	NoExpectedPlayers  int                             `gorm:"not null"`                    // Roster size the game waits for, fixed at creation
	DeckSize           int                             `gorm:"not null"`                    // Symbols per card; the deck order is DeckSize-1
	Players            datatypes.JSONType[[]uuid.UUID] `gorm:"not null"`                    // Ordered roster
	ActiveCard         datatypes.JSONType[deck.Card]   `gorm:"not null"`                    // The shared centre card
	Started            bool                            `gorm:"not null;default:false"`
	Finished           bool                            `gorm:"not null;default:false"`
	Turn               int                             `gorm:"not null;default:0"`
	WinnerID           *uuid.UUID                      `gorm:"type:uuid"` // Whoever emptied their hand first
	Winner             *User                           `gorm:"foreignKey:WinnerID"`
	NoPlayAgainPlayers int                             `gorm:"not null;default:0"` // Rematch votes so far
	NextGameID         *uuid.UUID                      `gorm:"type:uuid"`          // Weak link to the rematch game
	CreatedBy          uuid.UUID                       `gorm:"type:uuid;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Roster returns a copy of the ordered player list.
func (g *Game) Roster() []uuid.UUID {
	players := g.Players.Data()
	out := make([]uuid.UUID, len(players))
	copy(out, players)
	return out
}

// SetRoster replaces the player list.
func (g *Game) SetRoster(players []uuid.UUID) {
	g.Players = datatypes.NewJSONType(players)
}

// HasPlayer reports whether the user is on the roster.
func (g *Game) HasPlayer(userID uuid.UUID) bool {
	for _, p := range g.Players.Data() {
		if p == userID {
			return true
		}
	}
	return false
}

// Active returns the current centre card.
func (g *Game) Active() deck.Card {
	return g.ActiveCard.Data()
}

// Full reports whether the roster has reached the expected size.
func (g *Game) Full() bool {
	return len(g.Players.Data()) >= g.NoExpectedPlayers
}

// GameDetails is one seat of a game: the hand dealt to it and the score of whoever
// sits there. Seats are created unbound when the game is created and bound to a
// player when the game starts (see Seat).
//
// Cards[0] is always the seat's current top card.
type GameDetails struct {
	ID         uuid.UUID                     `gorm:"type:uuid;primaryKey"`
	GameID     uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_details_game_seat;uniqueIndex:idx_details_game_user"`
	SeatNumber int                           `gorm:"not null;uniqueIndex:idx_details_game_seat"` // 0-based, fixes the binding order
	UserID     *uuid.UUID                    `gorm:"type:uuid;uniqueIndex:idx_details_game_user"` // NULL while the seat is empty
	Cards      datatypes.JSONType[deck.Deck] `gorm:"not null"`
	Score      int                           `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Hand returns the seat's remaining cards.
func (d *GameDetails) Hand() deck.Deck {
	return d.Cards.Data()
}

// TopCard returns the first card of the hand and false if the hand is empty.
func (d *GameDetails) TopCard() (deck.Card, bool) {
	hand := d.Cards.Data()
	if len(hand) == 0 {
		return nil, false
	}
	return hand[0], true
}

// Seat returns the seat's binding as an explicit Empty/Bound value.
func (d *GameDetails) Seat() Seat {
	if d.UserID == nil {
		return EmptySeat()
	}
	return BoundSeat(*d.UserID)
}

// SetSeat stores a seat binding back onto the row.
func (d *GameDetails) SetSeat(s Seat) {
	if id, ok := s.Bound(); ok {
		d.UserID = &id
		return
	}
	d.UserID = nil
}

// Turn is one entry of the append-only guess log. Rows are never updated; the
// leaderboard is rebuilt from them when a game ends.
//
// ID is an auto-incrementing integer so that rows of the same round keep their
// insertion order.
type Turn struct {
	ID            uint                          `gorm:"primaryKey"`
	GameID        uuid.UUID                     `gorm:"type:uuid;not null;index:idx_turns_game_turn"`
	Turn          int                           `gorm:"not null;index:idx_turns_game_turn"` // Round the guess was made against
	PlayerID      uuid.UUID                     `gorm:"type:uuid;not null;index"`
	GuessedSymbol int                           `gorm:"not null"`
	ActiveCard    datatypes.JSONType[deck.Card] `gorm:"not null"` // Centre card the guess was judged against
	PlayerTopCard datatypes.JSONType[deck.Card] `gorm:"not null"` // Card the player was holding
	ReactionMs    int                           `gorm:"not null"`
	Outcome       TurnOutcome                   `gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time                     `gorm:"autoCreateTime"`
}

// PlayAgainVote records that a player wants a rematch. The composite primary key
// makes a repeated vote from the same player a no-op.
type PlayAgainVote struct {
	GameID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// --- Hooks ---
// UUIDs are generated in Go rather than by a database default so the same models
// work on Postgres and SQLite.

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (d *GameDetails) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// All lists every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{&User{}, &Game{}, &GameDetails{}, &Turn{}, &PlayAgainVote{}}
}
