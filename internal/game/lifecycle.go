package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/deck"
	"github.com/trentd187/spot-the-same/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinPlayers is the smallest roster a game can be created for.
const MinPlayers = 2

// LeaveResult is what LeaveGame reports back to the caller.
type LeaveResult struct {
	OK      bool `json:"ok"`
	Started bool `json:"started"`
}

// CreateGame validates the settings, deals a fresh deck into one empty seat per
// expected player and stores the game with the creator as its first player.
// Nothing is written when validation fails.
func (s *Service) CreateGame(ctx context.Context, creatorID uuid.UUID, expectedPlayers, deckSize int) (*models.Game, error) {
	if expectedPlayers < MinPlayers {
		return nil, fmt.Errorf("%w: need at least %d, got %d", ErrInvalidPlayers, MinPlayers, expectedPlayers)
	}
	if !deck.ValidDeckSize(deckSize) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDeckSize, deckSize)
	}
	if deck.CardsPerPlayer(deckSize, expectedPlayers) < 1 {
		return nil, fmt.Errorf("%w: deck size %d cannot deal %d hands", ErrInvalidPlayers, deckSize, expectedPlayers)
	}

	active, hands, err := s.deal(deckSize, expectedPlayers)
	if err != nil {
		return nil, err
	}

	var created models.Game
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, creatorID); err != nil {
			return err
		}

		code, err := s.allocateJoinCode(tx)
		if err != nil {
			return err
		}

		g := models.Game{
			JoinCode:          code,
			NoExpectedPlayers: expectedPlayers,
			DeckSize:          deckSize,
			Players:           datatypes.NewJSONType([]uuid.UUID{creatorID}),
			ActiveCard:        datatypes.NewJSONType(active),
			CreatedBy:         creatorID,
		}
		if err := tx.Create(&g).Error; err != nil {
			return err
		}

		if err := createSeats(tx, g.ID, hands, nil); err != nil {
			return err
		}

		created = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("game created: id=%s code=%s players=%d deck=%d", created.ID, created.JoinCode, expectedPlayers, deckSize)
	return &created, nil
}

// JoinGame adds the user to the roster. Joining a game you are already in is a
// no-op. When the join fills the roster the game starts in the same transaction.
func (s *Service) JoinGame(ctx context.Context, gameID, userID uuid.UUID) (*models.Game, error) {
	var joined *models.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}

		g, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}

		if !g.HasPlayer(userID) {
			if g.Full() {
				return ErrGameFull
			}
			// A started game with room left lost a player mid-game; their seat
			// cannot be taken over.
			if g.Started {
				return ErrGameStarted
			}
			g.SetRoster(append(g.Roster(), userID))
			if err := tx.Model(g).Update("players", g.Players).Error; err != nil {
				return err
			}
		}

		if g.Full() && !g.Started {
			if err := startLocked(tx, g); err != nil {
				return err
			}
		}

		joined = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

// StartGame binds the dealt seats to the roster and opens round 1. It is safe to
// call more than once: a started game is returned unchanged.
func (s *Service) StartGame(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	var started *models.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if !g.Started {
			if !g.Full() {
				return ErrRosterIncomplete
			}
			if err := startLocked(tx, g); err != nil {
				return err
			}
		}
		started = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// startLocked does the work of StartGame. The caller holds the game row lock.
func startLocked(tx *gorm.DB, g *models.Game) error {
	details, err := seatsOf(tx, g.ID)
	if err != nil {
		return err
	}

	current := make([]models.Seat, len(details))
	for i := range details {
		current[i] = details[i].Seat()
	}

	bound := BindSeats(current, g.Roster())
	for i := range details {
		if bound[i] == current[i] {
			continue
		}
		details[i].SetSeat(bound[i])
		if err := tx.Model(&details[i]).Update("user_id", details[i].UserID).Error; err != nil {
			return err
		}
	}

	g.Started = true
	g.Turn = 1
	if err := tx.Model(g).Updates(map[string]any{"started": true, "turn": 1}).Error; err != nil {
		return err
	}

	log.Printf("game started: id=%s players=%d", g.ID, len(g.Roster()))
	return nil
}

// LeaveGame takes the user off the roster. Before the start their seat is freed
// for the next joiner; during play their hand simply stops being played.
func (s *Service) LeaveGame(ctx context.Context, gameID, userID uuid.UUID) (LeaveResult, error) {
	var res LeaveResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		res = LeaveResult{OK: true, Started: g.Started}

		if !g.HasPlayer(userID) {
			return nil
		}

		remaining := make([]uuid.UUID, 0, len(g.Roster()))
		for _, p := range g.Roster() {
			if p != userID {
				remaining = append(remaining, p)
			}
		}
		g.SetRoster(remaining)
		if err := tx.Model(g).Update("players", g.Players).Error; err != nil {
			return err
		}

		if !g.Started {
			return tx.Model(&models.GameDetails{}).
				Where("game_id = ? AND user_id = ?", g.ID, userID).
				Update("user_id", nil).Error
		}
		return nil
	})
	return res, err
}

// DeleteGame removes the game together with its seats, turn log and rematch
// votes. Links from other games to it are cleared. Deleting a missing game is
// not an error.
func (s *Service) DeleteGame(ctx context.Context, gameID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		for _, m := range []any{&models.PlayAgainVote{}, &models.Turn{}, &models.GameDetails{}} {
			if err := tx.Where("game_id = ?", gameID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Game{}).
			Where("next_game_id = ?", gameID).
			Update("next_game_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Game{}, "id = ?", gameID).Error; err != nil {
			return err
		}

		log.Printf("game deleted: id=%s", gameID)
		return nil
	})
}

// VotePlayAgain records the user's rematch vote. Each player counts once no
// matter how often they vote. When everyone still on the roster has voted the
// rematch is dealt immediately for them; the parent returned then carries
// NextGameID. A roster too small for a game never triggers it, PlayAgain with
// new players is the way out.
func (s *Service) VotePlayAgain(ctx context.Context, gameID, userID uuid.UUID) (*models.Game, error) {
	var parent *models.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if !g.Finished {
			return ErrGameNotFinished
		}
		if !g.HasPlayer(userID) {
			return ErrNotSeated
		}

		vote := models.PlayAgainVote{GameID: g.ID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote).Error; err != nil {
			return err
		}

		roster := g.Roster()
		var votes int64
		if err := tx.Model(&models.PlayAgainVote{}).
			Where("game_id = ? AND user_id IN ?", g.ID, roster).
			Count(&votes).Error; err != nil {
			return err
		}
		g.NoPlayAgainPlayers = int(votes)
		if err := tx.Model(g).Update("no_play_again_players", g.NoPlayAgainPlayers).Error; err != nil {
			return err
		}

		if len(roster) >= MinPlayers && g.NoPlayAgainPlayers >= len(roster) {
			if _, err := s.playAgainLocked(tx, g, roster, len(roster)); err != nil {
				return err
			}
		}

		parent = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// PlayAgain deals the rematch of a game for the given players and links the
// parent to it. The rematch starts immediately at round 1 because everybody in
// it is already known. An existing, already started rematch is returned as is.
// Empty players or a zero expectedPlayers fall back to the parent's values.
func (s *Service) PlayAgain(ctx context.Context, gameID uuid.UUID, players []uuid.UUID, expectedPlayers int) (*models.Game, error) {
	var child *models.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if len(players) == 0 {
			players = parent.Roster()
		}
		if expectedPlayers == 0 {
			expectedPlayers = parent.NoExpectedPlayers
		}

		child, err = s.playAgainLocked(tx, parent, players, expectedPlayers)
		return err
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// playAgainLocked does the work of PlayAgain. The caller holds the parent's row lock.
func (s *Service) playAgainLocked(tx *gorm.DB, parent *models.Game, players []uuid.UUID, expectedPlayers int) (*models.Game, error) {
	if expectedPlayers < MinPlayers || len(players) > expectedPlayers {
		return nil, fmt.Errorf("%w: %d players for %d seats", ErrInvalidPlayers, len(players), expectedPlayers)
	}
	if deck.CardsPerPlayer(parent.DeckSize, expectedPlayers) < 1 {
		return nil, fmt.Errorf("%w: deck size %d cannot deal %d hands", ErrInvalidPlayers, parent.DeckSize, expectedPlayers)
	}
	for _, p := range players {
		if err := requireUser(tx, p); err != nil {
			return nil, err
		}
	}

	var child *models.Game
	if parent.NextGameID != nil {
		existing, err := lockGame(tx, *parent.NextGameID)
		switch {
		case err == nil && existing.Started:
			return existing, nil
		case err == nil:
			child = existing
		case !errors.Is(err, ErrGameNotFound):
			return nil, err
		}
	}

	active, hands, err := s.deal(parent.DeckSize, expectedPlayers)
	if err != nil {
		return nil, err
	}

	if child == nil {
		code, err := s.allocateJoinCode(tx)
		if err != nil {
			return nil, err
		}
		child = &models.Game{
			JoinCode:  code,
			DeckSize:  parent.DeckSize,
			CreatedBy: parent.CreatedBy,
		}
	} else {
		// A pre-created rematch may already hold seats from an earlier deal.
		if err := tx.Where("game_id = ?", child.ID).Delete(&models.GameDetails{}).Error; err != nil {
			return nil, err
		}
	}

	child.NoExpectedPlayers = expectedPlayers
	child.SetRoster(players)
	child.ActiveCard = datatypes.NewJSONType(active)
	child.Started = true
	child.Turn = 1
	child.Finished = false
	child.WinnerID = nil
	child.NoPlayAgainPlayers = 0
	if err := tx.Save(child).Error; err != nil {
		return nil, err
	}

	if err := createSeats(tx, child.ID, hands, players); err != nil {
		return nil, err
	}

	parent.NextGameID = &child.ID
	if err := tx.Model(parent).Update("next_game_id", child.ID).Error; err != nil {
		return nil, err
	}

	log.Printf("rematch dealt: parent=%s child=%s players=%d", parent.ID, child.ID, len(players))
	return child, nil
}

// createSeats inserts one GameDetails row per hand. Seat i is bound to players[i]
// when there is one, otherwise it starts empty.
func createSeats(tx *gorm.DB, gameID uuid.UUID, hands []deck.Deck, players []uuid.UUID) error {
	seats := make([]models.GameDetails, len(hands))
	for i, hand := range hands {
		seats[i] = models.GameDetails{
			GameID:     gameID,
			SeatNumber: i,
			Cards:      datatypes.NewJSONType(hand),
		}
		if i < len(players) {
			seats[i].SetSeat(models.BoundSeat(players[i]))
		}
	}
	if len(seats) == 0 {
		return nil
	}
	return tx.Create(&seats).Error
}
