package game

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/deck"
	"github.com/trentd187/spot-the-same/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Guess is one player's attempt to claim the current round.
//
// Turn, Card and ActiveAtGuess are what the player's client saw when the symbol
// was tapped. They are used for the audit log when the guess turns out stale;
// the decision itself is always made against the stored game.
type Guess struct {
	GameID        uuid.UUID
	PlayerID      uuid.UUID
	Card          deck.Card // the player's top card as the client saw it
	Turn          int       // round the client last observed
	GuessedSymbol int
	ReactionMs    int
	ActiveAtGuess deck.Card // centre card as the client saw it
}

// TurnResult is the arbiter's verdict.
//
// TooSlow means the round had already moved on (or the game had ended) when the
// guess arrived. Wrong means the round was current but the symbol is not the
// match. Neither is an error.
type TurnResult struct {
	TooSlow  bool `json:"tooSlow"`
	Accepted bool `json:"accepted"`
	Wrong    bool `json:"wrong"`
	Turn     int  `json:"turn"`     // round that is open after the call
	Finished bool `json:"finished"` // true once the game is over
}

// Mistake is a tap on a symbol the client already knows is not the match.
type Mistake struct {
	GameID        uuid.UUID
	PlayerID      uuid.UUID
	GuessedSymbol int
	PlayerTopCard deck.Card
	ReactionMs    int
	ActiveAtGuess deck.Card
	TurnAtGuess   int
}

// TakeTurn resolves a guess.
//
// Exactly one guess can win a round. The winner is decided by a compare-and-swap
// on games.turn: the update only applies while turn still equals the round the
// guess was judged against. A guess that loses the race, or that was made against
// an older round, is logged as tooSlow and changes nothing else. A winning guess
// pops the player's top card, scores a point and makes that card the new centre
// card (shuffled), or ends the game when it was the player's last card.
// Guesses from anyone not on the roster, including players who left, fail with
// ErrNotSeated and are not logged.
func (s *Service) TakeTurn(ctx context.Context, guess Guess) (TurnResult, error) {
	var result TurnResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Game
		if err := tx.First(&g, "id = ?", guess.GameID).Error; err != nil {
			return notFound(err, ErrGameNotFound)
		}
		if !g.Started {
			return ErrGameNotStarted
		}
		// A player who left keeps a bound seat, but the hand is out of play.
		if !g.HasPlayer(guess.PlayerID) {
			return ErrNotSeated
		}

		if g.Finished || guess.Turn != g.Turn {
			result = TurnResult{TooSlow: true, Turn: g.Turn, Finished: g.Finished}
			return logTurn(tx, guess.entry(guess.Turn, guess.ActiveAtGuess, guess.Card, models.TurnOutcomeTooSlow))
		}

		var details models.GameDetails
		err := tx.Where("game_id = ? AND user_id = ?", g.ID, guess.PlayerID).First(&details).Error
		if err != nil {
			return notFound(err, ErrNotSeated)
		}
		top, ok := details.TopCard()
		if !ok {
			return errors.New("seat has no cards left in an unfinished game")
		}

		active := g.Active()
		if !active.Contains(guess.GuessedSymbol) || !top.Contains(guess.GuessedSymbol) {
			result = TurnResult{Wrong: true, Turn: g.Turn}
			return logTurn(tx, guess.entry(g.Turn, active, top, models.TurnOutcomeWrong))
		}

		hand := details.Hand()
		remaining := make(deck.Deck, len(hand)-1)
		copy(remaining, hand[1:])
		finished := len(remaining) == 0

		updates := map[string]any{"turn": g.Turn + 1}
		if finished {
			updates["active_card"] = datatypes.NewJSONType(top)
			updates["finished"] = true
			updates["winner_id"] = guess.PlayerID
		} else {
			updates["active_card"] = datatypes.NewJSONType(s.shuffleCard(top))
		}

		advanced := tx.Model(&models.Game{}).
			Where("id = ? AND turn = ? AND finished = ?", g.ID, g.Turn, false).
			Updates(updates)
		if advanced.Error != nil {
			return advanced.Error
		}
		if advanced.RowsAffected == 0 {
			// Another guess claimed this round between our read and our write.
			result = TurnResult{TooSlow: true, Turn: g.Turn + 1}
			return logTurn(tx, guess.entry(guess.Turn, guess.ActiveAtGuess, guess.Card, models.TurnOutcomeTooSlow))
		}

		if err := tx.Model(&details).Updates(map[string]any{
			"cards": datatypes.NewJSONType(remaining),
			"score": gorm.Expr("score + ?", 1),
		}).Error; err != nil {
			return err
		}

		played := guess.Card
		if len(played) == 0 {
			played = top
		}
		if err := logTurn(tx, guess.entry(g.Turn, active, played, models.TurnOutcomeCorrect)); err != nil {
			return err
		}

		result = TurnResult{Accepted: true, Turn: g.Turn + 1, Finished: finished}
		if finished {
			log.Printf("game finished: id=%s winner=%s turns=%d", g.ID, guess.PlayerID, g.Turn)
		}
		return nil
	})
	if err != nil {
		return TurnResult{}, err
	}
	return result, nil
}

// LogMistake appends a wrong-symbol entry to the turn log. It never touches the
// game or the player's hand, so it cannot interfere with round arbitration.
// Only players on the roster can log mistakes.
func (s *Service) LogMistake(ctx context.Context, m Mistake) error {
	db := s.db.WithContext(ctx)

	var g models.Game
	if err := db.First(&g, "id = ?", m.GameID).Error; err != nil {
		return notFound(err, ErrGameNotFound)
	}
	if !g.HasPlayer(m.PlayerID) {
		return ErrNotSeated
	}

	return logTurn(db, models.Turn{
		GameID:        m.GameID,
		Turn:          m.TurnAtGuess,
		PlayerID:      m.PlayerID,
		GuessedSymbol: m.GuessedSymbol,
		ActiveCard:    datatypes.NewJSONType(nonNil(m.ActiveAtGuess)),
		PlayerTopCard: datatypes.NewJSONType(nonNil(m.PlayerTopCard)),
		ReactionMs:    m.ReactionMs,
		Outcome:       models.TurnOutcomeWrong,
	})
}

// entry builds the log row for this guess.
func (g Guess) entry(turn int, active, top deck.Card, outcome models.TurnOutcome) models.Turn {
	return models.Turn{
		GameID:        g.GameID,
		Turn:          turn,
		PlayerID:      g.PlayerID,
		GuessedSymbol: g.GuessedSymbol,
		ActiveCard:    datatypes.NewJSONType(nonNil(active)),
		PlayerTopCard: datatypes.NewJSONType(nonNil(top)),
		ReactionMs:    g.ReactionMs,
		Outcome:       outcome,
	}
}

func logTurn(tx *gorm.DB, t models.Turn) error {
	return tx.Create(&t).Error
}

// nonNil keeps JSON columns as [] rather than null.
func nonNil(c deck.Card) deck.Card {
	if c == nil {
		return deck.Card{}
	}
	return c
}
