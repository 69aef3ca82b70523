package game

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/models"
)

// Standing is one player's line in the final results.
type Standing struct {
	PlayerID  uuid.UUID `json:"playerId"`
	Points    int       `json:"points"`    // correct guesses
	Mistakes  int       `json:"mistakes"`  // wrong taps
	TooSlow   int       `json:"tooSlow"`   // guesses that lost the race
	FastestMs *int      `json:"fastestMs"` // over correct guesses only; nil without any
	SlowestMs *int      `json:"slowestMs"`
}

// Results is the end-of-game summary.
//
// WinnerID is the authoritative winner stored on the game (first to empty their
// hand). It normally matches the top of Standings, but not necessarily when a
// player left mid-game; the two are reported side by side rather than reconciled.
type Results struct {
	GameID    uuid.UUID  `json:"gameId"`
	Finished  bool       `json:"finished"`
	WinnerID  *uuid.UUID `json:"winnerId"`
	Standings []Standing `json:"standings"`
}

// BuildLeaderboard rebuilds per-player stats from a game's turn log.
//
// Every roster player gets a line, in roster order, followed by anyone who only
// appears in the log (a player who left). Lines are then ranked by points
// (most first), then mistakes (fewest first), then fastest correct reaction,
// keeping that base order for full ties.
func BuildLeaderboard(turns []models.Turn, roster []uuid.UUID) []Standing {
	index := make(map[uuid.UUID]int, len(roster))
	standings := make([]Standing, 0, len(roster))

	line := func(id uuid.UUID) *Standing {
		i, ok := index[id]
		if !ok {
			i = len(standings)
			index[id] = i
			standings = append(standings, Standing{PlayerID: id})
		}
		return &standings[i]
	}

	for _, id := range roster {
		line(id)
	}

	for _, t := range turns {
		st := line(t.PlayerID)
		switch t.Outcome {
		case models.TurnOutcomeCorrect:
			st.Points++
			ms := t.ReactionMs
			if st.FastestMs == nil || ms < *st.FastestMs {
				st.FastestMs = &ms
			}
			if st.SlowestMs == nil || ms > *st.SlowestMs {
				slowest := ms
				st.SlowestMs = &slowest
			}
		case models.TurnOutcomeWrong:
			st.Mistakes++
		case models.TurnOutcomeTooSlow:
			st.TooSlow++
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Mistakes != b.Mistakes {
			return a.Mistakes < b.Mistakes
		}
		switch {
		case a.FastestMs == nil || b.FastestMs == nil:
			return a.FastestMs != nil && b.FastestMs == nil
		default:
			return *a.FastestMs < *b.FastestMs
		}
	})
	return standings
}

// Results loads the game and its turn log and builds the standings.
func (s *Service) Results(ctx context.Context, gameID uuid.UUID) (*Results, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	turns, err := s.GetTurnsByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &Results{
		GameID:    g.ID,
		Finished:  g.Finished,
		WinnerID:  g.WinnerID,
		Standings: BuildLeaderboard(turns, g.Roster()),
	}, nil
}
