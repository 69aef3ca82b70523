// Package handlers contains HTTP route handler functions for the Spot the Same API.
// This file handles the /api/v1/games routes — the whole life of a game from
// creation through play to the rematch.
//
// --- Identity ---
// middleware.RequireUser resolves the caller before any handler here runs.
// Handlers pass that resolved user ID into the game service explicitly; the
// service never looks at the request. Bodies that name a userId (turns and
// mistakes) must name the caller.
//
// --- Live updates ---
// After every successful mutation the handler publishes an event with the new
// game snapshot to the live hub, which forwards it to SSE subscribers. The
// database stays the source of truth: a dropped event only delays a client
// until its next read.
package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/deck"
	"github.com/trentd187/spot-the-same/internal/game"
	"github.com/trentd187/spot-the-same/internal/live"
	"github.com/trentd187/spot-the-same/internal/models"
)

// GameResponse is what we send back to clients for a game.
// We use a dedicated response struct (instead of the raw GORM model) so we control
// exactly which fields are serialised to JSON.
type GameResponse struct {
	ID              string    `json:"id"`
	JoinCode        string    `json:"joinCode"`
	ExpectedPlayers int       `json:"expectedPlayers"`
	DeckSize        int       `json:"deckSize"`
	Players         []string  `json:"players"` // Roster in join order
	ActiveCard      deck.Card `json:"activeCard"`
	Started         bool      `json:"started"`
	Finished        bool      `json:"finished"`
	Turn            int       `json:"turn"`
	WinnerID        *string   `json:"winnerId"`
	PlayAgainVotes  int       `json:"playAgainVotes"`
	NextGameID      *string   `json:"nextGameId"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       string    `json:"createdAt"` // ISO 8601 timestamp string
}

// TurnResponse is one entry of the turn log.
type TurnResponse struct {
	Turn          int       `json:"turn"`
	PlayerID      string    `json:"playerId"`
	GuessedSymbol int       `json:"guessedSymbol"`
	ActiveCard    deck.Card `json:"activeCard"`
	PlayerTopCard deck.Card `json:"playerTopCard"`
	ReactionMs    int       `json:"reactionMs"`
	Outcome       string    `json:"outcome"`
	CreatedAt     string    `json:"createdAt"`
}

// CreateGameRequest is the JSON body we expect on POST /api/v1/games.
type CreateGameRequest struct {
	ExpectedPlayers int `json:"expectedPlayers"` // Required: at least 2
	DeckSize        int `json:"deckSize"`        // Required: symbols per card, see GET /deck-sizes
}

// TakeTurnRequest is the JSON body of POST /api/v1/games/:id/turns. Card, Turn
// and ActiveCard are what the client was showing when the player tapped.
type TakeTurnRequest struct {
	UserID        string    `json:"userId"` // Optional; must be the caller when set
	Card          deck.Card `json:"card"`
	Turn          int       `json:"turn"`
	GuessedSymbol int       `json:"guessedSymbol"`
	ReactionMs    int       `json:"reactionMs"`
	ActiveCard    deck.Card `json:"activeCard"`
}

// LogMistakeRequest is the JSON body of POST /api/v1/games/:id/mistakes.
type LogMistakeRequest struct {
	UserID        string    `json:"userId"`
	GuessedSymbol int       `json:"guessedSymbol"`
	PlayerTopCard deck.Card `json:"playerTopCard"`
	ReactionMs    int       `json:"reactionMs"`
	ActiveCard    deck.Card `json:"activeCard"`
	Turn          int       `json:"turn"`
}

// VoteRequest is the optional body of POST /api/v1/games/:id/vote.
// CurrentVoteCount is what the client last saw; the server counts votes itself.
type VoteRequest struct {
	CurrentVoteCount int `json:"currentVoteCount"`
}

// PlayAgainRequest is the JSON body of POST /api/v1/games/:id/play-again.
// Both fields are optional and default to the finished game's roster and size.
type PlayAgainRequest struct {
	Players         []string `json:"players"`
	ExpectedPlayers int      `json:"expectedPlayers"`
}

func gameResponse(g *models.Game) GameResponse {
	roster := g.Roster()
	players := make([]string, len(roster))
	for i, p := range roster {
		players[i] = p.String()
	}

	active := g.Active()
	if active == nil {
		active = deck.Card{}
	}

	return GameResponse{
		ID:              g.ID.String(),
		JoinCode:        g.JoinCode,
		ExpectedPlayers: g.NoExpectedPlayers,
		DeckSize:        g.DeckSize,
		Players:         players,
		ActiveCard:      active,
		Started:         g.Started,
		Finished:        g.Finished,
		Turn:            g.Turn,
		WinnerID:        optionalID(g.WinnerID),
		PlayAgainVotes:  g.NoPlayAgainPlayers,
		NextGameID:      optionalID(g.NextGameID),
		CreatedBy:       g.CreatedBy.String(),
		CreatedAt:       g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// publish sends the event with the game's current snapshot to its subscribers.
func publish(hub *live.Hub, typ live.EventType, g *models.Game, player *uuid.UUID) {
	hub.Publish(live.Event{
		Type:       typ,
		GameID:     g.ID,
		PlayerID:   player,
		Turn:       g.Turn,
		Votes:      g.NoPlayAgainPlayers,
		NextGameID: g.NextGameID,
		Game:       gameResponse(g),
	})
}

// publishLatest reloads the game and publishes it. Failures only cost the event.
func publishLatest(c *fiber.Ctx, svc *game.Service, hub *live.Hub, typ live.EventType, gameID uuid.UUID, player *uuid.UUID) {
	g, err := svc.GetGame(c.UserContext(), gameID)
	if err != nil {
		log.Printf("publish %s for game %s: %v", typ, gameID, err)
		return
	}
	publish(hub, typ, g, player)
}

// callerAndGame returns the :id game and the caller. The error is a
// *fiber.Error that ErrorHandler renders as JSON.
func callerAndGame(c *fiber.Ctx) (gameID, userID uuid.UUID, err error) {
	userID, ok := currentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user ID")
	}
	gameID, ok = gameIDParam(c)
	if !ok {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid game ID")
	}
	return gameID, userID, nil
}

// --- Lifecycle ---

// CreateGame returns a handler for POST /api/v1/games.
// The caller becomes the creator and the first player.
func CreateGame(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid user ID"})
		}

		var req CreateGameRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}

		g, err := svc.CreateGame(c.UserContext(), userID, req.ExpectedPlayers, req.DeckSize)
		if err != nil {
			return writeError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"gameId":   g.ID.String(),
			"userId":   userID.String(),
			"joinCode": g.JoinCode,
			"turn":     g.Turn,
		})
	}
}

// GetGame returns a handler for GET /api/v1/games/:id.
func GetGame(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, ok := gameIDParam(c)
		if !ok {
			return badRequest(c, "invalid game ID")
		}
		g, err := svc.GetGame(c.UserContext(), gameID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(gameResponse(g))
	}
}

// GetGameByCode returns a handler for GET /api/v1/games/code/:code.
// Codes are matched case-insensitively.
func GetGameByCode(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := svc.GetGameByCode(c.UserContext(), c.Params("code"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(gameResponse(g))
	}
}

// JoinGame returns a handler for POST /api/v1/games/:id/join.
// Safe to retry: joining a game you are already in changes nothing.
func JoinGame(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, userID, err := callerAndGame(c)
		if err != nil {
			return err
		}

		g, err := svc.JoinGame(c.UserContext(), gameID, userID)
		if err != nil {
			return writeError(c, err)
		}

		publish(hub, live.EventPlayerJoined, g, &userID)
		if g.Started {
			publish(hub, live.EventGameStarted, g, nil)
		}

		return c.JSON(fiber.Map{
			"userId": userID.String(),
			"game":   gameResponse(g),
		})
	}
}

// StartGame returns a handler for POST /api/v1/games/:id/start.
// Games start on their own when the last player joins; this is for clients
// that want to force the check.
func StartGame(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, ok := gameIDParam(c)
		if !ok {
			return badRequest(c, "invalid game ID")
		}

		g, err := svc.StartGame(c.UserContext(), gameID)
		if err != nil {
			return writeError(c, err)
		}

		publish(hub, live.EventGameStarted, g, nil)
		return c.JSON(gameResponse(g))
	}
}

// LeaveGame returns a handler for POST /api/v1/games/:id/leave.
func LeaveGame(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, userID, err := callerAndGame(c)
		if err != nil {
			return err
		}

		res, err := svc.LeaveGame(c.UserContext(), gameID, userID)
		if err != nil {
			return writeError(c, err)
		}

		publishLatest(c, svc, hub, live.EventPlayerLeft, gameID, &userID)
		return c.JSON(res)
	}
}

// DeleteGame returns a handler for DELETE /api/v1/games/:id.
// Players of the game and admins may delete it. Deleting a game that does not
// exist succeeds.
func DeleteGame(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, userID, err := callerAndGame(c)
		if err != nil {
			return err
		}

		if !isAdmin(c) {
			member, err := svc.IsParticipant(c.UserContext(), gameID, userID)
			switch {
			case errors.Is(err, game.ErrGameNotFound):
				return c.SendStatus(fiber.StatusNoContent)
			case err != nil:
				return writeError(c, err)
			case !member:
				return forbidden(c, "only players of this game can delete it")
			}
		}

		if err := svc.DeleteGame(c.UserContext(), gameID); err != nil {
			return writeError(c, err)
		}

		hub.Publish(live.Event{Type: live.EventGameDeleted, GameID: gameID})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// --- Play ---

// TakeTurn returns a handler for POST /api/v1/games/:id/turns.
// A guess that lost the race comes back as 200 with tooSlow=true; that is the
// normal outcome under contention, not an error.
func TakeTurn(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, userID, err := callerAndGame(c)
		if err != nil {
			return err
		}

		var req TakeTurnRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.UserID != "" && req.UserID != userID.String() {
			return forbidden(c, "cannot guess for another player")
		}

		res, err := svc.TakeTurn(c.UserContext(), game.Guess{
			GameID:        gameID,
			PlayerID:      userID,
			Card:          req.Card,
			Turn:          req.Turn,
			GuessedSymbol: req.GuessedSymbol,
			ReactionMs:    req.ReactionMs,
			ActiveAtGuess: req.ActiveCard,
		})
		if err != nil {
			return writeError(c, err)
		}

		if res.Accepted {
			typ := live.EventTurn
			if res.Finished {
				typ = live.EventGameFinished
			}
			publishLatest(c, svc, hub, typ, gameID, &userID)
		}
		return c.JSON(res)
	}
}

// LogMistake returns a handler for POST /api/v1/games/:id/mistakes.
func LogMistake(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, userID, err := callerAndGame(c)
		if err != nil {
			return err
		}

		var req LogMistakeRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.UserID != "" && req.UserID != userID.String() {
			return forbidden(c, "cannot log a mistake for another player")
		}

		err = svc.LogMistake(c.UserContext(), game.Mistake{
			GameID:        gameID,
			PlayerID:      userID,
			GuessedSymbol: req.GuessedSymbol,
			PlayerTopCard: req.PlayerTopCard,
			ReactionMs:    req.ReactionMs,
			ActiveAtGuess: req.ActiveCard,
			TurnAtGuess:   req.Turn,
		})
		if err != nil {
			return writeError(c, err)
		}

		hub.Publish(live.Event{Type: live.EventMistake, GameID: gameID, PlayerID: &userID, Turn: req.Turn})
		return c.JSON(fiber.Map{"ok": true})
	}
}

// GetTurns returns a handler for GET /api/v1/games/:id/turns.
func GetTurns(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, ok := gameIDParam(c)
		if !ok {
			return badRequest(c, "invalid game ID")
		}

		turns, err := svc.GetTurnsByGame(c.UserContext(), gameID)
		if err != nil {
			return writeError(c, err)
		}

		response := make([]TurnResponse, 0, len(turns))
		for _, t := range turns {
			response = append(response, TurnResponse{
				Turn:          t.Turn,
				PlayerID:      t.PlayerID.String(),
				GuessedSymbol: t.GuessedSymbol,
				ActiveCard:    t.ActiveCard.Data(),
				PlayerTopCard: t.PlayerTopCard.Data(),
				ReactionMs:    t.ReactionMs,
				Outcome:       string(t.Outcome),
				CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339Nano),
			})
		}
		return c.JSON(response)
	}
}

// GetPlayerCards returns a handler for GET /api/v1/games/:id/cards?userId=.
// Without userId it returns the caller's hand. The top card comes first.
func GetPlayerCards(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, userID, err := callerAndGame(c)
		if err != nil {
			return err
		}

		if q := c.Query("userId"); q != "" {
			if userID, err = uuid.Parse(q); err != nil {
				return badRequest(c, "invalid userId")
			}
		}

		hand, err := svc.GetPlayerCards(c.UserContext(), gameID, userID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(hand)
	}
}

// GetResults returns a handler for GET /api/v1/games/:id/results.
func GetResults(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, ok := gameIDParam(c)
		if !ok {
			return badRequest(c, "invalid game ID")
		}

		res, err := svc.Results(c.UserContext(), gameID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	}
}

// --- Rematch ---

// VotePlayAgain returns a handler for POST /api/v1/games/:id/vote.
// Safe to retry: each player's vote counts once. The vote that completes the
// count deals the rematch, and the response then carries its nextGameId.
func VotePlayAgain(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, userID, err := callerAndGame(c)
		if err != nil {
			return err
		}

		var req VoteRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid request body")
			}
		}

		g, err := svc.VotePlayAgain(c.UserContext(), gameID, userID)
		if err != nil {
			return writeError(c, err)
		}

		publish(hub, live.EventVote, g, &userID)
		if g.NextGameID != nil {
			publish(hub, live.EventRematch, g, nil)
		}
		return c.JSON(gameResponse(g))
	}
}

// PlayAgain returns a handler for POST /api/v1/games/:id/play-again.
// Only players of the finished game can deal its rematch.
func PlayAgain(svc *game.Service, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, userID, err := callerAndGame(c)
		if err != nil {
			return err
		}

		var req PlayAgainRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid request body")
			}
		}
		players, err := parseIDs(req.Players)
		if err != nil {
			return badRequest(c, "players must be UUIDs")
		}

		member, err := svc.IsParticipant(c.UserContext(), gameID, userID)
		if err != nil {
			return writeError(c, err)
		}
		if !member {
			return forbidden(c, "only players of this game can start a rematch")
		}

		child, err := svc.PlayAgain(c.UserContext(), gameID, players, req.ExpectedPlayers)
		if err != nil {
			return writeError(c, err)
		}

		publishLatest(c, svc, hub, live.EventRematch, gameID, nil)
		publish(hub, live.EventGameStarted, child, nil)
		return c.JSON(fiber.Map{"nextGameId": child.ID.String()})
	}
}

// --- Admin ---

// ListGames returns a handler for GET /api/v1/admin/games?limit=N.
func ListGames(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		games, err := svc.ListGames(c.UserContext(), c.QueryInt("limit", 50))
		if err != nil {
			return writeError(c, err)
		}

		response := make([]GameResponse, 0, len(games))
		for i := range games {
			response = append(response, gameResponse(&games[i]))
		}
		return c.JSON(response)
	}
}
