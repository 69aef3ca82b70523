package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/trentd187/spot-the-same/internal/game"
	"github.com/trentd187/spot-the-same/internal/middleware"
)

// apiError pairs the HTTP status for a domain error with the stable code
// clients switch on.
type apiError struct {
	status int
	code   string
}

// errorTable is checked in order with errors.Is.
var errorTable = []struct {
	err error
	apiError
}{
	{game.ErrGameNotFound, apiError{fiber.StatusNotFound, "GAME_NOT_FOUND"}},
	{game.ErrUserNotFound, apiError{fiber.StatusNotFound, "USER_NOT_FOUND"}},
	{game.ErrNotRegistered, apiError{fiber.StatusForbidden, middleware.ErrNotRegistered}},
	{game.ErrNotSeated, apiError{fiber.StatusConflict, "NOT_SEATED"}},
	{game.ErrGameFull, apiError{fiber.StatusConflict, "GAME_FULL"}},
	{game.ErrGameStarted, apiError{fiber.StatusConflict, "GAME_STARTED"}},
	{game.ErrGameNotStarted, apiError{fiber.StatusConflict, "GAME_NOT_STARTED"}},
	{game.ErrGameNotFinished, apiError{fiber.StatusConflict, "GAME_NOT_FINISHED"}},
	{game.ErrRosterIncomplete, apiError{fiber.StatusConflict, "ROSTER_INCOMPLETE"}},
	{game.ErrInvalidDeckSize, apiError{fiber.StatusBadRequest, "INVALID_DECK_SIZE"}},
	{game.ErrInvalidPlayers, apiError{fiber.StatusBadRequest, "INVALID_PLAYERS"}},
}

// writeError turns a service error into a JSON error response. Anything not in
// errorTable is logged and reported as a 500 without leaking details.
func writeError(c *fiber.Ctx, err error) error {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(fiber.Map{
				"error": err.Error(),
				"code":  e.code,
			})
		}
	}

	log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
		"code":  "INTERNAL",
	})
}

// ErrorHandler is the app-wide fiber error handler. Errors returned from
// handlers instead of written by them end up here: *fiber.Error keeps its
// status, everything else goes through writeError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return writeError(c, err)
}

// badRequest is the 400 used for malformed input.
func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"code":  "BAD_REQUEST",
	})
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": msg,
		"code":  "FORBIDDEN",
	})
}

// currentUser reads the caller's ID that middleware.RequireUser stored.
func currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	userIDStr, _ := c.Locals(middleware.LocalUserID).(string)
	userID, err := uuid.Parse(userIDStr)
	return userID, err == nil
}

func isAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals(middleware.LocalUserRole).(string)
	return role == "admin"
}

// gameIDParam parses the :id route parameter.
func gameIDParam(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// parseIDs parses a list of UUID strings, failing on the first bad one.
func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
