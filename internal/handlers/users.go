// Package handlers contains HTTP route handler functions for the Spot the Same API.
// This file handles the /api/v1/users routes — sign-up and user lookups.
//
// Each exported function follows the "handler factory" pattern: it takes its
// dependencies (a *gorm.DB or the *game.Service) and returns a fiber.Handler.
// This lets us inject them without using global variables.
package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/spot-the-same/internal/config"
	"github.com/trentd187/spot-the-same/internal/deck"
	"github.com/trentd187/spot-the-same/internal/game"
	"github.com/trentd187/spot-the-same/internal/middleware"
	"github.com/trentd187/spot-the-same/internal/models"
	"gorm.io/gorm"
)

// UserResponse is the public view of a user.
type UserResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    *string `json:"username"`
	AvatarURL   *string `json:"avatarUrl"`
	DisplayName string  `json:"displayName"`
	Role        string  `json:"role"`
	CreatedAt   string  `json:"createdAt"` // ISO 8601 timestamp string
}

// RegisterUserRequest is the optional JSON body of POST /api/v1/users. Values
// left empty are taken from the identity token.
type RegisterUserRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatarUrl"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Username:    u.Username,
		AvatarURL:   u.AvatarURL,
		DisplayName: u.DisplayName(),
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// RegisterUser returns a handler for POST /api/v1/users.
// It creates the user row for the verified identity. Registering again returns
// the existing user with 200 instead of 201, so clients can call it on every launch.
func RegisterUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(middleware.LocalClaims).(*middleware.Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
		}

		existing, err := middleware.FindUser(db, claims)
		if err == nil {
			return c.JSON(userResponse(existing))
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return writeError(c, err)
		}

		var req RegisterUserRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid request body")
			}
		}

		email := strings.TrimSpace(claims.Email)
		if email == "" {
			return badRequest(c, "token has no email claim")
		}

		sub := claims.Subject
		user := models.User{
			ExternalID: &sub,
			Email:      email,
			Username:   firstNonEmpty(req.Username, claims.Name),
			AvatarURL:  firstNonEmpty(req.AvatarURL, claims.Picture),
			Role:       models.UserRoleUser,
		}
		if err := db.Create(&user).Error; err != nil {
			return writeError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(userResponse(&user))
	}
}

// Me returns a handler for GET /api/v1/users/me.
func Me(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid user ID"})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return writeError(c, game.ErrUserNotFound)
			}
			return writeError(c, err)
		}
		return c.JSON(userResponse(&user))
	}
}

// GetUsers returns a handler for GET /api/v1/users?ids=a,b,c.
// The response has one entry per requested ID, in request order, with null for
// IDs that match no user.
func GetUsers(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("ids")
		if raw == "" {
			return c.JSON([]*UserResponse{})
		}

		ids, err := parseIDs(strings.Split(raw, ","))
		if err != nil {
			return badRequest(c, "ids must be comma-separated UUIDs")
		}

		users, err := svc.GetUsersByIDs(c.UserContext(), ids)
		if err != nil {
			return writeError(c, err)
		}

		out := make([]*UserResponse, len(users))
		for i, u := range users {
			if u != nil {
				resp := userResponse(u)
				out[i] = &resp
			}
		}
		return c.JSON(out)
	}
}

// DeckSizes returns a handler for GET /api/v1/deck-sizes?players=N.
// It lists the deck sizes that deal every player at least the configured
// minimum hand, and the symbol icon table clients draw cards with.
func DeckSizes(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		players := c.QueryInt("players", game.MinPlayers)
		if players < game.MinPlayers {
			return badRequest(c, "players must be at least 2")
		}

		sizes := deck.AvailableDeckSizes(players, cfg.MinCardsPerPlayer)
		options := make([]fiber.Map, 0, len(sizes))
		for _, size := range sizes {
			options = append(options, fiber.Map{
				"deckSize":       size,
				"cardsPerPlayer": deck.CardsPerPlayer(size, players),
			})
		}
		return c.JSON(fiber.Map{
			"players":   players,
			"deckSizes": options,
			"symbols":   deck.Assets(),
		})
	}
}

// firstNonEmpty returns the request value if set, else the claim value, else nil.
func firstNonEmpty(v *string, fallback string) *string {
	if v != nil && strings.TrimSpace(*v) != "" {
		s := strings.TrimSpace(*v)
		return &s
	}
	if fallback != "" {
		return &fallback
	}
	return nil
}
