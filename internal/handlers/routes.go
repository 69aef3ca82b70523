package handlers

import (
	"github.com/gofiber/fiber/v2"
	// cors handles Cross-Origin Resource Sharing — allows the web and mobile clients
	// to talk to the API even though they're served from different origins
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints request details (method, path, status, duration) to stdout
	"github.com/gofiber/fiber/v2/middleware/logger"
	// recover turns a panic in a handler into a 500 instead of killing the process
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/trentd187/spot-the-same/internal/config"
	"github.com/trentd187/spot-the-same/internal/game"
	"github.com/trentd187/spot-the-same/internal/live"
	"github.com/trentd187/spot-the-same/internal/middleware"
	"gorm.io/gorm"
)

// NewApp builds the Fiber app with global middleware and every route registered.
func NewApp(cfg *config.Config, db *gorm.DB, svc *game.Service, hub *live.Hub) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Spot the Same API",
		ErrorHandler: ErrorHandler,
	})

	// --- Global middleware ---
	// These run on every request before any route handler.
	app.Use(recover.New())
	if cfg.Env != "test" {
		app.Use(logger.New())
	}
	// cors.New() allows requests from any origin (needed for the clients in development).
	app.Use(cors.New())

	Register(app, cfg, db, svc, hub)
	return app
}

// Register mounts the API routes on app.
func Register(app *fiber.App, cfg *config.Config, db *gorm.DB, svc *game.Service, hub *live.Hub) {
	// --- Public routes (no auth required) ---
	app.Get("/health", HealthCheck)

	// --- Authenticated API routes ---
	// Every route under /api/v1 needs a verified identity token. Sign-up is the
	// only route that accepts an identity without a user row behind it;
	// everything else also goes through RequireUser.
	api := app.Group("/api/v1", middleware.Identify(cfg))
	requireUser := middleware.RequireUser(db)

	// User routes
	// POST /api/v1/users        — sign up the token's identity (idempotent)
	// GET  /api/v1/users/me     — the caller
	// GET  /api/v1/users?ids=   — batch lookup, order preserved, null for unknown IDs
	api.Post("/users", RegisterUser(db))
	api.Get("/users/me", requireUser, Me(db))
	api.Get("/users", requireUser, GetUsers(svc))
	api.Get("/deck-sizes", requireUser, DeckSizes(cfg))

	// Game routes
	games := api.Group("/games", requireUser)
	games.Post("/", CreateGame(svc))
	games.Get("/code/:code", GetGameByCode(svc))
	games.Get("/:id", GetGame(svc))
	games.Delete("/:id", DeleteGame(svc, hub))
	games.Post("/:id/join", JoinGame(svc, hub))
	games.Post("/:id/start", StartGame(svc, hub))
	games.Post("/:id/leave", LeaveGame(svc, hub))
	games.Post("/:id/turns", TakeTurn(svc, hub))
	games.Get("/:id/turns", GetTurns(svc))
	games.Post("/:id/mistakes", LogMistake(svc, hub))
	games.Get("/:id/cards", GetPlayerCards(svc))
	games.Get("/:id/results", GetResults(svc))
	games.Post("/:id/vote", VotePlayAgain(svc, hub))
	games.Post("/:id/play-again", PlayAgain(svc, hub))
	games.Get("/:id/events", GameEvents(svc, hub))
	games.Get("/:id/qr", GameQR(svc, cfg))

	// Admin routes
	admin := api.Group("/admin", requireUser, middleware.RequireRole("admin"))
	admin.Get("/games", ListGames(svc))
}
