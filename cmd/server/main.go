// cmd/server/main.go
// This is the entry point for the Spot the Same API server.
// In Go, the "main" package and its "main()" function is where the program starts executing.
// The "cmd/server" directory follows a common Go convention: the cmd/ folder holds executable
// binaries, and internal/ holds reusable packages that are not meant to be imported by other projects.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Internal packages — our own code, imported by module path
	"github.com/trentd187/spot-the-same/internal/config"
	"github.com/trentd187/spot-the-same/internal/database"
	"github.com/trentd187/spot-the-same/internal/game"
	"github.com/trentd187/spot-the-same/internal/handlers"
	"github.com/trentd187/spot-the-same/internal/live"
)

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	// Connect to the database: Postgres in production, SQLite for local play.
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Bring the schema up to date before serving any request.
	if err := database.Migrate(db, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// The hub fans game events out to SSE subscribers. It runs until hubCtx is
	// cancelled during shutdown, which also ends every open stream.
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := live.NewHub()
	go hub.Run(hubCtx)

	svc := game.NewService(db, nil)
	app := handlers.NewApp(cfg, db, svc, hub)

	// Start listening in a goroutine so main can wait for a shutdown signal.
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")

	// Close live streams first; they would otherwise hold the shutdown open.
	stopHub()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("Server gracefully stopped")
}
