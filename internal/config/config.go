// Package config handles loading runtime configuration for the Spot the Same API.
// Configuration values (like the database URL and API port) are read from environment variables
// rather than being hardcoded, so the same binary can run in dev, staging, and production
// without changing any code — just swap the environment variables.
package config

import (
	"os"
	"strconv"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	// In production, real env vars are used instead.
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port              string // The TCP port the HTTP server will listen on (e.g., "8080")
	DatabaseURL       string // "postgres://..." for Postgres, "sqlite://path" or "file:..." for SQLite
	JWTSecret         string // HS256 secret used to verify identity tokens issued by the auth provider
	MigrationsPath    string // golang-migrate source URL, e.g. "file://migrations"
	PublicURL         string // Base URL players open to join a game; encoded into join QR codes
	MinCardsPerPlayer int    // Smallest hand the deck-size picker will offer
	Env               string // The runtime environment: "development", "staging", or "production"
}

// Load reads configuration from environment variables and returns a populated Config.
// A missing .env file is fine: real environment variables are used in production.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"), // Required — server will fail to start without it
		JWTSecret:         os.Getenv("JWT_SECRET"),   // Required — every API route verifies tokens with it
		MigrationsPath:    getEnv("MIGRATIONS_PATH", "file://migrations"),
		PublicURL:         getEnv("PUBLIC_URL", "http://localhost:8080"),
		MinCardsPerPlayer: getEnvInt("MIN_CARDS_PER_PLAYER", 5),
		Env:               getEnv("ENV", "development"),
	}
}

// getEnv returns the variable's value, or fallback if it is unset or empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt is getEnv for positive integers. Unparseable values fall back too.
func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
