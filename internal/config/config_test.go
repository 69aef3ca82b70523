package config

import "testing"

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "sqlite://spot.db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MIGRATIONS_PATH", "")
	t.Setenv("PUBLIC_URL", "https://spot.example.com")
	t.Setenv("MIN_CARDS_PER_PLAYER", "7")
	t.Setenv("ENV", "")

	cfg := Load()

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.MigrationsPath != "file://migrations" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.DatabaseURL != "sqlite://spot.db" || cfg.JWTSecret != "s3cret" || cfg.PublicURL != "https://spot.example.com" {
		t.Errorf("env values not read: %+v", cfg)
	}
	if cfg.MinCardsPerPlayer != 7 {
		t.Errorf("MinCardsPerPlayer = %d, want 7", cfg.MinCardsPerPlayer)
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 5},
		{"12", 12},
		{"zero", 5},
		{"0", 5},
		{"-3", 5},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("SPOT_TEST_INT", tt.value)
			if got := getEnvInt("SPOT_TEST_INT", 5); got != tt.want {
				t.Errorf("getEnvInt(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}
