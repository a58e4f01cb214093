package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs from the environment. It is
// loaded once at startup; no package builds API clients as an import side
// effect.
type Config struct {
	Port         string
	AllowOrigins string

	TwelveLabsAPIKey  string
	TwelveLabsIndexID string
	TwelveLabsBaseURL string

	GeminiAPIKey  string
	GeminiBaseURL string

	SupabaseURL   string
	SupabaseKey   string
	StorageBucket string

	// SignedURLExpirySeconds bounds how long a playback URL stays valid.
	SignedURLExpirySeconds int
}

// Load reads configuration from the environment. A local .env file is honored
// when present so development matches the deployed setup.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                   envOr("PORT", "3001"),
		AllowOrigins:           envOr("FRONTEND_URL", "*"),
		TwelveLabsAPIKey:       os.Getenv("TWELVE_LABS_API_KEY"),
		TwelveLabsIndexID:      os.Getenv("TWELVE_LABS_INDEX_ID"),
		TwelveLabsBaseURL:      envOr("TWELVE_LABS_BASE_URL", "https://api.twelvelabs.io/v1.3"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:          envOr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		SupabaseURL:            os.Getenv("SUPABASE_URL"),
		SupabaseKey:            os.Getenv("SUPABASE_SERVICE_KEY"),
		StorageBucket:          envOr("STORAGE_BUCKET", "conversation-videos"),
		SignedURLExpirySeconds: 3600,
	}
}

// Validate reports the first missing required key. Gemini is deliberately not
// required here: without a key the insights step is skipped, the rest of the
// pipeline still works.
func (c Config) Validate() error {
	if c.TwelveLabsAPIKey == "" {
		return fmt.Errorf("TWELVE_LABS_API_KEY is not set in environment variables")
	}
	if c.TwelveLabsIndexID == "" {
		return fmt.Errorf("TWELVE_LABS_INDEX_ID is not set in environment variables")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is not set in environment variables")
	}
	if c.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is not set in environment variables")
	}
	return nil
}

// InsightsEnabled reports whether the optional Gemini summary step can run.
func (c Config) InsightsEnabled() bool {
	return c.GeminiAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
