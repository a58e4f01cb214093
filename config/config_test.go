package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Port:              "3001",
		TwelveLabsAPIKey:  "tlk",
		TwelveLabsIndexID: "idx",
		SupabaseURL:       "https://project.supabase.co",
		SupabaseKey:       "service-key",
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateReportsMissingKeys(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"twelvelabs key", func(c *Config) { c.TwelveLabsAPIKey = "" }, "TWELVE_LABS_API_KEY"},
		{"index id", func(c *Config) { c.TwelveLabsIndexID = "" }, "TWELVE_LABS_INDEX_ID"},
		{"supabase url", func(c *Config) { c.SupabaseURL = "" }, "SUPABASE_URL"},
		{"supabase key", func(c *Config) { c.SupabaseKey = "" }, "SUPABASE_SERVICE_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error naming %s, got: %v", tt.want, err)
			}
		})
	}
}

func TestGeminiKeyIsOptional(t *testing.T) {
	cfg := validConfig()
	if cfg.InsightsEnabled() {
		t.Fatal("insights should be disabled without a key")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing Gemini key must not fail validation: %v", err)
	}
	cfg.GeminiAPIKey = "gk"
	if !cfg.InsightsEnabled() {
		t.Fatal("insights should be enabled with a key")
	}
}
