package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider != "geoapify" {
		t.Errorf("expected geoapify default provider, got %q", cfg.Provider)
	}
	if cfg.DefaultOrigin == "" {
		t.Error("expected a default origin")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROUTE_PROVIDER", "google")
	t.Setenv("BLUEFOLDER_API_KEY", "k")
	t.Setenv("BLUEFOLDER_ACCOUNT_NAME", "acme")
	t.Setenv("CF_SHORTENER_URL", "https://short.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider != "google" {
		t.Errorf("expected google, got %q", cfg.Provider)
	}
	if cfg.ShortenerURL != "https://short.example" {
		t.Errorf("unexpected shortener URL %q", cfg.ShortenerURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without BlueFolder credentials")
	}
}
