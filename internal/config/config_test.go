package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("default port: got %s", cfg.Port)
	}
	if cfg.SessionBackend != "memory" {
		t.Errorf("default session backend: got %s", cfg.SessionBackend)
	}
	if cfg.BookingAPITimeout != 20*time.Second {
		t.Errorf("default timeout: got %s", cfg.BookingAPITimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOOKING_API_URL", "https://api.example.test")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("SESSION_TTL", "10m")

	cfg := Load()
	if cfg.BookingAPIBaseURL != "https://api.example.test" {
		t.Errorf("base url: got %s", cfg.BookingAPIBaseURL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.test" {
		t.Errorf("cors origins: got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SessionBackend != "redis" {
		t.Errorf("session backend not normalized: got %s", cfg.SessionBackend)
	}
	if cfg.SessionTTL != 10*time.Minute {
		t.Errorf("session ttl: got %s", cfg.SessionTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing BOOKING_API_URL")
	}

	t.Setenv("BOOKING_API_URL", "https://api.example.test")
	t.Setenv("SESSION_BACKEND", "dynamo")
	if err := Load().Validate(); err == nil {
		t.Fatal("expected error for unknown session backend")
	}
}
