package config

import (
	"testing"
	"time"
)

func TestLoadRequiresSecretAndDatabase(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "s3cr3t")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("DATABASE_URL", "postgres://localhost/elevex")
	t.Setenv("SYNC_MIN_INTERVAL", "7s")
	t.Setenv("RATE_LIMIT_PER_MIN", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("default addr = %q", cfg.HTTPAddr)
	}
	if cfg.SyncMinInterval != 7*time.Second {
		t.Fatalf("sync interval = %v", cfg.SyncMinInterval)
	}
	if cfg.RateLimitPerMin != 12 {
		t.Fatalf("rate limit = %d", cfg.RateLimitPerMin)
	}
	if cfg.TelegramEnabled {
		t.Fatal("telegram enabled without a token")
	}
}
