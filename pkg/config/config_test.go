package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("Expected port 8000, got %s", cfg.Server.Port)
	}
	if cfg.Feed.MinLikesForBandit != 4 {
		t.Errorf("Expected min likes 4, got %d", cfg.Feed.MinLikesForBandit)
	}
	if cfg.Feed.PoolMultiplier != 10 {
		t.Errorf("Expected pool multiplier 10, got %d", cfg.Feed.PoolMultiplier)
	}
	if cfg.Bandit.Store != "postgres" {
		t.Errorf("Expected postgres bandit store, got %s", cfg.Bandit.Store)
	}
	if cfg.Bandit.LikeCancelPolicy != "engage" {
		t.Errorf("Expected engage like-cancel policy, got %s", cfg.Bandit.LikeCancelPolicy)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s request timeout, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Redis.PoolSize != 20 || cfg.Redis.OpTimeout != 500*time.Millisecond {
		t.Errorf("Expected redis pool 20 and 500ms op timeout, got %d and %v", cfg.Redis.PoolSize, cfg.Redis.OpTimeout)
	}
}

func TestLoadMissingPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for missing database password")
	}
}

func TestLoadRedisStoreRequiresRedis(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("BANDIT_STORE", "redis")
	t.Setenv("REDIS_ENABLED", "false")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error when redis store is selected without redis")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("FEEDBACK_WORKERS", "8")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("FEED_CONTENT_TRAFFIC_PCT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Feedback.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Feedback.Workers)
	}
	if cfg.Server.RequestTimeout != 2*time.Second {
		t.Errorf("Expected 2s timeout, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Feed.ContentTrafficPct != 25 {
		t.Errorf("Expected 25 pct, got %d", cfg.Feed.ContentTrafficPct)
	}
}
