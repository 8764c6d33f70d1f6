package redis

import (
	"testing"
	"time"

	"outfitJourney/pkg/config"
)

func TestClientOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "Outfit Journey API"},
		Redis: config.RedisConfig{
			RedisHost:    "cache",
			RedisPort:    "6380",
			RedisDB:      2,
			PoolSize:     7,
			MinIdleConns: 1,
			DialTimeout:  time.Second,
			OpTimeout:    250 * time.Millisecond,
		},
	}

	opts := clientOptions(cfg)
	if opts.Addr != "cache:6380" {
		t.Errorf("Expected addr cache:6380, got %s", opts.Addr)
	}
	if opts.DB != 2 || opts.PoolSize != 7 || opts.MinIdleConns != 1 {
		t.Errorf("Unexpected pool settings db=%d pool=%d idle=%d", opts.DB, opts.PoolSize, opts.MinIdleConns)
	}
	if opts.ReadTimeout != 250*time.Millisecond || opts.WriteTimeout != 250*time.Millisecond {
		t.Errorf("Expected op timeout on reads and writes, got %v/%v", opts.ReadTimeout, opts.WriteTimeout)
	}
	if opts.ClientName != "outfit-journey-api" {
		t.Errorf("Expected client name outfit-journey-api, got %s", opts.ClientName)
	}
}

func TestClientNameFallback(t *testing.T) {
	if got := clientName("   "); got != "outfit-journey" {
		t.Errorf("Expected fallback name, got %s", got)
	}
}

func TestCloseNilClient(t *testing.T) {
	if err := CloseRedisClient(nil); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}
