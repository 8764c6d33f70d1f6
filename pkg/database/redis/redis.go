package redis

import (
	"context"
	"fmt"
	"net"
	"strings"

	"outfitJourney/pkg/config"

	"github.com/redis/go-redis/v9"
)

// clientOptions maps the Redis section of the config onto go-redis options.
// The client name shows up in CLIENT LIST next to the arm store's keys.
func clientOptions(cfg *config.Config) *redis.Options {
	rc := cfg.Redis
	return &redis.Options{
		Addr:         net.JoinHostPort(rc.RedisHost, rc.RedisPort),
		Password:     rc.RedisPassword,
		DB:           rc.RedisDB,
		ClientName:   clientName(cfg.App.Name),
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.OpTimeout,
		WriteTimeout: rc.OpTimeout,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
	}
}

func clientName(appName string) string {
	name := strings.ToLower(strings.Join(strings.Fields(appName), "-"))
	if name == "" {
		return "outfit-journey"
	}
	return name
}

// NewRedisClient connects the arm store client and pings it within the dial
// timeout.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts := clientOptions(cfg)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}

func CloseRedisClient(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
