package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/models"
	"github.com/redis/go-redis/v9"
)

// Conn opens a Redis client and verifies it answers PING.
func Conn(ctx context.Context, cfg config.CacheConfig, logger *log.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		DialTimeout: cfg.Timeout,
		Password:    cfg.Password,
		DB:          cfg.DB,
	})
	if logger != nil {
		logger.Printf("redis options -> %s db=%d", cfg.Addr(), cfg.DB)
	}

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if pong != "PONG" {
		_ = client.Close()
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}
	return client, nil
}

// Redis stores outcomes as JSON under page:<sha1(url)> with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, url string) (models.Outcome, bool, error) {
	val, err := r.client.Get(ctx, Key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Outcome{}, false, nil
	}
	if err != nil {
		return models.Outcome{}, false, err
	}
	var out models.Outcome
	if err := json.Unmarshal(val, &out); err != nil {
		return models.Outcome{}, false, fmt.Errorf("decode cached page: %w", err)
	}
	return out, true, nil
}

func (r *Redis) Set(ctx context.Context, url string, outcome models.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, Key(url), data, r.ttl).Err()
}
