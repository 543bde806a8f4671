package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const flagPrefix = "relay:flag:"

// FlagRepo stores expiring markers: public command cooldowns and copies an
// administrator asked to keep.
type FlagRepo struct {
	client *goredis.Client
}

func NewFlagRepo(client *goredis.Client) *FlagRepo {
	return &FlagRepo{client: client}
}

func (r *FlagRepo) SetOnce(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if key == "" || ttl <= 0 {
		return false, fmt.Errorf("invalid flag payload")
	}

	ok, err := r.client.SetNX(ctx, flagPrefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set flag once: %w", err)
	}
	return ok, nil
}

func (r *FlagRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" || ttl <= 0 {
		return fmt.Errorf("invalid flag payload")
	}

	if err := r.client.Set(ctx, flagPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set flag: %w", err)
	}
	return nil
}

func (r *FlagRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if r.client == nil {
		return "", false, fmt.Errorf("redis client is nil")
	}

	value, err := r.client.Get(ctx, flagPrefix+key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get flag: %w", err)
	}
	return value, true, nil
}

func (r *FlagRepo) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, flagPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete flag: %w", err)
	}
	return nil
}
