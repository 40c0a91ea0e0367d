package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/position"
	"github.com/redis/go-redis/v9"
)

// Redis keeps positions as JSON values under a key prefix. Positions never
// expire.
type Redis struct {
	client redis.Cmdable
	prefix string
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg config.Redis) (*Redis, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(client, cfg.KeyPrefix), client, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client redis.Cmdable, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(instance string) string { return r.prefix + instance }

func (r *Redis) Load(ctx context.Context, instance string) (position.Position, error) {
	data, err := r.client.Get(ctx, r.key(instance)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return position.Position{}, ErrNotFound
		}
		return position.Position{}, fmt.Errorf("load %s: %w", instance, err)
	}
	var p position.Position
	if err := json.Unmarshal(data, &p); err != nil {
		return position.Position{}, fmt.Errorf("decode %s: %w", instance, err)
	}
	return p, nil
}

func (r *Redis) Save(ctx context.Context, instance string, pos position.Position) error {
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encode %s: %w", instance, err)
	}
	if err := r.client.Set(ctx, r.key(instance), data, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", instance, err)
	}
	return nil
}
