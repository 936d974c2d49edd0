package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the keys: codemaster:token and
// codemaster:username.
const DefaultRedisPrefix = "codemaster:"

// RedisStore shares one session between machines through Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to addr and pings it.
func NewRedisStore(ctx context.Context, addr, password, prefix string) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("session: redis backend needs an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: connecting to redis at %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client, prefix), nil
}

// NewRedisStoreFromClient wraps an existing client. An empty prefix means
// DefaultRedisPrefix.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) tokenKey() string    { return r.prefix + "token" }
func (r *RedisStore) usernameKey() string { return r.prefix + "username" }

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tokenKey(), s.Token, 0)
		pipe.Set(ctx, r.usernameKey(), s.Username, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: saving to redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.usernameKey()).Err(); err != nil {
		return fmt.Errorf("session: clearing redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context) (Session, error) {
	vals, err := r.client.MGet(ctx, r.tokenKey(), r.usernameKey()).Result()
	if err != nil {
		return Session{}, fmt.Errorf("session: loading from redis: %w", err)
	}

	var s Session
	s.Token, _ = vals[0].(string)
	s.Username, _ = vals[1].(string)
	return s, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
