// Package dedupe remembers recently seen keys so retried deliveries can be dropped.
package dedupe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	RedisURL  string        `envconfig:"REDIS_URL" split_words:"true"`
	TTL       time.Duration `envconfig:"TTL" default:"10m"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" split_words:"true" default:"chative:update:"`
}

// Store reports whether a key is seen for the first time within the TTL.
type Store interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
}

// New returns a Redis store when RedisURL is set and an in-memory store otherwise.
// The Redis server must answer PING.
func New(ctx context.Context, cfg Config) (Store, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return NewMemoryStore(cfg.TTL), nil
	}
	opts, err := redis.ParseURL(strings.TrimSpace(cfg.RedisURL))
	if err != nil {
		return nil, fmt.Errorf("parse dedupe redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("dedupe redis ping: %w", err)
	}
	return NewRedisStore(client, cfg.KeyPrefix, cfg.TTL), nil
}

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) FirstSeen(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is a process-local Store. Expired keys are swept on write,
// at most once per TTL.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	seen      map[string]time.Time
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		seen: make(map[string]time.Time, 256),
		now:  time.Now,
	}
}

func (s *MemoryStore) FirstSeen(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.seen[key]; ok && now.Before(exp) {
		return false, nil
	}
	if !now.Before(s.nextSweep) {
		s.sweep(now)
		s.nextSweep = now.Add(s.ttl)
	}
	s.seen[key] = now.Add(s.ttl)
	return true, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, k)
		}
	}
}
