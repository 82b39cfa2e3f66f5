package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/skillsenselab/authgate/internal/logger"
)

// RedisStore implements Store on Redis. Records are JSON-serialized and
// stored under "<prefix>:<key>" with no expiration.
type RedisStore struct {
	rdb       *goredis.Client
	keyPrefix string
	log       *logger.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg Config, log *logger.Logger) (*RedisStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("store config: %w", err)
	}

	dialTimeout, _ := time.ParseDuration(cfg.DialTimeout)
	readTimeout, _ := time.ParseDuration(cfg.ReadTimeout)
	writeTimeout, _ := time.ParseDuration(cfg.WriteTimeout)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("store: connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info("Connected to user store", map[string]interface{}{
		"addr": cfg.Addr,
		"db":   cfg.DB,
	})

	return &RedisStore{
		rdb:       rdb,
		keyPrefix: cfg.KeyPrefix,
		log:       log.WithComponent("store"),
	}, nil
}

func (s *RedisStore) fullKey(key string) string {
	return s.keyPrefix + ":" + key
}

func (s *RedisStore) GetByKey(ctx context.Context, key string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, s.fullKey(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("store: unmarshal %q: %w", key, err)
	}
	return &rec, nil
}

func (s *RedisStore) GetAll(ctx context.Context) (map[string]*Record, error) {
	out := make(map[string]*Record)
	prefix := s.keyPrefix + ":"

	iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		raw, err := s.rdb.Get(ctx, fullKey).Result()
		if err != nil {
			// Key expired or was deleted between SCAN and GET.
			if errors.Is(err, goredis.Nil) {
				continue
			}
			return nil, fmt.Errorf("store: get %q: %w", fullKey, err)
		}

		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("store: unmarshal %q: %w", fullKey, err)
		}
		out[fullKey[len(prefix):]] = &rec
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}
	return out, nil
}

func (s *RedisStore) SetByKey(ctx context.Context, key string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.fullKey(key), string(data), 0).Err(); err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}

// Ping reports whether the backing Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
