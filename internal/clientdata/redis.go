package clientdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const redisKeyPrefix = "coinvest:snapshot:"

// RedisStore keeps snapshots in Redis. Keys carry no native TTL: expiry lives in
// the envelope so an expired snapshot stays readable until DeleteExpired runs,
// the same as the SQLite store.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// envelope wraps the msgpack-encoded payload with its storage and expiry times
type envelope struct {
	StoredAt  int64              `msgpack:"stored_at"`
	ExpiresAt int64              `msgpack:"expires_at"`
	Data      msgpack.RawMessage `msgpack:"data"`
}

func (e envelope) expired(now time.Time) bool {
	return e.ExpiresAt < now.Unix()
}

// NewRedisStore creates a store from a redis:// URL
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewRedisStoreFromClient(redis.NewClient(opts)), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Store saves data under key, expiring now + ttl
func (s *RedisStore) Store(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := s.now()
	raw, err := encodeEnvelope(data, now, now.Add(ttl))
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, redisKeyPrefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", key, err)
	}
	return nil
}

// Get decodes the snapshot into dest regardless of expiration status.
// Returns false, nil if the key doesn't exist.
func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}

	if _, err := decodeEnvelope(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return true, nil
}

// Delete removes a specific entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// DeleteExpired scans the snapshot keys and removes expired or undecodable ones.
// Returns the number of keys deleted.
func (s *RedisStore) DeleteExpired(ctx context.Context) (int64, error) {
	now := s.now()
	var deleted int64

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to read snapshot %s: %w", key, err)
		}

		env, err := decodeEnvelope(raw, nil)
		if err == nil && !env.expired(now) {
			continue
		}

		n, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to delete snapshot %s: %w", key, err)
		}
		deleted += n
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan snapshots: %w", err)
	}

	return deleted, nil
}

func encodeEnvelope(data interface{}, storedAt, expiresAt time.Time) ([]byte, error) {
	payload, err := msgpack.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	raw, err := msgpack.Marshal(&envelope{StoredAt: storedAt.Unix(), ExpiresAt: expiresAt.Unix(), Data: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot envelope: %w", err)
	}
	return raw, nil
}

// decodeEnvelope returns the envelope and, when dest is non-nil, decodes the payload into it
func decodeEnvelope(raw []byte, dest interface{}) (envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return envelope{}, err
	}
	if dest != nil {
		if err := msgpack.Unmarshal(env.Data, dest); err != nil {
			return envelope{}, err
		}
	}
	return env, nil
}
