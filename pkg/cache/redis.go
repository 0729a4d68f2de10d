package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries in Redis.
type RedisBackend struct {
	redis *redis.Client
}

var (
	_ Backend     = (*RedisBackend)(nil)
	_ VoteBackend = (*RedisBackend)(nil)
)

// NewRedisBackend creates a backend over an existing client. The caller
// keeps ownership of the client.
func NewRedisBackend(redisClient *redis.Client) *RedisBackend {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisBackend{
		redis: redisClient,
	}
}

// Load retrieves and decodes the entry stored under key.
func (b *RedisBackend) Load(ctx context.Context, key string) (*Entry, error) {
	data, err := b.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if entry.Key == "" {
		entry.Key = key
	}

	return &entry, nil
}

// Save stores the entry. A positive ttl becomes the Redis key expiry so
// abandoned keys do not accumulate.
func (b *RedisBackend) Save(ctx context.Context, entry *Entry, ttl time.Duration) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := b.redis.Set(ctx, entry.Key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Remove deletes key.
func (b *RedisBackend) Remove(ctx context.Context, key string) error {
	if err := b.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close is a no-op; the client belongs to the caller.
func (b *RedisBackend) Close() error {
	return nil
}

// LoadVotes reads the option hash for (billID, voteID).
func (b *RedisBackend) LoadVotes(ctx context.Context, billID, voteID string) ([]VoteCount, error) {
	fields, err := b.redis.HGetAll(ctx, voteKey(billID, voteID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrCacheMiss
	}

	counts := make([]VoteCount, 0, len(fields))
	for option, raw := range fields {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: vote option %q: %v", ErrInvalidEntry, option, err)
		}
		counts = append(counts, VoteCount{Option: option, Value: value})
	}
	sortVoteCounts(counts)

	return counts, nil
}

// ReplaceVotes swaps the option hash inside MULTI/EXEC.
func (b *RedisBackend) ReplaceVotes(ctx context.Context, billID, voteID string, counts []VoteCount) error {
	key := voteKey(billID, voteID)

	_, err := b.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(counts) == 0 {
			return nil
		}
		values := make([]interface{}, 0, len(counts)*2)
		for _, c := range counts {
			values = append(values, c.Option, c.Value)
		}
		pipe.HSet(ctx, key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis replace votes: %w", err)
	}

	return nil
}

// voteKey builds legis:votes:<len(bill)>:<bill>:<vote>. The length prefix
// keeps ("a:b","c") and ("a","b:c") apart.
func voteKey(billID, voteID string) string {
	return "legis:votes:" + strconv.Itoa(len(billID)) + ":" + billID + ":" + voteID
}
