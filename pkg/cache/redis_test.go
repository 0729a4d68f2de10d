package cache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis connects to a local Redis on DB 15 and skips the test when
// none is reachable. The integration suite uses testcontainers instead.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedisBackend_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisBackend should panic with nil redis client")
		}
	}()
	NewRedisBackend(nil)
}

func TestRedisBackend_SaveAndLoad(t *testing.T) {
	client := setupTestRedis(t)
	backend := NewRedisBackend(client)
	ctx := context.Background()

	entry := &Entry{Key: "legis:bills:ocd-bill/1", Payload: []byte(`{"id":"ocd-bill/1"}`), WrittenAt: time.Now()}
	if err := backend.Save(ctx, entry, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := backend.Load(ctx, entry.Key)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got.Payload) != string(entry.Payload) {
		t.Errorf("Payload = %s, want %s", got.Payload, entry.Payload)
	}

	ttl := client.TTL(ctx, entry.Key).Val()
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("redis key expiry = %v, want within (0, 1h]", ttl)
	}
}

func TestRedisBackend_InvalidEntry(t *testing.T) {
	client := setupTestRedis(t)
	backend := NewRedisBackend(client)
	ctx := context.Background()

	client.Set(ctx, "legis:bills:broken", "not json", 0)

	store := NewStore(backend, NamespaceBills, time.Hour, WithLogger(zerolog.Nop()))
	if _, ok := store.Get(ctx, "broken"); ok {
		t.Fatal("undecodable entry should be a miss")
	}
	if n := client.Exists(ctx, "legis:bills:broken").Val(); n != 0 {
		t.Error("undecodable entry should be deleted")
	}
}

func TestRedisBackend_StoreExpiry(t *testing.T) {
	client := setupTestRedis(t)
	clock := newFakeClock()
	store := NewStore(NewRedisBackend(client), NamespaceBills, time.Second, WithClock(clock), WithLogger(zerolog.Nop()))
	ctx := context.Background()

	store.Put(ctx, "bill-42", []byte(`{"title":"X"}`))
	clock.Advance(500 * time.Millisecond)
	if _, ok := store.Get(ctx, "bill-42"); !ok {
		t.Fatal("Get at t=500ms should hit")
	}
	clock.Advance(time.Second)
	if _, ok := store.Get(ctx, "bill-42"); ok {
		t.Fatal("Get at t=1500ms should miss")
	}
}

func TestRedisBackend_ReplaceVotes(t *testing.T) {
	client := setupTestRedis(t)
	store := NewVoteStore(NewRedisBackend(client), zerolog.Nop())
	ctx := context.Background()

	store.Replace(ctx, "ocd-bill/1", "v1", []VoteCount{{Option: "yes", Value: 3}, {Option: "excused", Value: 1}})
	store.Replace(ctx, "ocd-bill/1", "v1", []VoteCount{{Option: "yes", Value: 4}, {Option: "no", Value: 2}})

	got, ok := store.Get(ctx, "ocd-bill/1", "v1")
	if !ok {
		t.Fatal("Get returned absent")
	}
	want := []VoteCount{{Option: "no", Value: 2}, {Option: "yes", Value: 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %v, want %v", got, want)
	}

	store.Replace(ctx, "ocd-bill/1:v1", "x", []VoteCount{{Option: "abstain", Value: 9}})
	store.Replace(ctx, "ocd-bill/1", "v1:x", []VoteCount{{Option: "yes", Value: 1}})
	shifted, ok := store.Get(ctx, "ocd-bill/1:v1", "x")
	if !ok || !reflect.DeepEqual(shifted, []VoteCount{{Option: "abstain", Value: 9}}) {
		t.Errorf("shifted separator overwrote counts: %v", shifted)
	}
}
