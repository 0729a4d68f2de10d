//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a throwaway Redis for the test.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_RedisStoreLifecycle(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	backend := NewRedisBackend(client)
	store := NewStore(backend, NamespaceSummaries, 2*time.Second, WithLogger(zerolog.Nop()))

	store.Put(ctx, "ocd-bill/1", []byte("A short synopsis."))
	if got, ok := store.Get(ctx, "ocd-bill/1"); !ok || string(got) != "A short synopsis." {
		t.Fatalf("Get = %q, %v; want hit", got, ok)
	}

	// Wall-clock expiry: both the lazy check and the Redis key expiry apply.
	time.Sleep(2500 * time.Millisecond)
	if _, ok := store.Get(ctx, "ocd-bill/1"); ok {
		t.Fatal("entry should be expired")
	}
	if n := client.Exists(ctx, "legis:bill_summaries:ocd-bill/1").Val(); n != 0 {
		t.Error("expired key still present in Redis")
	}
}

func TestIntegration_RedisVotesAtomicReplace(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	votes := NewVoteStore(NewRedisBackend(client), zerolog.Nop())

	for i := 0; i < 20; i++ {
		counts := []VoteCount{{Option: "yes", Value: i}, {Option: "no", Value: 20 - i}}
		if err := votes.Replace(ctx, "b", "v", counts); err != nil {
			t.Fatalf("Replace %d failed: %v", i, err)
		}
	}

	got, ok := votes.Get(ctx, "b", "v")
	if !ok || len(got) != 2 {
		t.Fatalf("Get = %v, %v; want two options", got, ok)
	}
	if got[0].Option != "no" || got[0].Value != 1 || got[1].Value != 19 {
		t.Errorf("Get = %v, want last write", got)
	}
}
