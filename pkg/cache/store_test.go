package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// scriptedBackend returns fixed errors and records calls.
type scriptedBackend struct {
	loadErr   error
	saveErr   error
	removeErr error

	loads   int
	saves   int
	removes []string
}

func (b *scriptedBackend) Load(_ context.Context, _ string) (*Entry, error) {
	b.loads++
	return nil, b.loadErr
}

func (b *scriptedBackend) Save(_ context.Context, _ *Entry, _ time.Duration) error {
	b.saves++
	return b.saveErr
}

func (b *scriptedBackend) Remove(_ context.Context, key string) error {
	b.removes = append(b.removes, key)
	return b.removeErr
}

func (b *scriptedBackend) Close() error { return nil }

func newMemoryStore(t *testing.T, ttl time.Duration, clock Clock) (*Store, *MemoryBackend) {
	t.Helper()
	backend, err := NewMemoryBackend(16)
	if err != nil {
		t.Fatalf("NewMemoryBackend failed: %v", err)
	}
	store := NewStore(backend, NamespaceBills, ttl, WithClock(clock), WithLogger(zerolog.Nop()))
	return store, backend
}

func TestNewStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with nil backend")
		}
	}()
	NewStore(nil, NamespaceBills, time.Hour)
}

func TestNewStore_DefaultTTL(t *testing.T) {
	backend, _ := NewMemoryBackend(1)

	store := NewStore(backend, NamespaceSummaries, 0)
	if store.TTL() != DefaultSummaryTTL {
		t.Errorf("TTL() = %v, want %v", store.TTL(), DefaultSummaryTTL)
	}
	if store.Namespace() != NamespaceSummaries {
		t.Errorf("Namespace() = %q, want %q", store.Namespace(), NamespaceSummaries)
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store, _ := newMemoryStore(t, time.Hour, newFakeClock())
	ctx := context.Background()

	payload := []byte(`{"id":"ocd-bill/1","title":"X"}`)
	store.Put(ctx, "ocd-bill/1", payload)

	got, ok := store.Get(ctx, "ocd-bill/1")
	if !ok {
		t.Fatal("Get after Put returned absent")
	}
	if string(got) != string(payload) {
		t.Errorf("payload mismatch: got %s, want %s", got, payload)
	}
}

func TestStore_Get_Miss(t *testing.T) {
	store, _ := newMemoryStore(t, time.Hour, newFakeClock())

	if _, ok := store.Get(context.Background(), "missing"); ok {
		t.Error("Get on empty store returned a payload")
	}
}

func TestStore_ExpiryScenario(t *testing.T) {
	clock := newFakeClock()
	store, backend := newMemoryStore(t, 1000*time.Millisecond, clock)
	ctx := context.Background()

	store.Put(ctx, "bill-42", []byte(`{"title":"X"}`))

	clock.Advance(500 * time.Millisecond)
	if _, ok := store.Get(ctx, "bill-42"); !ok {
		t.Fatal("Get at t=500ms should hit")
	}

	clock.Advance(1000 * time.Millisecond)
	if _, ok := store.Get(ctx, "bill-42"); ok {
		t.Fatal("Get at t=1500ms should miss")
	}
	if backend.Len() != 0 {
		t.Errorf("expired entry not deleted on read, backend has %d entries", backend.Len())
	}

	// Idempotent expiry
	if _, ok := store.Get(ctx, "bill-42"); ok {
		t.Error("second Get after expiry should still miss")
	}
}

func TestStore_PutRefreshesWriteTime(t *testing.T) {
	clock := newFakeClock()
	store, _ := newMemoryStore(t, time.Second, clock)
	ctx := context.Background()

	store.Put(ctx, "bill-42", []byte("v1"))
	clock.Advance(800 * time.Millisecond)
	store.Put(ctx, "bill-42", []byte("v2"))
	clock.Advance(700 * time.Millisecond)

	got, ok := store.Get(ctx, "bill-42")
	if !ok {
		t.Fatal("overwritten entry should still be live")
	}
	if string(got) != "v2" {
		t.Errorf("Get = %q, want last write %q", got, "v2")
	}
}

func TestStore_PayloadIsCopied(t *testing.T) {
	store, _ := newMemoryStore(t, time.Hour, newFakeClock())
	ctx := context.Background()

	payload := []byte("original")
	store.Put(ctx, "k", payload)
	payload[0] = 'X'

	got, _ := store.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("stored payload changed through caller slice: %q", got)
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newMemoryStore(t, time.Hour, newFakeClock())
	ctx := context.Background()

	store.Put(ctx, "k", []byte("v"))
	store.Delete(ctx, "k")
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Get after Delete should miss")
	}

	// Absent key is a no-op
	store.Delete(ctx, "never-written")
}

func TestStore_NamespacesAreIndependent(t *testing.T) {
	backend, _ := NewMemoryBackend(16)
	bills := NewStore(backend, NamespaceBills, time.Hour, WithLogger(zerolog.Nop()))
	texts := NewStore(backend, NamespaceTexts, time.Hour, WithLogger(zerolog.Nop()))
	ctx := context.Background()

	bills.Put(ctx, "hb-1", []byte("record"))
	if _, ok := texts.Get(ctx, "hb-1"); ok {
		t.Error("text namespace returned a bill record")
	}

	texts.Put(ctx, "hb-1", []byte("full text"))
	got, _ := bills.Get(ctx, "hb-1")
	if string(got) != "record" {
		t.Errorf("bill record overwritten by text namespace: %q", got)
	}
}

func TestStore_FailOpen(t *testing.T) {
	backend := &scriptedBackend{
		loadErr:   errors.New("connection refused"),
		saveErr:   errors.New("connection refused"),
		removeErr: errors.New("connection refused"),
	}
	store := NewStore(backend, NamespaceBills, time.Hour, WithLogger(zerolog.Nop()))
	ctx := context.Background()

	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Get with failing backend should report absent")
	}
	store.Put(ctx, "k", []byte("v"))
	store.Delete(ctx, "k")

	if backend.loads != 1 || backend.saves != 1 || len(backend.removes) != 1 {
		t.Errorf("unexpected backend calls: loads=%d saves=%d removes=%d",
			backend.loads, backend.saves, len(backend.removes))
	}
}

func TestStore_InvalidEntryIsDropped(t *testing.T) {
	backend := &scriptedBackend{loadErr: ErrInvalidEntry}
	store := NewStore(backend, NamespaceBills, time.Hour, WithLogger(zerolog.Nop()))

	if _, ok := store.Get(context.Background(), "bill-42"); ok {
		t.Fatal("Get on invalid entry should report absent")
	}
	if len(backend.removes) != 1 || backend.removes[0] != "legis:bills:bill-42" {
		t.Errorf("invalid entry not removed, removes = %v", backend.removes)
	}
}

func TestStore_PlainMissDoesNotDelete(t *testing.T) {
	backend := &scriptedBackend{loadErr: ErrCacheMiss}
	store := NewStore(backend, NamespaceBills, time.Hour, WithLogger(zerolog.Nop()))

	store.Get(context.Background(), "bill-42")
	if len(backend.removes) != 0 {
		t.Errorf("miss should not trigger delete, removes = %v", backend.removes)
	}
}
