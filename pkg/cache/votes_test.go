package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func newMemoryVoteStore(t *testing.T) *VoteStore {
	t.Helper()
	backend, err := NewMemoryBackend(0)
	if err != nil {
		t.Fatalf("NewMemoryBackend failed: %v", err)
	}
	return NewVoteStore(backend, zerolog.Nop())
}

func TestValidateVoteCounts(t *testing.T) {
	tests := []struct {
		name    string
		counts  []VoteCount
		wantErr bool
	}{
		{
			name:   "valid counts",
			counts: []VoteCount{{Option: "yes", Value: 10}, {Option: "no", Value: 0}},
		},
		{
			name:   "empty set",
			counts: nil,
		},
		{
			name:    "negative value",
			counts:  []VoteCount{{Option: "yes", Value: -1}},
			wantErr: true,
		},
		{
			name:    "blank option",
			counts:  []VoteCount{{Option: "  ", Value: 3}},
			wantErr: true,
		},
		{
			name:    "duplicate option",
			counts:  []VoteCount{{Option: "yes", Value: 1}, {Option: "yes", Value: 2}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVoteCounts(tt.counts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateVoteCounts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidVoteCounts) {
				t.Errorf("error should wrap ErrInvalidVoteCounts, got %v", err)
			}
		})
	}
}

func TestVoteStore_ReplaceAndGet(t *testing.T) {
	store := newMemoryVoteStore(t)
	ctx := context.Background()

	counts := []VoteCount{{Option: "yes", Value: 31}, {Option: "no", Value: 9}, {Option: "abstain", Value: 0}}
	if err := store.Replace(ctx, "ocd-bill/1", "vote-1", counts); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, ok := store.Get(ctx, "ocd-bill/1", "vote-1")
	if !ok {
		t.Fatal("Get after Replace returned absent")
	}
	want := []VoteCount{{Option: "abstain", Value: 0}, {Option: "no", Value: 9}, {Option: "yes", Value: 31}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %v, want %v", got, want)
	}
}

func TestVoteStore_ReplaceDropsOldOptions(t *testing.T) {
	store := newMemoryVoteStore(t)
	ctx := context.Background()

	store.Replace(ctx, "b", "v", []VoteCount{{Option: "yes", Value: 1}, {Option: "excused", Value: 2}})
	store.Replace(ctx, "b", "v", []VoteCount{{Option: "yes", Value: 5}})

	got, _ := store.Get(ctx, "b", "v")
	want := []VoteCount{{Option: "yes", Value: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %v, want %v (no partial overwrite)", got, want)
	}
}

func TestVoteStore_InvalidReplaceKeepsExisting(t *testing.T) {
	store := newMemoryVoteStore(t)
	ctx := context.Background()

	store.Replace(ctx, "b", "v", []VoteCount{{Option: "yes", Value: 1}})
	err := store.Replace(ctx, "b", "v", []VoteCount{{Option: "yes", Value: -4}})
	if !errors.Is(err, ErrInvalidVoteCounts) {
		t.Fatalf("Replace error = %v, want ErrInvalidVoteCounts", err)
	}

	got, _ := store.Get(ctx, "b", "v")
	if len(got) != 1 || got[0].Value != 1 {
		t.Errorf("rejected write modified stored counts: %v", got)
	}
}

func TestVoteStore_EmptyReplaceDeletes(t *testing.T) {
	store := newMemoryVoteStore(t)
	ctx := context.Background()

	store.Replace(ctx, "b", "v", []VoteCount{{Option: "yes", Value: 1}})
	if err := store.Replace(ctx, "b", "v", nil); err != nil {
		t.Fatalf("Replace with empty set failed: %v", err)
	}
	if _, ok := store.Get(ctx, "b", "v"); ok {
		t.Error("empty replacement should delete the set")
	}
}

func TestVoteStore_RequiresKeys(t *testing.T) {
	store := newMemoryVoteStore(t)

	err := store.Replace(context.Background(), "b", "", []VoteCount{{Option: "yes", Value: 1}})
	if !errors.Is(err, ErrInvalidVoteCounts) {
		t.Errorf("Replace without vote id error = %v, want ErrInvalidVoteCounts", err)
	}
}

func TestVoteStore_ScopedByVote(t *testing.T) {
	store := newMemoryVoteStore(t)
	ctx := context.Background()

	store.Replace(ctx, "b", "v1", []VoteCount{{Option: "yes", Value: 1}})
	if _, ok := store.Get(ctx, "b", "v2"); ok {
		t.Error("counts leaked across vote ids")
	}
	if _, ok := store.Get(ctx, "other", "v1"); ok {
		t.Error("counts leaked across bill ids")
	}
}
