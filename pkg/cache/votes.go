package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidVoteCounts is returned for vote count sets that fail validation.
var ErrInvalidVoteCounts = errors.New("invalid vote counts")

// VoteCount is the tally for one vote option.
type VoteCount struct {
	Option string `json:"option"`
	Value  int    `json:"value"`
}

// VoteStore keeps vote count sets per (billID, voteID).
type VoteStore struct {
	backend VoteBackend
	logger  zerolog.Logger
}

// NewVoteStore creates a vote store over backend.
func NewVoteStore(backend VoteBackend, logger zerolog.Logger) *VoteStore {
	if backend == nil {
		panic("vote backend cannot be nil")
	}
	return &VoteStore{backend: backend, logger: logger}
}

// Get returns the option set sorted by option. Read errors are logged and
// reported absent.
func (v *VoteStore) Get(ctx context.Context, billID, voteID string) ([]VoteCount, bool) {
	counts, err := v.backend.LoadVotes(ctx, billID, voteID)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			CacheErrors.WithLabelValues("votes", "votes_get").Inc()
			v.logger.Warn().Err(err).
				Str("bill_id", billID).
				Str("vote_id", voteID).
				Msg("Vote count read error, treating as absent")
		}
		return nil, false
	}
	return counts, true
}

// Replace validates counts and swaps the whole option set. An empty set
// deletes the stored one.
func (v *VoteStore) Replace(ctx context.Context, billID, voteID string, counts []VoteCount) error {
	if strings.TrimSpace(billID) == "" || strings.TrimSpace(voteID) == "" {
		return fmt.Errorf("%w: bill id and vote id are required", ErrInvalidVoteCounts)
	}
	if err := ValidateVoteCounts(counts); err != nil {
		return err
	}

	if err := v.backend.ReplaceVotes(ctx, billID, voteID, counts); err != nil {
		CacheErrors.WithLabelValues("votes", "votes_put").Inc()
		return fmt.Errorf("replace vote counts: %w", err)
	}

	v.logger.Debug().
		Str("bill_id", billID).
		Str("vote_id", voteID).
		Int("options", len(counts)).
		Msg("Replaced vote counts")
	return nil
}

// ValidateVoteCounts checks that every option is named, unique and has a
// non-negative value.
func ValidateVoteCounts(counts []VoteCount) error {
	seen := make(map[string]struct{}, len(counts))
	for i, c := range counts {
		if strings.TrimSpace(c.Option) == "" {
			return fmt.Errorf("%w: entry %d has an empty option", ErrInvalidVoteCounts, i)
		}
		if c.Value < 0 {
			return fmt.Errorf("%w: option %q has negative value %d", ErrInvalidVoteCounts, c.Option, c.Value)
		}
		if _, dup := seen[c.Option]; dup {
			return fmt.Errorf("%w: option %q appears twice", ErrInvalidVoteCounts, c.Option)
		}
		seen[c.Option] = struct{}{}
	}
	return nil
}

func sortVoteCounts(counts []VoteCount) {
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Option < counts[j].Option
	})
}
