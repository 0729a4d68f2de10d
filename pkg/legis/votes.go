package legis

import (
	"context"
	"errors"

	"github.com/Sternrassler/legisloom/pkg/cache"
)

// ErrVotesUnavailable is returned when the service has no vote store.
var ErrVotesUnavailable = errors.New("vote store not configured")

// Votes returns the stored counts for (billID, voteID), sorted by option.
func (s *Service) Votes(ctx context.Context, billID, voteID string) ([]cache.VoteCount, bool) {
	if s.votes == nil {
		return nil, false
	}
	return s.votes.Get(ctx, billID, voteID)
}

// SaveVotes replaces the counts for (billID, voteID). Invalid sets fail
// with cache.ErrInvalidVoteCounts and leave the stored set untouched.
func (s *Service) SaveVotes(ctx context.Context, billID, voteID string, counts []cache.VoteCount) error {
	if s.votes == nil {
		return ErrVotesUnavailable
	}
	return s.votes.Replace(ctx, billID, voteID, counts)
}
