package legis

import (
	"context"
	"errors"
	"strings"

	"github.com/Sternrassler/legisloom/pkg/bill"
	"github.com/Sternrassler/legisloom/pkg/openstates"
)

// SearchResult is one page of bill search results.
type SearchResult struct {
	Results    []*bill.Record         `json:"results"`
	Source     string                 `json:"source"`
	Pagination *openstates.Pagination `json:"pagination,omitempty"`
}

// Search runs an upstream bill search. It falls back to the catalog when
// there is no upstream, the credentials are rejected, or the upstream
// cannot be reached. Other upstream errors, a rate limit included, are
// returned.
func (s *Service) Search(ctx context.Context, query, jurisdiction string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	jurisdiction = strings.TrimSpace(jurisdiction)

	if s.upstream == nil {
		return s.catalogSearch(query, jurisdiction), nil
	}

	page, err := s.upstream.SearchBills(ctx, openstates.SearchParams{Query: query, Jurisdiction: jurisdiction})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !searchFallsBack(err) {
			return nil, err
		}
		s.logger.Warn().Err(err).
			Str("query", query).
			Str("class", string(openstates.ClassOf(err))).
			Msg("Upstream search failed, falling back to catalog")
		return s.catalogSearch(query, jurisdiction), nil
	}

	pagination := page.Pagination
	return &SearchResult{
		Results:    normalizeSearchResults(page.Results, s.logger),
		Source:     SourceOpenStates,
		Pagination: &pagination,
	}, nil
}

func (s *Service) catalogSearch(query, jurisdiction string) *SearchResult {
	return &SearchResult{
		Results: s.catalog.Search(query, jurisdiction),
		Source:  bill.SourceCatalog,
	}
}

func searchFallsBack(err error) bool {
	if errors.Is(err, openstates.ErrUnauthorized) {
		return true
	}
	return openstates.ClassOf(err) == openstates.ErrorClassNetwork
}
