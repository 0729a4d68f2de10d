package legis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/legisloom/pkg/bill"
	"github.com/Sternrassler/legisloom/pkg/llm"
	"github.com/Sternrassler/legisloom/pkg/openstates"
	"github.com/Sternrassler/legisloom/pkg/resolve"
)

// MaxSummaryInput bounds the bill text handed to the summarizer, in runes.
const MaxSummaryInput = 4000

var (
	errNoMatch   = errors.New("no search result matches the bill id")
	errNoTextURL = errors.New("bill has no text document")
)

func (s *Service) metadataSources() []resolve.Source[*bill.Record] {
	var sources []resolve.Source[*bill.Record]
	if s.upstream != nil {
		sources = append(sources,
			resolve.NewSource[*bill.Record](SourceOpenStates, s.fetchUpstreamBill),
			resolve.NewSource[*bill.Record](SourceSearch, s.searchUpstreamBill),
		)
	}
	return append(sources, resolve.Uncached(resolve.NewSource[*bill.Record](bill.SourceCatalog, s.lookupCatalog)))
}

func (s *Service) textSources() []resolve.Source[string] {
	var sources []resolve.Source[string]
	if s.upstream != nil {
		sources = append(sources, resolve.NewSource[string](SourceDocument, s.fetchDocument))
	}
	return append(sources, resolve.NewSource[string](SourceAbstract, s.abstractText))
}

func (s *Service) summarySources() []resolve.Source[string] {
	var sources []resolve.Source[string]
	if s.summarizer != nil {
		sources = append(sources, resolve.NewSource[string](SourceSummarizer, s.summarize))
	}
	return append(sources, resolve.Uncached(resolve.NewSource[string](SourcePlaceholder, s.placeholder)))
}

func (s *Service) fetchUpstreamBill(ctx context.Context, id string) (*bill.Record, error) {
	raw, err := s.upstream.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	return bill.Normalize(raw, bill.FormatOpenStates)
}

// searchUpstreamBill looks the bill up through search by the id's trailing
// identifier. Path-style ids (jurisdiction/session/identifier) also narrow
// the jurisdiction.
func (s *Service) searchUpstreamBill(ctx context.Context, id string) (*bill.Record, error) {
	params := openstates.SearchParams{Query: trailingSegment(id), PerPage: 20}
	if segments := strings.Split(id, "/"); len(segments) >= 3 && !strings.HasPrefix(id, "ocd-bill") {
		params.Jurisdiction = segments[0]
	}

	page, err := s.upstream.SearchBills(ctx, params)
	if err != nil {
		return nil, err
	}

	for _, r := range normalizeSearchResults(page.Results, s.logger) {
		if r.ID == id || sameIdentifier(r.Identifier, params.Query) {
			r.Source = SourceSearch
			return r, nil
		}
	}
	return nil, errNoMatch
}

func (s *Service) lookupCatalog(_ context.Context, id string) (*bill.Record, error) {
	r, ok := s.catalog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q not in catalog", resolve.ErrNotFound, id)
	}
	return r, nil
}

func (s *Service) fetchDocument(ctx context.Context, id string) (string, error) {
	meta, err := s.metadata.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	u := bill.TextURL(meta.Value)
	if u == "" {
		return "", errNoTextURL
	}
	return s.upstream.FetchDocument(ctx, u)
}

func (s *Service) abstractText(ctx context.Context, id string) (string, error) {
	meta, err := s.metadata.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	return bill.AbstractText(meta.Value), nil
}

func (s *Service) summarize(ctx context.Context, id string) (string, error) {
	meta, err := s.metadata.Resolve(ctx, id)
	if err != nil {
		return "", err
	}

	req := llm.SummaryRequest{
		Identifier: meta.Value.Identifier,
		Title:      meta.Value.Title,
	}
	if bill.HasAbstract(meta.Value) {
		req.Abstract = bill.Truncate(meta.Value.Abstract, MaxSummaryInput)
	}
	if text, err := s.texts.Resolve(ctx, id); err == nil {
		req.Text = bill.Truncate(text.Value, MaxSummaryInput)
	} else if ctx.Err() != nil {
		return "", ctx.Err()
	}

	return s.summarizer.Summarize(ctx, req)
}

func (s *Service) placeholder(ctx context.Context, id string) (string, error) {
	identifier, title := id, bill.DefaultTitle
	if meta, err := s.metadata.Resolve(ctx, id); err == nil {
		identifier, title = meta.Value.Identifier, meta.Value.Title
	} else if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return PlaceholderSummary(identifier, title), nil
}

func trailingSegment(id string) string {
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func sameIdentifier(a, b string) bool {
	squash := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), ""))
	}
	return a != "" && squash(a) == squash(b)
}
