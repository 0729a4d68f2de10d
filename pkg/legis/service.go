// Package legis is the bill lookup service. It wires the metadata, text,
// summary and keyword resolver chains over the cache stores, and adds search
// with a catalog fallback, bill analysis, free-text summaries, vote counts
// and chat.
//
// Usage:
//
//	svc := legis.New(legis.Deps{
//	    Bills:     cache.NewStore(backend, cache.NamespaceBills, 0),
//	    Texts:     cache.NewStore(backend, cache.NamespaceTexts, 0),
//	    Summaries: cache.NewStore(backend, cache.NamespaceSummaries, 0),
//	    Votes:     cache.NewVoteStore(backend, logger),
//	    Upstream:  openstatesClient,
//	})
//	res, err := svc.Bill(ctx, "ocd-bill/...")
package legis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Sternrassler/legisloom/pkg/bill"
	"github.com/Sternrassler/legisloom/pkg/cache"
	"github.com/Sternrassler/legisloom/pkg/llm"
	"github.com/Sternrassler/legisloom/pkg/logging"
	"github.com/Sternrassler/legisloom/pkg/openstates"
	"github.com/Sternrassler/legisloom/pkg/resolve"
	"github.com/rs/zerolog"
)

// Source names used in chain results.
const (
	SourceOpenStates  = "openstates"
	SourceSearch      = "search"
	SourceDocument    = "document"
	SourceAbstract    = "abstract"
	SourceSummarizer  = "summarizer"
	SourcePlaceholder = "placeholder"
	SourceKeywords    = "keywords"
	SourceSubjects    = "subjects"
)

// Upstream is the subset of the OpenStates client the service uses.
// *openstates.Client implements it.
type Upstream interface {
	GetBill(ctx context.Context, id string) ([]byte, error)
	SearchBills(ctx context.Context, params openstates.SearchParams) (*openstates.SearchPage, error)
	FetchDocument(ctx context.Context, docURL string) (string, error)
}

var _ Upstream = (*openstates.Client)(nil)

// Deps are the collaborators of a Service. Upstream and the model
// collaborators are optional; the chains skip what is missing. Nil stores
// disable caching for their chain.
type Deps struct {
	Bills     *cache.Store
	Texts     *cache.Store
	Summaries *cache.Store
	Keywords  *cache.Store
	Votes     *cache.VoteStore

	Upstream          Upstream
	Summarizer        llm.Summarizer
	Chatter           llm.Chatter
	ContentSummarizer llm.ContentSummarizer
	KeywordExtractor  llm.KeywordExtractor

	// Catalog is the static fallback. Defaults to bill.DefaultCatalog().
	Catalog *bill.Catalog

	// SourceTimeout bounds each chain source. Zero means no bound.
	SourceTimeout time.Duration

	Logger *zerolog.Logger
}

// Service answers bill lookups.
type Service struct {
	metadata  *resolve.Resolver[*bill.Record]
	texts     *resolve.Resolver[string]
	summaries *resolve.Resolver[string]
	keywords  *resolve.Resolver[[]string]

	upstream          Upstream
	summarizer        llm.Summarizer
	chatter           llm.Chatter
	contentSummarizer llm.ContentSummarizer
	keywordExtractor  llm.KeywordExtractor
	catalog           *bill.Catalog
	votes             *cache.VoteStore
	logger            zerolog.Logger
}

// New builds a Service and its resolver chains.
func New(deps Deps) *Service {
	logger := logging.NewLogger("legis")
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = bill.DefaultCatalog()
	}

	s := &Service{
		upstream:          deps.Upstream,
		summarizer:        deps.Summarizer,
		chatter:           deps.Chatter,
		contentSummarizer: deps.ContentSummarizer,
		keywordExtractor:  deps.KeywordExtractor,
		catalog:           catalog,
		votes:             deps.Votes,
		logger:            logger,
	}

	opts := func(chain string) []resolve.Option {
		return []resolve.Option{
			resolve.WithChain(chain),
			resolve.WithLogger(logger),
			resolve.WithSourceTimeout(deps.SourceTimeout),
		}
	}

	s.metadata = resolve.New[*bill.Record](deps.Bills, resolve.RecordCodec{}, s.metadataSources(), opts("metadata")...)
	s.texts = resolve.New[string](deps.Texts, resolve.TextCodec{}, s.textSources(), opts("text")...)
	s.summaries = resolve.New[string](deps.Summaries, resolve.TextCodec{}, s.summarySources(), opts("summary")...)
	s.keywords = resolve.New[[]string](deps.Keywords, resolve.ListCodec{}, s.keywordSources(), opts("keywords")...)

	return s
}

// Chains returns the source names of each chain, for diagnostics.
func (s *Service) Chains() map[string][]string {
	return map[string][]string{
		"metadata": s.metadata.Sources(),
		"text":     s.texts.Sources(),
		"summary":  s.summaries.Sources(),
		"keywords": s.keywords.Sources(),
	}
}

// BillResult is a resolved bill record.
type BillResult struct {
	Bill   *bill.Record `json:"bill"`
	Source string       `json:"source"`
	Cached bool         `json:"cached"`
}

// Bill resolves the metadata of a bill.
func (s *Service) Bill(ctx context.Context, id string) (*BillResult, error) {
	res, err := s.metadata.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BillResult{Bill: res.Value, Source: res.Source, Cached: res.Cached}, nil
}

// TextResult is a resolved bill text.
type TextResult struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Cached bool   `json:"cached"`
}

// Text resolves the full text of a bill, falling back to its abstract.
func (s *Service) Text(ctx context.Context, id string) (*TextResult, error) {
	res, err := s.texts.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TextResult{Text: res.Value, Source: res.Source, Cached: res.Cached}, nil
}

// SummaryResult is a resolved bill summary.
type SummaryResult struct {
	Summary string `json:"summary"`
	Source  string `json:"source"`
	Cached  bool   `json:"cached"`
}

// Summary resolves a plain-language summary of a bill. The placeholder
// source makes this fail only for an empty id or a cancelled context.
func (s *Service) Summary(ctx context.Context, id string) (*SummaryResult, error) {
	res, err := s.summaries.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{Summary: res.Value, Source: res.Source, Cached: res.Cached}, nil
}

// Refresh drops every cached value for id.
func (s *Service) Refresh(ctx context.Context, id string) {
	s.metadata.Invalidate(ctx, id)
	s.texts.Invalidate(ctx, id)
	s.summaries.Invalidate(ctx, id)
	s.keywords.Invalidate(ctx, id)
	s.logger.Info().Str("bill_id", id).Msg("Bill cache invalidated")
}

func normalizeSearchResults(raw []json.RawMessage, logger zerolog.Logger) []*bill.Record {
	out := make([]*bill.Record, 0, len(raw))
	for _, item := range raw {
		r, err := bill.Normalize(item, bill.FormatSearchResult)
		if err != nil {
			logger.Warn().Err(err).Msg("Skipping undecodable search result")
			continue
		}
		out = append(out, r)
	}
	return out
}
