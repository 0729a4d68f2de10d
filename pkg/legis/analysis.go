package legis

import (
	"context"
	"errors"
	"strings"

	"github.com/Sternrassler/legisloom/pkg/bill"
	"github.com/Sternrassler/legisloom/pkg/llm"
	"github.com/Sternrassler/legisloom/pkg/resolve"
)

// MaxContentInput bounds caller-supplied text handed to SummarizeContent,
// in runes.
const MaxContentInput = 100000

var (
	// ErrEmptyContent is returned by SummarizeContent for blank input.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrSummarizerUnavailable is returned when no content summarizer is
	// configured.
	ErrSummarizerUnavailable = errors.New("content summarizer not configured")
)

// AnalysisResult is a bill summary with the keywords that categorize it.
// KeywordSource is empty when no source produced keywords.
type AnalysisResult struct {
	Summary       string   `json:"summary"`
	Keywords      []string `json:"keywords"`
	SummarySource string   `json:"summary_source"`
	KeywordSource string   `json:"keyword_source,omitempty"`
	Cached        bool     `json:"cached"`
}

// Analysis resolves the summary and keywords of a bill. Both halves go
// through cached chains. Exhausted keyword sources leave Keywords empty
// instead of failing the analysis.
func (s *Service) Analysis(ctx context.Context, id string) (*AnalysisResult, error) {
	summary, err := s.Summary(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &AnalysisResult{
		Summary:       summary.Summary,
		Keywords:      []string{},
		SummarySource: summary.Source,
		Cached:        summary.Cached,
	}

	kw, err := s.keywords.Resolve(ctx, id)
	switch {
	case err == nil:
		out.Keywords = kw.Value
		out.KeywordSource = kw.Source
		out.Cached = out.Cached && kw.Cached
	case errors.Is(err, resolve.ErrNotFound):
		out.Cached = false
		s.logger.Debug().Str("bill_id", id).Msg("No keywords for bill")
	default:
		return nil, err
	}
	return out, nil
}

// SummarizeContent summarizes caller-supplied bill text. Results are not
// cached.
func (s *Service) SummarizeContent(ctx context.Context, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if s.contentSummarizer == nil {
		return "", ErrSummarizerUnavailable
	}
	return s.contentSummarizer.SummarizeContent(ctx, bill.Truncate(content, MaxContentInput))
}

func (s *Service) keywordSources() []resolve.Source[[]string] {
	var sources []resolve.Source[[]string]
	if s.keywordExtractor != nil {
		sources = append(sources, resolve.NewSource[[]string](SourceKeywords, s.extractKeywords))
	}
	return append(sources, resolve.Uncached(resolve.NewSource[[]string](SourceSubjects, s.subjectKeywords)))
}

func (s *Service) extractKeywords(ctx context.Context, id string) ([]string, error) {
	meta, err := s.metadata.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	req := llm.KeywordRequest{Title: meta.Value.Title}
	if text, err := s.texts.Resolve(ctx, id); err == nil {
		req.Text = bill.Truncate(text.Value, MaxSummaryInput)
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	} else {
		req.Text = bill.AbstractText(meta.Value)
	}

	return s.keywordExtractor.Keywords(ctx, req)
}

// subjectKeywords uses the bill's own subject tags.
func (s *Service) subjectKeywords(ctx context.Context, id string) ([]string, error) {
	meta, err := s.metadata.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(meta.Value.Subjects))
	out = append(out, meta.Value.Subjects...)
	return out, nil
}
