package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

// noAnswerMessage is the terminal reply when neither the document
// index nor the tabular agent produced a meaningful result.
const noAnswerMessage = "No answer found in either the document index or the tabular data for this query."

// noTabularDataMessage is returned per file when a tabular session
// yields an empty answer.
const noTabularDataMessage = "No specific data found for this query in this file."

// noTabularAnswerMessage is the terminal reply for a targeted tabular
// query that produced nothing; the document index was never consulted
// on that route, so the wording stays scoped to tabular data.
const noTabularAnswerMessage = "No answer found in the tabular data for this query."

// SearchUseCase routes a query across the two retrieval surfaces. A
// source filter pins the query to one file and its class decides the
// route; without a filter, document search runs first and the tabular
// agent is the fallback when the document answer is judged not
// meaningful. Search never returns an error to the caller: every
// failure degrades into the next stage or the terminal no-answer
// reply.
type SearchUseCase struct {
	repo       ports.DocumentRepository
	retriever  *HybridRetriever
	generator  ports.AnswerGenerator
	tabular    ports.TabularAgent
	classifier ports.ResultClassifier
	logger     *slog.Logger
}

func NewSearchUseCase(
	repo ports.DocumentRepository,
	retriever *HybridRetriever,
	generator ports.AnswerGenerator,
	tabular ports.TabularAgent,
	classifier ports.ResultClassifier,
	logger *slog.Logger,
) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		repo:       repo,
		retriever:  retriever,
		generator:  generator,
		tabular:    tabular,
		classifier: classifier,
		logger:     logger,
	}
}

// Search executes the query. sourceDocument may be empty; debug turns
// on diagnostics collection, which records what happened but never
// changes routing.
func (s *SearchUseCase) Search(ctx context.Context, query, sourceDocument string, debug bool) domain.SearchResult {
	decision := s.decideStrategy(ctx, query, sourceDocument)

	result := domain.SearchResult{
		Query:    query,
		Strategy: decision.Strategy,
		Source:   domain.SourceNone,
	}
	if debug {
		result.Diagnostics = &domain.SearchDiagnostics{
			Query:        query,
			SourceFilter: sourceDocument,
			Strategy:     decision.Strategy,
			Description:  decision.Description,
		}
	}

	s.logger.Info("search strategy selected",
		"strategy", string(decision.Strategy),
		"source_filter", sourceDocument,
	)

	switch decision.Strategy {
	case domain.StrategyTargetedTabular:
		s.runTabular(ctx, query, decision.TabularTargets, &result)
	case domain.StrategyTargetedDocument:
		s.runDocument(ctx, query, decision.TargetDocument, &result)
	default:
		if !s.runDocument(ctx, query, "", &result) {
			result.Fallback = true
			if result.Diagnostics != nil {
				result.Diagnostics.FallbackReason = "document answer not meaningful"
			}
			s.runTabular(ctx, query, decision.TabularTargets, &result)
		}
	}

	if result.Source == domain.SourceNone {
		if decision.Strategy == domain.StrategyTargetedTabular {
			result.Answer = noTabularAnswerMessage
		} else {
			result.Answer = noAnswerMessage
		}
	}
	return result
}

// decideStrategy resolves routing from the source filter and the
// known file classes. Unknown filters fall through to sequential so a
// stale filter degrades instead of failing.
func (s *SearchUseCase) decideStrategy(ctx context.Context, query, sourceDocument string) domain.StrategyDecision {
	tabularTargets := s.listTabular(ctx)

	// "all" is an explicit request for the unfiltered flow, not a
	// stale filter.
	if strings.EqualFold(sourceDocument, "all") {
		sourceDocument = ""
	}

	if sourceDocument != "" {
		doc, err := s.repo.GetByName(ctx, sourceDocument)
		if err == nil && doc.Class == domain.ClassTabular {
			return domain.StrategyDecision{
				Strategy:       domain.StrategyTargetedTabular,
				TabularTargets: []string{doc.Name},
				Description:    fmt.Sprintf("source filter %q is tabular, querying the tabular agent directly", sourceDocument),
			}
		}
		if err == nil {
			return domain.StrategyDecision{
				Strategy:       domain.StrategyTargetedDocument,
				TargetDocument: doc.Name,
				Description:    fmt.Sprintf("source filter %q is a document, searching the document index with a filter", sourceDocument),
			}
		}
		s.logger.Warn("source filter not found, falling back to sequential search",
			"source_filter", sourceDocument, "error", err)
		return domain.StrategyDecision{
			Strategy:       domain.StrategySequential,
			TabularTargets: tabularTargets,
			Description:    fmt.Sprintf("source filter %q not found, searching documents first then tabular files", sourceDocument),
		}
	}

	return domain.StrategyDecision{
		Strategy:       domain.StrategySequential,
		TabularTargets: tabularTargets,
		Description:    "no source filter, searching documents first then tabular files",
	}
}

func (s *SearchUseCase) listTabular(ctx context.Context) []string {
	docs, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("listing documents for tabular targets failed", "error", err)
		return nil
	}
	var names []string
	for _, doc := range docs {
		if doc.Class == domain.ClassTabular {
			names = append(names, doc.Name)
		}
	}
	return names
}

// runDocument runs retrieval plus answer generation and reports
// whether the answer was meaningful. Failures along the way are
// logged and count as not meaningful.
func (s *SearchUseCase) runDocument(ctx context.Context, query, sourceDocument string, result *domain.SearchResult) bool {
	chunks, err := s.retriever.Retrieve(ctx, query, domain.SearchFilter{Source: sourceDocument})
	if err != nil {
		s.logger.Warn("document retrieval failed", "error", err)
		if result.Diagnostics != nil {
			result.Diagnostics.DocumentError = err.Error()
		}
		return false
	}
	if result.Diagnostics != nil {
		result.Diagnostics.DocumentsFound = len(chunks)
		for _, c := range chunks {
			if !containsChunk(result.Diagnostics.Documents, c) {
				result.Diagnostics.Documents = append(result.Diagnostics.Documents, c)
			}
		}
	}
	if len(chunks) == 0 {
		return false
	}

	answer, err := s.generator.GenerateAnswer(ctx, query, chunks)
	if err != nil {
		s.logger.Warn("answer generation failed", "error", err)
		if result.Diagnostics != nil {
			result.Diagnostics.DocumentError = err.Error()
		}
		return false
	}

	verdict := s.classifier.Classify(answer)
	if !verdict.Meaningful {
		s.logger.Info("document answer judged not meaningful", "reason", verdict.Reason)
		return false
	}

	result.Answer = answer
	result.Source = domain.SourceDocument
	result.Chunks = chunks
	return true
}

// runTabular queries every target file through the tabular agent.
// Each file is isolated: a failure in one file is recorded on its
// result and the rest still run.
func (s *SearchUseCase) runTabular(ctx context.Context, query string, targets []string, result *domain.SearchResult) {
	if len(targets) == 0 {
		return
	}

	var answered []string
	for _, name := range targets {
		fileResult := s.queryOneTabular(ctx, query, name)
		result.Tabular = append(result.Tabular, fileResult)
		if fileResult.Err == "" && s.classifier.Classify(fileResult.Answer).Meaningful {
			answered = append(answered, fmt.Sprintf("From %s: %s", fileResult.Filename, fileResult.Answer))
		}
	}

	if len(answered) > 0 {
		result.Answer = strings.Join(answered, "\n\n")
		result.Source = domain.SourceTabular
	}
}

func (s *SearchUseCase) queryOneTabular(ctx context.Context, query, name string) domain.TabularResult {
	out := domain.TabularResult{Filename: name}

	session, err := s.tabular.Open(ctx, name)
	if err != nil {
		s.logger.Warn("opening tabular session failed", "file", name, "error", err)
		out.Err = err.Error()
		return out
	}
	defer session.Close()

	out.FileType = session.FileType()
	out.Summary = session.Summary()

	answer, err := session.Query(ctx, query)
	if err != nil {
		s.logger.Warn("tabular query failed", "file", name, "error", err)
		out.Err = err.Error()
		return out
	}
	if strings.TrimSpace(answer) == "" {
		answer = noTabularDataMessage
	}
	out.Answer = answer
	return out
}

// QueryTabular serves the direct tabular endpoint: one file, no
// routing. Unlike Search it surfaces errors, since the caller named
// the file explicitly.
func (s *SearchUseCase) QueryTabular(ctx context.Context, filename, query string) (domain.TabularResult, error) {
	doc, err := s.repo.GetByName(ctx, filename)
	if err != nil {
		return domain.TabularResult{}, err
	}
	if doc.Class != domain.ClassTabular {
		return domain.TabularResult{}, domain.WrapError(domain.ErrInvalidInput, "query tabular",
			fmt.Errorf("%s is not a tabular file", filename))
	}
	result := s.queryOneTabular(ctx, query, doc.Name)
	return result, nil
}

// QueryTabularAll runs the direct tabular query against every
// registered tabular file, keeping per-file isolation.
func (s *SearchUseCase) QueryTabularAll(ctx context.Context, query string) ([]domain.TabularResult, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var results []domain.TabularResult
	for _, doc := range docs {
		if doc.Class != domain.ClassTabular {
			continue
		}
		results = append(results, s.queryOneTabular(ctx, query, doc.Name))
	}
	return results, nil
}

func containsChunk(list []domain.RetrievedChunk, c domain.RetrievedChunk) bool {
	for _, existing := range list {
		if existing.Source == c.Source && existing.ChunkID == c.ChunkID {
			return true
		}
	}
	return false
}
