package services

import (
	"context"
	"net/http"
	"strings"

	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/llm"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

const DefaultTopK = 5

type RetrievalResult struct {
	Answer  string              `json:"answer"`
	Sources []learning.Source   `json:"sources"`
	Rows    []*types.Competency `json:"-"`
}

// RetrievalService is the retrieval-augmented answerer.
type RetrievalService interface {
	Retrieve(ctx context.Context, question string) ([]*types.Competency, error)
	// Generate answers question from rows; rows must be non-empty.
	Generate(ctx context.Context, question string, rows []*types.Competency) (string, error)
	// Answer retrieves then generates. Zero rows yields the no-match answer
	// without calling the generator.
	Answer(ctx context.Context, question string) (*RetrievalResult, error)
}

type retrievalService struct {
	log       *logger.Logger
	embedder  llm.Embedder
	generator llm.Generator
	index     VectorIndex
	topK      int
}

func NewRetrievalService(log *logger.Logger, embedder llm.Embedder, generator llm.Generator, index VectorIndex, topK int) RetrievalService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &retrievalService{
		log:       log.With("service", "RetrievalService"),
		embedder:  embedder,
		generator: generator,
		index:     index,
		topK:      topK,
	}
}

func (s *retrievalService) Retrieve(ctx context.Context, question string) ([]*types.Competency, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_question", nil)
	}
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		s.log.Warn("Embedding failed", "error", err)
		return nil, upstreamError(err)
	}
	rows, err := s.index.Nearest(ctx, vec, s.topK)
	if err != nil {
		return nil, internalError("vector_search_failed", err)
	}
	return rows, nil
}

func (s *retrievalService) Generate(ctx context.Context, question string, rows []*types.Competency) (string, error) {
	out, err := s.generator.Generate(ctx, learning.BuildAnswerPrompt(question, rows))
	if err != nil {
		s.log.Warn("Generation failed", "error", err)
		return "", upstreamError(err)
	}
	return strings.TrimSpace(out), nil
}

func (s *retrievalService) Answer(ctx context.Context, question string) (*RetrievalResult, error) {
	rows, err := s.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &RetrievalResult{Answer: learning.NoMatchAnswer, Sources: []learning.Source{}}, nil
	}
	answer, err := s.Generate(ctx, question, rows)
	if err != nil {
		return nil, err
	}
	return &RetrievalResult{Answer: answer, Sources: learning.SourcesOf(rows), Rows: rows}, nil
}
