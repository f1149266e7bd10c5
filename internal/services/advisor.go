package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/pkg/pointers"
	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

// AdvisorState names the steps of one Ask call.
type AdvisorState string

const (
	StateParseRoadmap           AdvisorState = "parse_roadmap"
	StateRenderRoadmap          AdvisorState = "render_roadmap"
	StateRetrieveContext        AdvisorState = "retrieve_context"
	StateNoMatch                AdvisorState = "no_match"
	StateTryPersonalizedRoadmap AdvisorState = "try_personalized_roadmap"
	StateGenerateFallback       AdvisorState = "generate_fallback"
)

type AdvisorResult struct {
	QueryID  uuid.UUID             `json:"query_id"`
	Answer   string                `json:"answer"`
	Sources  []learning.Source     `json:"sources"`
	Strategy types.AdvisorStrategy `json:"strategy"`
	Roadmap  *learning.Roadmap     `json:"roadmap,omitempty"`
	Trace    []AdvisorState        `json:"-"`
}

// AdvisorService answers a question, preferring a deterministic roadmap over
// generated text whenever a competency and level can be pinned down.
type AdvisorService interface {
	Ask(ctx context.Context, employeeID int64, question string) (*AdvisorResult, error)
	// AskRetrieval skips roadmap resolution and answers from retrieved
	// context only. The answer is audited like Ask.
	AskRetrieval(ctx context.Context, employeeID int64, question string) (*AdvisorResult, error)
	History(ctx context.Context, employeeID int64, limit int) ([]*types.AdvisorQuery, error)
}

type advisorService struct {
	log          *logger.Logger
	extractor    learning.StructuredExtractor
	roadmaps     RoadmapService
	retrieval    RetrievalService
	progressRepo repos.ProgressRepo
	queryRepo    repos.AdvisorQueryRepo
	now          func() time.Time
}

func NewAdvisorService(
	log *logger.Logger,
	extractor learning.StructuredExtractor,
	roadmaps RoadmapService,
	retrieval RetrievalService,
	progressRepo repos.ProgressRepo,
	queryRepo repos.AdvisorQueryRepo,
) AdvisorService {
	if extractor == nil {
		extractor = learning.PhraseExtractor{}
	}
	return &advisorService{
		log:          log.With("service", "AdvisorService"),
		extractor:    extractor,
		roadmaps:     roadmaps,
		retrieval:    retrieval,
		progressRepo: progressRepo,
		queryRepo:    queryRepo,
		now:          time.Now,
	}
}

func (s *advisorService) Ask(ctx context.Context, employeeID int64, question string) (*AdvisorResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_question", nil)
	}
	ctx, span := otel.Tracer("advisor").Start(ctx, "advisor.ask")
	defer span.End()
	start := s.now()

	res, err := s.run(ctx, employeeID, question)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("advisor.strategy", string(res.Strategy)),
		attribute.Int("advisor.sources", len(res.Sources)),
	)
	res.QueryID = s.record(ctx, employeeID, question, res, s.now().Sub(start))
	return res, nil
}

func (s *advisorService) AskRetrieval(ctx context.Context, employeeID int64, question string) (*AdvisorResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_question", nil)
	}
	ctx, span := otel.Tracer("advisor").Start(ctx, "advisor.ask_retrieval")
	defer span.End()
	start := s.now()

	ans, err := s.retrieval.Answer(ctx, question)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res := &AdvisorResult{
		Answer:   ans.Answer,
		Sources:  ans.Sources,
		Strategy: types.StrategyRetrieval,
		Trace:    []AdvisorState{StateRetrieveContext, StateGenerateFallback},
	}
	if len(ans.Rows) == 0 {
		res.Strategy = types.StrategyNoMatch
		res.Trace = []AdvisorState{StateRetrieveContext, StateNoMatch}
	}
	if res.Sources == nil {
		res.Sources = []learning.Source{}
	}
	res.QueryID = s.record(ctx, employeeID, question, res, s.now().Sub(start))
	return res, nil
}

func (s *advisorService) run(ctx context.Context, employeeID int64, question string) (*AdvisorResult, error) {
	res := &AdvisorResult{Trace: []AdvisorState{StateParseRoadmap}}

	if target, ok := s.extractor.Extract(question); ok {
		snap, err := loadSnapshot(ctx, s.progressRepo, employeeID)
		if err != nil {
			s.log.Warn("Progress snapshot unavailable, rendering without it", "error", err)
			snap = nil
		}
		rm, err := s.roadmaps.BuildWithSnapshot(ctx, target.Competency, target.Level, snap)
		if err != nil {
			s.log.Warn("Structured roadmap failed, falling back to retrieval", "competency", target.Competency, "error", err)
		} else if rm != nil {
			return s.roadmapResult(res, rm, types.StrategyRoadmap), nil
		}
	}

	res.Trace = append(res.Trace, StateRetrieveContext)
	var (
		rows []*types.Competency
		snap learning.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.retrieval.Retrieve(gctx, question)
		rows = r
		return err
	})
	g.Go(func() error {
		m, err := loadSnapshot(gctx, s.progressRepo, employeeID)
		if err != nil {
			s.log.Warn("Progress snapshot unavailable, rendering without it", "error", err)
			return nil
		}
		snap = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		res.Trace = append(res.Trace, StateNoMatch)
		res.Answer = learning.NoMatchAnswer
		res.Sources = []learning.Source{}
		res.Strategy = types.StrategyNoMatch
		return res, nil
	}

	res.Trace = append(res.Trace, StateTryPersonalizedRoadmap)
	top := rows[0]
	rm, err := s.roadmaps.BuildWithSnapshot(ctx, top.Name, top.ProficiencyLevel, snap)
	if err != nil {
		s.log.Warn("Roadmap from retrieval failed, generating", "competency", top.Name, "error", err)
	} else if rm != nil {
		out := s.roadmapResult(res, rm, types.StrategyRetrievalRoadmap)
		out.Sources = learning.SourcesOf(rows)
		return out, nil
	}

	res.Trace = append(res.Trace, StateGenerateFallback)
	answer, err := s.retrieval.Generate(ctx, question, rows)
	if err != nil {
		return nil, err
	}
	res.Answer = answer
	res.Sources = learning.SourcesOf(rows)
	res.Strategy = types.StrategyGenerated
	return res, nil
}

func (s *advisorService) roadmapResult(res *AdvisorResult, rm *learning.Roadmap, strategy types.AdvisorStrategy) *AdvisorResult {
	res.Trace = append(res.Trace, StateRenderRoadmap)
	res.Answer = rm.Render()
	res.Roadmap = rm
	res.Strategy = strategy
	res.Sources = learning.SourcesOf(rm.Rows)
	return res
}

// record writes the audit row. Failures are logged and never fail the ask.
func (s *advisorService) record(ctx context.Context, employeeID int64, question string, res *AdvisorResult, latency time.Duration) uuid.UUID {
	if s.queryRepo == nil {
		return uuid.Nil
	}
	q := &types.AdvisorQuery{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Question:   question,
		Answer:     res.Answer,
		Strategy:   res.Strategy,
		LatencyMS:  latency.Milliseconds(),
	}
	if raw, err := json.Marshal(res.Sources); err == nil {
		q.Sources = datatypes.JSON(raw)
	}
	if rep := learning.EvaluateAnswer(s.extractor, question, res.Answer); rep.Parsed {
		q.Accuracy = pointers.Float64(rep.Score)
	}
	if err := s.queryRepo.Create(dbctx.New(context.WithoutCancel(ctx)), q); err != nil {
		s.log.Warn("Failed to record advisor query", "error", err, "employee_id", employeeID)
		return uuid.Nil
	}
	return q.ID
}

func (s *advisorService) History(ctx context.Context, employeeID int64, limit int) ([]*types.AdvisorQuery, error) {
	if employeeID <= 0 {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized)
	}
	rows, err := s.queryRepo.ListByEmployee(dbctx.New(ctx), employeeID, limit)
	if err != nil {
		return nil, internalError("list_history_failed", err)
	}
	return rows, nil
}
