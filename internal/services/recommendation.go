package services

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

const DefaultEligibleLimit = 5

type RecommendationService interface {
	// NextFor returns nil when nothing is left to start.
	NextFor(ctx context.Context, employeeID int64) (*types.Competency, error)
	Eligible(ctx context.Context, employeeID int64, limit int) ([]*types.Competency, error)
}

type recommendationService struct {
	log            *logger.Logger
	competencyRepo repos.CompetencyRepo
	progressRepo   repos.ProgressRepo
}

func NewRecommendationService(log *logger.Logger, competencyRepo repos.CompetencyRepo, progressRepo repos.ProgressRepo) RecommendationService {
	return &recommendationService{
		log:            log.With("service", "RecommendationService"),
		competencyRepo: competencyRepo,
		progressRepo:   progressRepo,
	}
}

func (s *recommendationService) NextFor(ctx context.Context, employeeID int64) (*types.Competency, error) {
	candidates, snap, err := s.load(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return learning.NextEligible(candidates, snap), nil
}

func (s *recommendationService) Eligible(ctx context.Context, employeeID int64, limit int) ([]*types.Competency, error) {
	if limit <= 0 {
		limit = DefaultEligibleLimit
	}
	candidates, snap, err := s.load(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return learning.Eligible(candidates, snap, limit), nil
}

func (s *recommendationService) load(ctx context.Context, employeeID int64) ([]*types.Competency, learning.Snapshot, error) {
	if employeeID <= 0 {
		return nil, nil, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized)
	}
	var (
		candidates []*types.Competency
		snap       learning.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.competencyRepo.ListIncompleteForEmployee(dbctx.New(gctx), employeeID)
		if err != nil {
			return internalError("list_candidates_failed", err)
		}
		candidates = rows
		return nil
	})
	g.Go(func() error {
		m, err := loadSnapshot(gctx, s.progressRepo, employeeID)
		snap = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return candidates, snap, nil
}
