package services

import (
	"context"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type RoadmapService interface {
	// Build returns nil when the competency is unknown.
	Build(ctx context.Context, name, target string) (*learning.Roadmap, error)
	BuildPersonalized(ctx context.Context, employeeID int64, name, target string) (*learning.Roadmap, error)
	// BuildWithSnapshot personalizes against an already loaded snapshot; a
	// nil snapshot skips personalization.
	BuildWithSnapshot(ctx context.Context, name, target string, snap learning.Snapshot) (*learning.Roadmap, error)
}

type roadmapService struct {
	log          *logger.Logger
	catalog      CatalogService
	progressRepo repos.ProgressRepo
}

func NewRoadmapService(log *logger.Logger, catalog CatalogService, progressRepo repos.ProgressRepo) RoadmapService {
	return &roadmapService{
		log:          log.With("service", "RoadmapService"),
		catalog:      catalog,
		progressRepo: progressRepo,
	}
}

func (s *roadmapService) Build(ctx context.Context, name, target string) (*learning.Roadmap, error) {
	return s.BuildWithSnapshot(ctx, name, target, nil)
}

func (s *roadmapService) BuildPersonalized(ctx context.Context, employeeID int64, name, target string) (*learning.Roadmap, error) {
	snap, err := loadSnapshot(ctx, s.progressRepo, employeeID)
	if err != nil {
		return nil, err
	}
	return s.BuildWithSnapshot(ctx, name, target, snap)
}

func (s *roadmapService) BuildWithSnapshot(ctx context.Context, name, target string, snap learning.Snapshot) (*learning.Roadmap, error) {
	ladder, err := s.catalog.ResolveLadder(ctx, name)
	if err != nil {
		return nil, err
	}
	if ladder.Empty() {
		return nil, nil
	}
	rm := learning.BuildRoadmap(ladder.Name, ladder.Levels, target)
	rm.AttachRows(ladder.Rows)
	if snap != nil {
		rm.Personalize(ladder.Rows, snap)
	}
	return &rm, nil
}

// loadSnapshot returns nil for anonymous callers.
func loadSnapshot(ctx context.Context, progressRepo repos.ProgressRepo, employeeID int64) (learning.Snapshot, error) {
	if employeeID <= 0 || progressRepo == nil {
		return nil, nil
	}
	m, err := progressRepo.StatusSnapshot(dbctx.New(ctx), employeeID)
	if err != nil {
		return nil, internalError("load_progress_failed", err)
	}
	if m == nil {
		m = learning.Snapshot{}
	}
	return learning.Snapshot(m), nil
}
