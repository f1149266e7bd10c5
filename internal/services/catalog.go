package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

// Ladder is the resolved level sequence of one competency name.
type Ladder struct {
	Name   string
	Rows   []*types.Competency
	Levels []string
}

func (l *Ladder) Empty() bool { return l == nil || len(l.Levels) == 0 }

type CatalogService interface {
	Get(ctx context.Context, id int64) (*types.Competency, error)
	// ResolveLadder returns an empty ladder, not an error, for unknown names.
	ResolveLadder(ctx context.Context, name string) (*Ladder, error)
	// SearchPath lists every row whose name contains query, ordered by level
	// number then id.
	SearchPath(ctx context.Context, query string) ([]*types.Competency, error)
	// SequenceUntilLevel finds the catalog name mentioned in question and the
	// first level token, and truncates that ladder at it. nil when no catalog
	// name is mentioned.
	SequenceUntilLevel(ctx context.Context, question string) (*learning.Roadmap, error)
}

type catalogService struct {
	log            *logger.Logger
	competencyRepo repos.CompetencyRepo
}

func NewCatalogService(log *logger.Logger, competencyRepo repos.CompetencyRepo) CatalogService {
	return &catalogService{
		log:            log.With("service", "CatalogService"),
		competencyRepo: competencyRepo,
	}
}

func (s *catalogService) Get(ctx context.Context, id int64) (*types.Competency, error) {
	row, err := s.competencyRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, internalError("load_competency_failed", err)
	}
	if row == nil {
		return nil, apierr.New(http.StatusNotFound, "competency_not_found", errCompetencyNotFound)
	}
	return row, nil
}

func (s *catalogService) ResolveLadder(ctx context.Context, name string) (*Ladder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return &Ladder{}, nil
	}
	rows, err := s.competencyRepo.ListByName(dbctx.New(ctx), name)
	if err != nil {
		return nil, internalError("resolve_ladder_failed", err)
	}
	if len(rows) == 0 {
		return &Ladder{Name: name}, nil
	}
	// rows arrive by ascending id, so the first carries the canonical spelling
	return &Ladder{
		Name:   rows[0].Name,
		Rows:   rows,
		Levels: learning.LadderOf(rows),
	}, nil
}

func (s *catalogService) SearchPath(ctx context.Context, query string) ([]*types.Competency, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_query", nil)
	}
	rows, err := s.competencyRepo.SearchByName(dbctx.New(ctx), query)
	if err != nil {
		return nil, internalError("search_path_failed", err)
	}
	learning.SortRows(rows)
	return rows, nil
}

func (s *catalogService) SequenceUntilLevel(ctx context.Context, question string) (*learning.Roadmap, error) {
	names, err := s.competencyRepo.ListDistinctNames(dbctx.New(ctx))
	if err != nil {
		return nil, internalError("list_names_failed", err)
	}
	name, ok := learning.MatchCatalogName(question, names)
	if !ok {
		return nil, nil
	}
	ladder, err := s.ResolveLadder(ctx, name)
	if err != nil {
		return nil, err
	}
	if ladder.Empty() {
		return nil, nil
	}
	target, _ := learning.LevelToken(question)
	rm := learning.BuildRoadmap(ladder.Name, ladder.Levels, target)
	return &rm, nil
}
