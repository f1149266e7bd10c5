package services

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

// ProgressService moves an employee through the ledger. Transitions are
// forward only: not started -> IN_PROGRESS -> COMPLETED.
type ProgressService interface {
	CanStart(ctx context.Context, employeeID, competencyID int64) (bool, error)
	Start(ctx context.Context, employeeID, competencyID int64) (*types.EmployeeCompetency, error)
	Complete(ctx context.Context, employeeID, competencyID int64) (*types.EmployeeCompetency, error)
	UpdateProgress(ctx context.Context, employeeID, competencyID int64, pct int) (*types.EmployeeCompetency, error)
	ListMine(ctx context.Context, employeeID int64) ([]*types.EmployeeCompetency, error)
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	competencyRepo repos.CompetencyRepo
	progressRepo   repos.ProgressRepo
	now            func() time.Time
}

func NewProgressService(db *gorm.DB, log *logger.Logger, competencyRepo repos.CompetencyRepo, progressRepo repos.ProgressRepo) ProgressService {
	return &progressService{
		db:             db,
		log:            log.With("service", "ProgressService"),
		competencyRepo: competencyRepo,
		progressRepo:   progressRepo,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *progressService) CanStart(ctx context.Context, employeeID, competencyID int64) (bool, error) {
	if employeeID <= 0 {
		return false, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized)
	}
	return s.canStart(dbctx.New(ctx), employeeID, competencyID)
}

func (s *progressService) canStart(dbc dbctx.Context, employeeID, competencyID int64) (bool, error) {
	c, err := s.competencyRepo.GetByID(dbc, competencyID)
	if err != nil {
		return false, internalError("load_competency_failed", err)
	}
	if c == nil {
		return false, apierr.New(http.StatusNotFound, "competency_not_found", errCompetencyNotFound)
	}
	if !c.HasPrerequisite() {
		return true, nil
	}
	prereq, err := s.progressRepo.Get(dbc, employeeID, *c.PrerequisiteID)
	if err != nil {
		return false, internalError("load_progress_failed", err)
	}
	snap := learning.Snapshot{}
	if prereq != nil {
		snap[prereq.CompetencyID] = prereq.Status
	}
	return learning.CanStart(c, snap), nil
}

func (s *progressService) Start(ctx context.Context, employeeID, competencyID int64) (*types.EmployeeCompetency, error) {
	if employeeID <= 0 {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized)
	}
	var out *types.EmployeeCompetency
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ok, err := s.canStart(dbc, employeeID, competencyID)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.New(http.StatusConflict, "prerequisite_not_completed", errPrerequisite)
		}
		changed, err := s.progressRepo.UpsertStart(dbc, employeeID, competencyID, s.now())
		if err != nil {
			return internalError("start_competency_failed", err)
		}
		if !changed {
			return apierr.New(http.StatusConflict, "already_completed", errAlreadyCompleted)
		}
		out, err = s.progressRepo.Get(dbc, employeeID, competencyID)
		if err != nil {
			return internalError("load_progress_failed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Competency started", "employee_id", employeeID, "competency_id", competencyID)
	return out, nil
}

func (s *progressService) Complete(ctx context.Context, employeeID, competencyID int64) (*types.EmployeeCompetency, error) {
	if employeeID <= 0 {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized)
	}
	dbc := dbctx.New(ctx)
	changed, err := s.progressRepo.MarkCompleted(dbc, employeeID, competencyID, s.now())
	if err != nil {
		return nil, internalError("complete_competency_failed", err)
	}
	row, err := s.progressRepo.Get(dbc, employeeID, competencyID)
	if err != nil {
		return nil, internalError("load_progress_failed", err)
	}
	if !changed {
		return nil, s.transitionError(ctx, competencyID, row)
	}
	s.log.Info("Competency completed", "employee_id", employeeID, "competency_id", competencyID)
	return row, nil
}

func (s *progressService) UpdateProgress(ctx context.Context, employeeID, competencyID int64, pct int) (*types.EmployeeCompetency, error) {
	if employeeID <= 0 {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized)
	}
	if pct < 0 || pct > 100 {
		return nil, apierr.New(http.StatusBadRequest, "invalid_progress", errInvalidProgress)
	}
	dbc := dbctx.New(ctx)
	changed, err := s.progressRepo.SetProgress(dbc, employeeID, competencyID, pct)
	if err != nil {
		return nil, internalError("update_progress_failed", err)
	}
	row, err := s.progressRepo.Get(dbc, employeeID, competencyID)
	if err != nil {
		return nil, internalError("load_progress_failed", err)
	}
	if !changed {
		return nil, s.transitionError(ctx, competencyID, row)
	}
	return row, nil
}

func (s *progressService) ListMine(ctx context.Context, employeeID int64) ([]*types.EmployeeCompetency, error) {
	if employeeID <= 0 {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized)
	}
	rows, err := s.progressRepo.ListByEmployee(dbctx.New(ctx), employeeID)
	if err != nil {
		return nil, internalError("list_progress_failed", err)
	}
	return rows, nil
}

// transitionError explains why an IN_PROGRESS-only update touched nothing.
func (s *progressService) transitionError(ctx context.Context, competencyID int64, row *types.EmployeeCompetency) error {
	if row != nil && row.Status.Is(types.StatusCompleted) {
		return apierr.New(http.StatusConflict, "already_completed", errAlreadyCompleted)
	}
	c, err := s.competencyRepo.GetByID(dbctx.New(ctx), competencyID)
	if err != nil {
		return internalError("load_competency_failed", err)
	}
	if c == nil {
		return apierr.New(http.StatusNotFound, "competency_not_found", errCompetencyNotFound)
	}
	return apierr.New(http.StatusConflict, "not_started", errNotStarted)
}
