package competency

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

// ProgressRepo is the employee progress ledger. Mutations are single
// statements so concurrent requests cannot produce duplicate rows.
type ProgressRepo interface {
	Get(dbc dbctx.Context, employeeID, competencyID int64) (*types.EmployeeCompetency, error)
	ListByEmployee(dbc dbctx.Context, employeeID int64) ([]*types.EmployeeCompetency, error)
	StatusSnapshot(dbc dbctx.Context, employeeID int64) (map[int64]types.ProgressStatus, error)
	// UpsertStart inserts IN_PROGRESS or re-marks an IN_PROGRESS row. It
	// reports false when the existing row is COMPLETED and was left untouched.
	UpsertStart(dbc dbctx.Context, employeeID, competencyID int64, at time.Time) (bool, error)
	// MarkCompleted moves an IN_PROGRESS row to COMPLETED.
	MarkCompleted(dbc dbctx.Context, employeeID, competencyID int64, at time.Time) (bool, error)
	// SetProgress updates the percentage of an IN_PROGRESS row.
	SetProgress(dbc dbctx.Context, employeeID, competencyID int64, pct int) (bool, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Get(dbc dbctx.Context, employeeID, competencyID int64) (*types.EmployeeCompetency, error) {
	var row types.EmployeeCompetency
	err := dbc.DB(r.db).
		Where("employee_id = ? AND competency_id = ?", employeeID, competencyID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *progressRepo) ListByEmployee(dbc dbctx.Context, employeeID int64) ([]*types.EmployeeCompetency, error) {
	var results []*types.EmployeeCompetency
	if err := dbc.DB(r.db).
		Preload("Competency").
		Where("employee_id = ?", employeeID).
		Order("competency_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) StatusSnapshot(dbc dbctx.Context, employeeID int64) (map[int64]types.ProgressStatus, error) {
	var rows []struct {
		CompetencyID int64
		Status       string
	}
	if err := dbc.DB(r.db).
		Model(&types.EmployeeCompetency{}).
		Select("competency_id, status").
		Where("employee_id = ?", employeeID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]types.ProgressStatus, len(rows))
	for _, row := range rows {
		out[row.CompetencyID] = types.ProgressStatus(row.Status)
	}
	return out, nil
}

func (r *progressRepo) UpsertStart(dbc dbctx.Context, employeeID, competencyID int64, at time.Time) (bool, error) {
	zero := 0
	row := &types.EmployeeCompetency{
		EmployeeID:   employeeID,
		CompetencyID: competencyID,
		Status:       types.StatusInProgress,
		Progress:     &zero,
		StartedOn:    &at,
		UpdatedAt:    at,
	}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "competency_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     types.StatusInProgress,
			"updated_at": at,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "UPPER(employee_competency.status) <> ?", Vars: []interface{}{string(types.StatusCompleted)}},
		}},
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *progressRepo) MarkCompleted(dbc dbctx.Context, employeeID, competencyID int64, at time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.EmployeeCompetency{}).
		Where("employee_id = ? AND competency_id = ? AND UPPER(status) = ?", employeeID, competencyID, string(types.StatusInProgress)).
		Updates(map[string]interface{}{
			"status":       types.StatusCompleted,
			"progress":     100,
			"completed_on": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *progressRepo) SetProgress(dbc dbctx.Context, employeeID, competencyID int64, pct int) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.EmployeeCompetency{}).
		Where("employee_id = ? AND competency_id = ? AND UPPER(status) = ?", employeeID, competencyID, string(types.StatusInProgress)).
		Updates(map[string]interface{}{
			"progress":   pct,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
