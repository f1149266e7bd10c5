package advisor

import (
	"gorm.io/gorm"

	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type QueryRepo interface {
	Create(dbc dbctx.Context, q *types.AdvisorQuery) error
	// ListByEmployee returns the newest queries first.
	ListByEmployee(dbc dbctx.Context, employeeID int64, limit int) ([]*types.AdvisorQuery, error)
}

type queryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQueryRepo(db *gorm.DB, baseLog *logger.Logger) QueryRepo {
	return &queryRepo{db: db, log: baseLog.With("repo", "AdvisorQueryRepo")}
}

func (r *queryRepo) Create(dbc dbctx.Context, q *types.AdvisorQuery) error {
	return dbc.DB(r.db).Create(q).Error
}

func (r *queryRepo) ListByEmployee(dbc dbctx.Context, employeeID int64, limit int) ([]*types.AdvisorQuery, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var results []*types.AdvisorQuery
	if err := dbc.DB(r.db).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
