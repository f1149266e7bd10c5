package employee

import (
	"errors"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, s *types.EmployeeSession) (*types.EmployeeSession, error)
	// GetActive returns the session if it exists and expires after now.
	GetActive(dbc dbctx.Context, token string, now time.Time) (*types.EmployeeSession, error)
	Delete(dbc dbctx.Context, token string) error
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *types.EmployeeSession) (*types.EmployeeSession, error) {
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *sessionRepo) GetActive(dbc dbctx.Context, token string, now time.Time) (*types.EmployeeSession, error) {
	if token == "" {
		return nil, nil
	}
	var row types.EmployeeSession
	err := dbc.DB(r.db).
		Where("token = ? AND expires_at > ?", token, now).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *sessionRepo) Delete(dbc dbctx.Context, token string) error {
	return dbc.DB(r.db).Where("token = ?", token).Delete(&types.EmployeeSession{}).Error
}

func (r *sessionRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.DB(r.db).Where("expires_at <= ?", now).Delete(&types.EmployeeSession{})
	return res.RowsAffected, res.Error
}
