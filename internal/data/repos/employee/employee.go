package employee

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/competency-advisor/internal/data/dberr"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type EmployeeRepo interface {
	Create(dbc dbctx.Context, e *types.Employee) (*types.Employee, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Employee, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.Employee, error)
	UpdatePassword(dbc dbctx.Context, id int64, hash string) error
}

type employeeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployeeRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeRepo {
	return &employeeRepo{db: db, log: baseLog.With("repo", "EmployeeRepo")}
}

// Create returns an error wrapping dberr.ErrConflict when the email is taken.
func (r *employeeRepo) Create(dbc dbctx.Context, e *types.Employee) (*types.Employee, error) {
	e.Email = normalizeEmail(e.Email)
	if err := dbc.DB(r.db).Create(e).Error; err != nil {
		return nil, dberr.Map(err)
	}
	return e, nil
}

func (r *employeeRepo) GetByID(dbc dbctx.Context, id int64) (*types.Employee, error) {
	var row types.Employee
	err := dbc.DB(r.db).Where("employee_id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *employeeRepo) GetByEmail(dbc dbctx.Context, email string) (*types.Employee, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	var row types.Employee
	err := dbc.DB(r.db).Where("email = ?", email).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *employeeRepo) UpdatePassword(dbc dbctx.Context, id int64, hash string) error {
	return dbc.DB(r.db).
		Model(&types.Employee{}).
		Where("employee_id = ?", id).
		Update("password", hash).Error
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
