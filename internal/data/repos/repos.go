package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/competency-advisor/internal/data/repos/advisor"
	"github.com/yungbote/competency-advisor/internal/data/repos/competency"
	"github.com/yungbote/competency-advisor/internal/data/repos/employee"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type CompetencyRepo = competency.CompetencyRepo
type ProgressRepo = competency.ProgressRepo

type EmployeeRepo = employee.EmployeeRepo
type SessionRepo = employee.SessionRepo

type AdvisorQueryRepo = advisor.QueryRepo

func NewCompetencyRepo(db *gorm.DB, baseLog *logger.Logger) CompetencyRepo {
	return competency.NewCompetencyRepo(db, baseLog)
}
func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return competency.NewProgressRepo(db, baseLog)
}

func NewEmployeeRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeRepo {
	return employee.NewEmployeeRepo(db, baseLog)
}
func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return employee.NewSessionRepo(db, baseLog)
}

func NewAdvisorQueryRepo(db *gorm.DB, baseLog *logger.Logger) AdvisorQueryRepo {
	return advisor.NewQueryRepo(db, baseLog)
}
