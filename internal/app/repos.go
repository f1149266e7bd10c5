package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type Repos struct {
	Competency   repos.CompetencyRepo
	Progress     repos.ProgressRepo
	Employee     repos.EmployeeRepo
	Session      repos.SessionRepo
	AdvisorQuery repos.AdvisorQueryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Competency:   repos.NewCompetencyRepo(db, log),
		Progress:     repos.NewProgressRepo(db, log),
		Employee:     repos.NewEmployeeRepo(db, log),
		Session:      repos.NewSessionRepo(db, log),
		AdvisorQuery: repos.NewAdvisorQueryRepo(db, log),
	}
}
