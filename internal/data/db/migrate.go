package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/competency-advisor/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if isPostgres(db) {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
			return fmt.Errorf("enable vector: %w", err)
		}
	}
	if err := db.AutoMigrate(
		// catalog + progress ledger
		&types.Competency{},
		&types.EmployeeCompetency{},

		// identity
		&types.Employee{},
		&types.EmployeeSession{},

		// advisor audit
		&types.AdvisorQuery{},
	); err != nil {
		return err
	}
	if err := EnsureCatalogIndexes(db); err != nil {
		return err
	}
	return EnsureProgressIndexes(db)
}

func EnsureCatalogIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_competency_catalog_name_level
		ON competency_catalog(competency_name, proficiency_level_name);
	`).Error; err != nil {
		return fmt.Errorf("create idx_competency_catalog_name_level: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_competency_catalog_lower_name
		ON competency_catalog(LOWER(competency_name));
	`).Error; err != nil {
		return fmt.Errorf("create idx_competency_catalog_lower_name: %w", err)
	}
	return nil
}

func EnsureProgressIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_employee_competency_employee_status
		ON employee_competency(employee_id, status);
	`).Error; err != nil {
		return fmt.Errorf("create idx_employee_competency_employee_status: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_employee_sessions_employee_expires
		ON employee_sessions(employee_id, expires_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_employee_sessions_employee_expires: %w", err)
	}
	return nil
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}
