package competency

import (
	"strings"
	"time"
)

type ProgressStatus string

const (
	StatusInProgress ProgressStatus = "IN_PROGRESS"
	StatusCompleted  ProgressStatus = "COMPLETED"
)

// Is compares case-insensitively; older rows were written in lower case.
func (s ProgressStatus) Is(other ProgressStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

// EmployeeCompetency is an employee's progress on one competency. A missing
// row means not started.
type EmployeeCompetency struct {
	EmployeeID   int64          `gorm:"column:employee_id;primaryKey;autoIncrement:false" json:"employee_id"`
	CompetencyID int64          `gorm:"column:competency_id;primaryKey;autoIncrement:false;index" json:"competency_id"`
	Status       ProgressStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Progress     *int           `gorm:"column:progress" json:"progress,omitempty"`
	StartedOn    *time.Time     `gorm:"column:started_on" json:"started_on,omitempty"`
	CompletedOn  *time.Time     `gorm:"column:completed_on" json:"completed_on,omitempty"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Competency *Competency `gorm:"foreignKey:CompetencyID;references:ID;constraint:OnDelete:CASCADE" json:"competency,omitempty"`
}

func (EmployeeCompetency) TableName() string { return "employee_competency" }
