package competency

import (
	"github.com/pgvector/pgvector-go"
)

// Competency is one rung of a competency ladder: the catalog holds one row
// per (name, proficiency level).
type Competency struct {
	ID               int64            `gorm:"column:competency_id;primaryKey;autoIncrement" json:"competency_id"`
	Name             string           `gorm:"column:competency_name;not null;index" json:"competency_name"`
	ProficiencyLevel string           `gorm:"column:proficiency_level_name;not null" json:"proficiency_level_name"`
	PrerequisiteID   *int64           `gorm:"column:pre_requisite_id;index" json:"pre_requisite_id,omitempty"`
	Category         string           `gorm:"column:category" json:"category"`
	FocusArea        string           `gorm:"column:focus_area" json:"focus_area"`
	SubFocusArea     string           `gorm:"column:sub_focus_area" json:"sub_focus_area"`
	Microskills      string           `gorm:"column:microskills;type:text" json:"microskills"`
	Description      string           `gorm:"column:description;type:text" json:"description"`
	Embedding        *pgvector.Vector `gorm:"column:embedding;type:vector" json:"-"`
}

func (Competency) TableName() string { return "competency_catalog" }

func (c *Competency) HasPrerequisite() bool {
	return c != nil && c.PrerequisiteID != nil && *c.PrerequisiteID > 0
}
