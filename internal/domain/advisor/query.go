package advisor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Strategy string

const (
	StrategyRoadmap          Strategy = "roadmap"
	StrategyRetrievalRoadmap Strategy = "retrieval_roadmap"
	StrategyNoMatch          Strategy = "no_match"
	StrategyGenerated        Strategy = "generated"
	StrategyRetrieval        Strategy = "retrieval"
)

// Query is the audit record of one answered question.
type Query struct {
	ID         uuid.UUID      `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	EmployeeID int64          `gorm:"column:employee_id;index" json:"employee_id"`
	Question   string         `gorm:"column:question;type:text;not null" json:"question"`
	Answer     string         `gorm:"column:answer;type:text" json:"answer"`
	Strategy   Strategy       `gorm:"column:strategy;type:varchar(32);index" json:"strategy"`
	Sources    datatypes.JSON `gorm:"column:sources" json:"sources"`
	Accuracy   *float64       `gorm:"column:accuracy" json:"accuracy,omitempty"`
	LatencyMS  int64          `gorm:"column:latency_ms" json:"latency_ms"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (Query) TableName() string { return "advisor_query" }
