package domain

import (
	"github.com/yungbote/competency-advisor/internal/domain/advisor"
	"github.com/yungbote/competency-advisor/internal/domain/competency"
	"github.com/yungbote/competency-advisor/internal/domain/employee"
)

const (
	StatusInProgress = competency.StatusInProgress
	StatusCompleted  = competency.StatusCompleted

	StrategyRoadmap          = advisor.StrategyRoadmap
	StrategyRetrievalRoadmap = advisor.StrategyRetrievalRoadmap
	StrategyNoMatch          = advisor.StrategyNoMatch
	StrategyGenerated        = advisor.StrategyGenerated
	StrategyRetrieval        = advisor.StrategyRetrieval
)

type Competency = competency.Competency
type EmployeeCompetency = competency.EmployeeCompetency
type ProgressStatus = competency.ProgressStatus

type Employee = employee.Employee
type EmployeeSession = employee.EmployeeSession

type AdvisorQuery = advisor.Query
type AdvisorStrategy = advisor.Strategy
