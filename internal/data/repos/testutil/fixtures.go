package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/competency-advisor/internal/domain"
)

// SeedLadder inserts one row per level for name, in the given order, each
// level requiring the previous one. The first row's prerequisite is prereq.
func SeedLadder(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, prereq *int64, levels ...string) []*types.Competency {
	tb.Helper()
	out := make([]*types.Competency, 0, len(levels))
	prev := prereq
	for _, lvl := range levels {
		c := &types.Competency{
			Name:             name,
			ProficiencyLevel: lvl,
			PrerequisiteID:   prev,
			Category:         "Engineering",
			FocusArea:        name + " fundamentals",
			Description:      name + " at level " + lvl,
		}
		if err := tx.WithContext(ctx).Create(c).Error; err != nil {
			tb.Fatalf("seed competency %s %s: %v", name, lvl, err)
		}
		id := c.ID
		prev = &id
		out = append(out, c)
	}
	return out
}

func SeedEmployee(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Employee {
	tb.Helper()
	e := &types.Employee{Email: email, Password: "pw", FirstName: "A", LastName: "B"}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed employee: %v", err)
	}
	return e
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, employeeID, competencyID int64, status types.ProgressStatus) {
	tb.Helper()
	row := &types.EmployeeCompetency{EmployeeID: employeeID, CompetencyID: competencyID, Status: status}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
}
