package learning

import (
	types "github.com/yungbote/competency-advisor/internal/domain"
)

// Snapshot is an employee's progress keyed by competency id. A missing key
// means not started.
type Snapshot map[int64]types.ProgressStatus

func (s Snapshot) Status(competencyID int64) (types.ProgressStatus, bool) {
	st, ok := s[competencyID]
	return st, ok
}

func (s Snapshot) Completed(competencyID int64) bool {
	st, ok := s[competencyID]
	return ok && st.Is(types.StatusCompleted)
}

// CanStart reports whether c may be started: it has no prerequisite, or the
// prerequisite is COMPLETED in snap.
func CanStart(c *types.Competency, snap Snapshot) bool {
	if c == nil {
		return false
	}
	if !c.HasPrerequisite() {
		return true
	}
	return snap.Completed(*c.PrerequisiteID)
}

// Eligible filters candidates down to rows that are not completed and pass
// the gate, preserving order. limit <= 0 means no limit.
func Eligible(candidates []*types.Competency, snap Snapshot, limit int) []*types.Competency {
	out := make([]*types.Competency, 0)
	for _, c := range candidates {
		if c == nil || snap.Completed(c.ID) || !CanStart(c, snap) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// NextEligible is the first Eligible candidate, or nil.
func NextEligible(candidates []*types.Competency, snap Snapshot) *types.Competency {
	if e := Eligible(candidates, snap, 1); len(e) > 0 {
		return e[0]
	}
	return nil
}
