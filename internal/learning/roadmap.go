package learning

import (
	"fmt"
	"strings"

	types "github.com/yungbote/competency-advisor/internal/domain"
)

const arrow = " → "

// Step is one level of a personalized roadmap.
type Step struct {
	CompetencyID int64                `json:"competency_id,omitempty"`
	Level        string               `json:"level"`
	Status       types.ProgressStatus `json:"status,omitempty"`
	CanStart     bool                 `json:"can_start"`
}

// Roadmap is the derived path to a target level. It is rebuilt from the
// catalog on every request.
type Roadmap struct {
	Competency  string            `json:"competency"`
	Target      string            `json:"target_level"`
	Ladder      []string          `json:"ladder"`
	Path        []string          `json:"path"`
	TargetFound bool              `json:"target_found"`
	Steps       []Step            `json:"steps,omitempty"`
	Next        *types.Competency `json:"next,omitempty"`

	// Rows holds the catalog row of each path level that has one.
	Rows []*types.Competency `json:"-"`
}

// BuildRoadmap truncates ladder after target. When target is not on the
// ladder the whole ladder is the path and TargetFound is false.
func BuildRoadmap(name string, ladder []string, target string) Roadmap {
	target = NormalizeLevel(target)
	ladder = SortLadder(ladder)
	rm := Roadmap{
		Competency: strings.TrimSpace(name),
		Target:     target,
		Ladder:     ladder,
		Path:       ladder,
	}
	for i, lvl := range ladder {
		if lvl == target {
			rm.Path = ladder[:i+1]
			rm.TargetFound = true
			break
		}
	}
	return rm
}

// AttachRows records the lowest-id catalog row of every path level.
func (r *Roadmap) AttachRows(rows []*types.Competency) {
	r.Rows = make([]*types.Competency, 0, len(r.Path))
	for _, lvl := range r.Path {
		if row := RowForLevel(rows, lvl); row != nil {
			r.Rows = append(r.Rows, row)
		}
	}
}

// Personalize attaches per-level status from snap and sets Next to the
// first path row that is not completed and whose prerequisite is.
func (r *Roadmap) Personalize(rows []*types.Competency, snap Snapshot) {
	r.Steps = make([]Step, 0, len(r.Path))
	r.Next = nil
	for _, lvl := range r.Path {
		step := Step{Level: lvl}
		row := RowForLevel(rows, lvl)
		if row != nil {
			step.CompetencyID = row.ID
			step.CanStart = CanStart(row, snap)
			if st, ok := snap.Status(row.ID); ok {
				step.Status = st
			}
			if r.Next == nil && !snap.Completed(row.ID) && step.CanStart {
				r.Next = row
			}
		}
		r.Steps = append(r.Steps, step)
	}
}

func (r Roadmap) Empty() bool { return len(r.Ladder) == 0 }

// Render produces the human-readable answer.
func (r Roadmap) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Learning roadmap for %s:\n\n", r.Competency)
	b.WriteString(strings.Join(r.Path, arrow))
	b.WriteString("\n\n")
	if r.TargetFound {
		fmt.Fprintf(&b, "To reach Level %s, you must complete:\n", r.Target)
	} else if r.Target != "" {
		fmt.Fprintf(&b, "Level %s is not defined for %s. The full ladder requires:\n", r.Target, r.Competency)
	} else {
		b.WriteString("The full ladder requires:\n")
	}
	for i, lvl := range r.Path {
		fmt.Fprintf(&b, "%d. %s (Level: %s)", i+1, r.Competency, lvl)
		if i < len(r.Steps) && r.Steps[i].Status != "" {
			fmt.Fprintf(&b, " [%s]", r.Steps[i].Status)
		}
		b.WriteString("\n")
	}
	if r.Next != nil {
		fmt.Fprintf(&b, "\nNext recommended: %s (Level: %s)\n", r.Next.Name, r.Next.ProficiencyLevel)
	}
	return strings.TrimRight(b.String(), "\n")
}
