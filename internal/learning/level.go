package learning

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	types "github.com/yungbote/competency-advisor/internal/domain"
)

var nonDigits = regexp.MustCompile(`\D`)

// LevelNumber is the integer encoded in a level label. Every non-digit is
// dropped and an empty remainder counts as 0, so "E3", "e3" and "Level 3"
// all compare equal.
func LevelNumber(label string) int {
	digits := nonDigits.ReplaceAllString(label, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// overflowing labels sort last
		return math.MaxInt
	}
	return n
}

// NormalizeLevel trims and upper-cases a level label.
func NormalizeLevel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// SortLadder deduplicates labels and orders them ascending by LevelNumber.
// Labels with the same number fall back to string order so the result is
// total. Blank labels are dropped.
func SortLadder(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = NormalizeLevel(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := LevelNumber(out[i]), LevelNumber(out[j])
		if ni != nj {
			return ni < nj
		}
		return out[i] < out[j]
	})
	return out
}

// LadderOf resolves the ladder of the given catalog rows.
func LadderOf(rows []*types.Competency) []string {
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		labels = append(labels, r.ProficiencyLevel)
	}
	return SortLadder(labels)
}

// SortRows orders rows by level number, then id.
func SortRows(rows []*types.Competency) {
	sort.SliceStable(rows, func(i, j int) bool {
		ni, nj := LevelNumber(rows[i].ProficiencyLevel), LevelNumber(rows[j].ProficiencyLevel)
		if ni != nj {
			return ni < nj
		}
		return rows[i].ID < rows[j].ID
	})
}

// RowForLevel returns the lowest-id row at level, or nil.
func RowForLevel(rows []*types.Competency, level string) *types.Competency {
	level = NormalizeLevel(level)
	var best *types.Competency
	for _, r := range rows {
		if r == nil || NormalizeLevel(r.ProficiencyLevel) != level {
			continue
		}
		if best == nil || r.ID < best.ID {
			best = r
		}
	}
	return best
}
