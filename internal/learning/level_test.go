package learning

import (
	"math/rand"
	"reflect"
	"testing"

	types "github.com/yungbote/competency-advisor/internal/domain"
)

func TestLevelNumber(t *testing.T) {
	cases := map[string]int{
		"E0":      0,
		"E12":     12,
		"e3":      3,
		"Level 7": 7,
		"":        0,
		"E":       0,
	}
	for in, want := range cases {
		if got := LevelNumber(in); got != want {
			t.Fatalf("LevelNumber(%q)=%d want %d", in, got, want)
		}
	}
}

func TestSortLadderOrdersNumericallyWithoutDuplicates(t *testing.T) {
	want := []string{"E0", "E1", "E2", "E10"}
	in := []string{"E10", "E2", "e1", "E0", "E2", " E1 ", ""}
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), in...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := SortLadder(shuffled)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("SortLadder(%v)=%v want %v", shuffled, got, want)
		}
		for j := 1; j < len(got); j++ {
			if LevelNumber(got[j-1]) >= LevelNumber(got[j]) {
				t.Fatalf("not strictly ascending: %v", got)
			}
		}
	}
}

func TestLadderOfAndRowForLevel(t *testing.T) {
	rows := []*types.Competency{
		{ID: 9, Name: "Go", ProficiencyLevel: "E2"},
		{ID: 3, Name: "Go", ProficiencyLevel: "E0"},
		{ID: 4, Name: "Go", ProficiencyLevel: "E2"},
		nil,
	}
	if got := LadderOf(rows); !reflect.DeepEqual(got, []string{"E0", "E2"}) {
		t.Fatalf("LadderOf=%v", got)
	}
	if row := RowForLevel(rows, "e2"); row == nil || row.ID != 4 {
		t.Fatalf("RowForLevel(E2)=%v want id 4", row)
	}
	if row := RowForLevel(rows, "E5"); row != nil {
		t.Fatalf("RowForLevel(E5)=%v want nil", row)
	}

	sorted := []*types.Competency{rows[0], rows[1], rows[2]}
	SortRows(sorted)
	ids := []int64{sorted[0].ID, sorted[1].ID, sorted[2].ID}
	if !reflect.DeepEqual(ids, []int64{3, 4, 9}) {
		t.Fatalf("SortRows ids=%v", ids)
	}
}
