package search

import (
	"fmt"
	"reflect"
	"testing"
)

func fixture() *Index {
	ids := []string{"PGK", "HEX1", "xPGI", "PFK", "ENO", "TPI"}
	names := []string{"phosphoglycerate kinase", "hexokinase", "glucose isomerase pgk-like", "phosphofructokinase", "enolase", "triose isomerase"}
	return NewIndex(ids, names, 0)
}

func indices(ms []Match) []int {
	out := make([]int, len(ms))
	for i, m := range ms {
		out[i] = m.Index
	}
	return out
}

// -----------------------------------------------------------------------------
// Ranking Tests
// -----------------------------------------------------------------------------

func TestMatches_Ranking(t *testing.T) {
	x := fixture()
	tests := []struct {
		query string
		want  []int
	}{
		{"", nil},
		{"p", []int{0, 3, 2, 5}},
		{"PG", []int{0, 2}},
		{"pgk", []int{0, 2}},
		{"kinase", []int{0, 1, 3}},
		{"isomerase", []int{2, 5}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := x.Matches(tt.query)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(indices(got), tt.want) {
				t.Errorf("Matches(%q) = %v, want %v", tt.query, indices(got), tt.want)
			}
		})
	}
}

func TestMatches_Scores(t *testing.T) {
	got := fixture().Matches("pgk")
	if got[0].Score != ScoreIDPrefix || got[1].Score != ScoreName {
		t.Errorf("scores = %+v", got)
	}
	if got := fixture().Matches("gi"); len(got) != 1 || got[0].Score != ScoreIDSubstr {
		t.Errorf("Matches(gi) = %+v", got)
	}
}

func TestMatches_Limit(t *testing.T) {
	ids := make([]string, 30)
	names := make([]string, 30)
	for i := range ids {
		ids[i] = fmt.Sprintf("R%d", i)
		names[i] = ids[i]
	}
	x := NewIndex(ids, names, 0)
	got := x.Matches("r")
	if len(got) != DefaultLimit {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Index != 0 || got[11].Index != 11 {
		t.Errorf("ties should keep row order: %v", indices(got))
	}
	if !reflect.DeepEqual(got, x.Matches("r")) {
		t.Error("repeated queries should return identical results")
	}
}

// -----------------------------------------------------------------------------
// Navigator Tests
// -----------------------------------------------------------------------------

func TestNavigator_Keyboard(t *testing.T) {
	n := NewNavigator()
	n.Next()
	if n.Active() != -1 {
		t.Error("Next on empty list should do nothing")
	}
	if _, ok := n.Confirm(); ok {
		t.Error("Confirm on empty list should fail")
	}

	n.Show(fixture().Matches("p"))
	if !n.Visible() || n.Active() != -1 {
		t.Fatal("Show should reveal an unhighlighted list")
	}

	n.Prev()
	if n.Active() != 3 {
		t.Errorf("Prev from none = %d, want last", n.Active())
	}
	n.Next()
	if n.Active() != 0 {
		t.Errorf("Next should wrap to 0, got %d", n.Active())
	}
	n.Next()
	m, ok := n.Confirm()
	if !ok || m.Index != 3 {
		t.Errorf("Confirm = %+v, %v", m, ok)
	}
	if n.Visible() {
		t.Error("Confirm should hide the dropdown")
	}
}

func TestNavigator_ConfirmWithoutHighlightPicksFirst(t *testing.T) {
	n := NewNavigator()
	n.Show(fixture().Matches("kinase"))
	m, ok := n.Confirm()
	if !ok || m.Index != 0 {
		t.Errorf("Confirm = %+v, %v", m, ok)
	}
}

func TestNavigator_Hide(t *testing.T) {
	n := NewNavigator()
	n.Show(fixture().Matches("p"))
	n.Next()
	n.Hide()
	if n.Visible() || n.Active() != -1 {
		t.Error("Hide should clear visibility and highlight")
	}
	if len(n.Results()) != 4 {
		t.Error("Hide keeps the rendered list")
	}
	if m, ok := n.Choose(2); !ok || m.Index != 2 {
		t.Errorf("Choose(2) = %+v, %v", m, ok)
	}
}
