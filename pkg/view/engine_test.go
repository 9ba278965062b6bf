package view

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/r3d91ll/attngraph/pkg/chain"
	"github.com/r3d91ll/attngraph/pkg/dataset"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

type recorder struct {
	lines []string
}

func (r *recorder) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *recorder) contains(s string) bool {
	for _, l := range r.lines {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

// scenarioEngine renders the three-entity, single-layer example.
func scenarioEngine(t *testing.T) (*Engine, *recorder) {
	t.Helper()
	layer := dataset.NewTensor4(1, 1, 3)
	copy(layer.Data, []float32{0.1, 0.9, 0.2, 0.0, 0.1, 0.8, 0.3, 0.3, 0.3})
	bounds := dataset.NewBounds(1, 3)
	copy(bounds.Data, []float32{0.5, -1, 0.25})
	ds, err := dataset.New(dataset.Spec{
		IDs:    []string{"A", "B", "C"},
		Names:  map[string]string{"A": "alpha", "B": "beta", "C": "gamma"},
		Bounds: bounds,
		Layers: []dataset.Tensor4{layer},
	})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	rec := &recorder{}
	e, err := New(ds, Options{ID: "av-test", Logger: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, rec
}

// gridEngine renders N=3, B=2, H=2, L=2 where M[l][b][h][r][c] is
// (l+1)(b+1)(h+1)(3r+c+1)/100.
func gridEngine(t *testing.T) *Engine {
	t.Helper()
	const n, b, h, l = 3, 2, 2, 2
	layers := make([]dataset.Tensor4, l)
	for li := range layers {
		tt := dataset.NewTensor4(b, h, n)
		for bi := 0; bi < b; bi++ {
			for hi := 0; hi < h; hi++ {
				k := (li + 1) * (bi + 1) * (hi + 1)
				for r := 0; r < n; r++ {
					for c := 0; c < n; c++ {
						tt.Set(bi, hi, r, c, float32(k*(3*r+c+1))/100)
					}
				}
			}
		}
		layers[li] = tt
	}
	bounds := dataset.NewBounds(b, n)
	copy(bounds.Data, []float32{1, 2, 3, -6, 3, 0})
	ds, err := dataset.New(dataset.Spec{IDs: []string{"X", "Y", "Z"}, Bounds: bounds, Layers: layers})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	e, err := New(ds, Options{ID: "grid", Logger: &recorder{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Render()
	return e
}

func findOp(p Patch, kind OpKind, key string) (Op, bool) {
	for _, op := range p.Ops {
		if op.Op == kind && op.Key == key {
			return op, true
		}
	}
	return Op{}, false
}

func element(t *testing.T, e *Engine, group, key string) Element {
	t.Helper()
	el, ok := e.Scene().Find(group, key)
	if !ok {
		t.Fatalf("element %s/%s not in scene", group, key)
	}
	return el
}

// -----------------------------------------------------------------------------
// Construction Tests
// -----------------------------------------------------------------------------

func TestNew_InitialState(t *testing.T) {
	e, _ := scenarioEngine(t)
	s := e.State()
	if s.Batch != 0 || s.Heads[0] != 0 || s.Thresholds[0] != 950 {
		t.Errorf("state = %+v", s)
	}
	if s.Pinned != -1 || s.Hover != -1 || len(s.Chain) != 0 {
		t.Errorf("state = %+v", s)
	}
	if s.Threshold(0) != 0.95 {
		t.Errorf("normalized threshold = %v", s.Threshold(0))
	}
}

func TestNew_NilDataset(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_InstanceIDs(t *testing.T) {
	e, _ := scenarioEngine(t)
	calls := 0
	gen := func() string { calls++; return fmt.Sprintf("view-%d", calls) }
	a, _ := New(e.Dataset(), Options{IDGenerator: gen})
	b, _ := New(e.Dataset(), Options{IDGenerator: gen})
	if a.ID() != "view-1" || b.ID() != "view-2" {
		t.Errorf("ids = %q, %q", a.ID(), b.ID())
	}
	c, _ := New(e.Dataset(), Options{})
	if !strings.HasPrefix(c.ID(), "av") || len(c.ID()) != 14 {
		t.Errorf("default id = %q", c.ID())
	}
}

func TestRender_DrawsWholeScene(t *testing.T) {
	e, _ := scenarioEngine(t)
	p := e.Render()
	if p.Count(OpAdd) != len(p.Ops) {
		t.Fatalf("initial render should only add, got %d/%d", p.Count(OpAdd), len(p.Ops))
	}
	// 1 edge, 3 bg, 3 bars, 6 names, 3 guides, 6 nodes, 9 controls, 1 dropdown
	if len(p.Ops) != 32 {
		t.Errorf("ops = %d", len(p.Ops))
	}
	if n := e.Scene().Count(); n != len(p.Ops) {
		t.Errorf("scene count %d != ops %d", n, len(p.Ops))
	}
	if again := e.Dispatch(BatchChanged(0)); !again.Empty() {
		t.Errorf("no-op event produced %d ops", len(again.Ops))
	}
}

// -----------------------------------------------------------------------------
// Threshold Tests
// -----------------------------------------------------------------------------

func TestDispatch_Threshold(t *testing.T) {
	e, rec := scenarioEngine(t)
	e.Render()

	p := e.Dispatch(ThresholdChanged(0, 0))
	if got := len(e.Scene().Group(ThresholdGroup(0))); got != 9 {
		t.Fatalf("edges at slider 0 = %d", got)
	}
	if p.Count(OpAdd) != 8 {
		t.Errorf("adds = %d", p.Count(OpAdd))
	}
	tval := element(t, e, GroupControls, "ctl-tval-0")
	if tval.Text != "0.00e+0" {
		t.Errorf("threshold label = %q", tval.Text)
	}

	p = e.Dispatch(ThresholdChanged(0, 1000))
	edgesLeft := e.Scene().Group(ThresholdGroup(0))
	if len(edgesLeft) != 1 || edgesLeft[0].Key != "tl-0-0-1" {
		t.Fatalf("edges at slider 1000 = %v", edgesLeft)
	}
	if edgesLeft[0].Attrs["stroke-opacity"] != "0.08" {
		t.Errorf("opacity = %s", edgesLeft[0].Attrs["stroke-opacity"])
	}
	if p.Count(OpRemove) != 8 {
		t.Errorf("removes = %d", p.Count(OpRemove))
	}
	if !rec.contains("degenerate range on layer 0") {
		t.Errorf("expected degenerate diagnostic, got %v", rec.lines)
	}

	if p := e.Dispatch(ThresholdChanged(0, 5000)); !p.Empty() {
		t.Error("slider above max should clamp to the same value")
	}
	if p := e.Dispatch(ThresholdChanged(3, 10)); !p.Empty() {
		t.Error("unknown layer should be ignored")
	}
}

// -----------------------------------------------------------------------------
// Chain Tests
// -----------------------------------------------------------------------------

func TestDispatch_ChainSegments(t *testing.T) {
	e := gridEngine(t)
	e.Dispatch(NodeClicked(0, 0))
	e.Dispatch(NodeClicked(1, 2))
	p := e.Dispatch(NodeClicked(2, 1))

	if _, ok := findOp(p, OpAdd, "hl-2"); !ok {
		t.Error("extend should add a highlight")
	}
	if _, ok := findOp(p, OpAdd, "seg-1"); !ok {
		t.Error("extend should add one segment")
	}
	if _, ok := findOp(p, OpUpdate, "seg-0"); ok {
		t.Error("extend must not touch earlier segments")
	}

	if got := element(t, e, GroupLabels, "lbl-0").Text; got != "3.000e-2" {
		t.Errorf("lbl-0 = %q", got)
	}
	if got := element(t, e, GroupLabels, "lbl-1").Text; got != "1.600e-1" {
		t.Errorf("lbl-1 = %q", got)
	}

	// head change on layer 1 only re-derives the segment read from layer 1
	p = e.Dispatch(HeadChanged(1, 1))
	if _, ok := findOp(p, OpUpdate, "lbl-1"); !ok {
		t.Error("head change should update lbl-1")
	}
	if _, ok := findOp(p, OpUpdate, "lbl-0"); ok {
		t.Error("head change on layer 1 must not touch lbl-0")
	}
	if got := element(t, e, GroupLabels, "lbl-1").Text; got != "3.200e-1" {
		t.Errorf("lbl-1 after head change = %q", got)
	}

	// batch change re-derives every segment
	p = e.Dispatch(BatchChanged(1))
	for _, key := range []string{"lbl-0", "lbl-1", "bar-0"} {
		if _, ok := findOp(p, OpUpdate, key); !ok {
			t.Errorf("batch change should update %s", key)
		}
	}
	if got := element(t, e, GroupLabels, "lbl-0").Text; got != "6.000e-2" {
		t.Errorf("lbl-0 after batch change = %q", got)
	}

	// collapse on the middle element removes it and both of its segments
	p = e.Dispatch(NodeClicked(1, 2))
	if p.Count(OpRemove) != 6 {
		t.Errorf("collapse removes = %d, ops = %+v", p.Count(OpRemove), p.Ops)
	}
	if got := e.State().Chain; len(got) != 1 || got[0] != (chain.Node{Column: 0, Row: 0}) {
		t.Errorf("chain = %v", got)
	}
}

func TestDispatch_ChainReplace(t *testing.T) {
	e := gridEngine(t)
	e.Dispatch(NodeClicked(0, 0))
	e.Dispatch(NodeClicked(1, 2))
	e.Dispatch(NodeClicked(2, 1))

	p := e.Dispatch(NodeClicked(1, 0))
	for _, key := range []string{"hl-1", "seg-0", "seg-1", "lbl-0", "lbl-1"} {
		if _, ok := findOp(p, OpUpdate, key); !ok {
			t.Errorf("replace should update %s", key)
		}
	}
	if _, ok := findOp(p, OpUpdate, "hl-0"); ok {
		t.Error("replace must leave other highlights alone")
	}
}

func TestDispatch_ChainSegmentGeometry(t *testing.T) {
	e := gridEngine(t)
	e.Dispatch(NodeClicked(0, 0))
	e.Dispatch(NodeClicked(1, 2))

	seg := element(t, e, GroupConn, "seg-0")
	g := e.Geometry()
	if seg.Attrs["x1"] != num(g.ColX[0]+g.NodeWidth) || seg.Attrs["x2"] != num(g.ColX[1]) {
		t.Errorf("segment x = %s..%s", seg.Attrs["x1"], seg.Attrs["x2"])
	}
	// row 0 of layer 0 is {1,2,3}/100: the value 3 sits at the row max
	if seg.Attrs["stroke-width"] != "8" || seg.Attrs["stroke-opacity"] != "0.65" {
		t.Errorf("segment style = %v", seg.Attrs)
	}
	lbl := element(t, e, GroupLabels, "lbl-0")
	if lbl.Attrs["y"] != num((g.CenterY(0)+g.CenterY(2))/2-4) {
		t.Errorf("label y = %s", lbl.Attrs["y"])
	}
}

// -----------------------------------------------------------------------------
// Pin, Hover and Search Tests
// -----------------------------------------------------------------------------

func TestDispatch_NameBarPin(t *testing.T) {
	e, _ := scenarioEngine(t)
	e.Render()

	p := e.Dispatch(NameBarClicked(1))
	if _, ok := findOp(p, OpAdd, "pin"); !ok {
		t.Fatal("pin band should be added")
	}
	if e.State().Query != "B" {
		t.Errorf("search text = %q", e.State().Query)
	}
	if got := element(t, e, GroupControls, "ctl-search-clear").Attrs["display"]; got != "inline" {
		t.Errorf("clear button = %q", got)
	}

	p = e.Dispatch(NameBarClicked(2))
	if op, ok := findOp(p, OpUpdate, "pin"); !ok || op.El.Attrs["y"] != "68" {
		t.Errorf("pin should move to row 2: %+v", p.Ops)
	}

	e.Dispatch(NameBarClicked(2))
	if s := e.State(); s.Pinned != -1 || s.Query != "" {
		t.Errorf("reclick should unpin, state = %+v", s)
	}
	if len(e.Scene().Group(GroupPinBand)) != 0 {
		t.Error("pin band should be gone")
	}
}

func TestDispatch_HoverIndependentOfPin(t *testing.T) {
	e, _ := scenarioEngine(t)
	e.Render()
	e.Dispatch(NameBarClicked(0))

	e.Dispatch(RowHovered(TargetNameBar, 0, 2))
	tip, ok := e.Tooltip()
	if !ok || tip.Line1 != "gamma" || tip.Line2 != "Bound: 2.500e-1" {
		t.Errorf("tooltip = %+v, %v", tip, ok)
	}
	if tip.X != 5+200+8 || tip.Y != 68+4 {
		t.Errorf("tooltip at %v,%v", tip.X, tip.Y)
	}
	if len(e.Scene().Group(GroupRowBand)) != 1 || len(e.Scene().Group(GroupPinBand)) != 1 {
		t.Error("hover and pin bands should coexist")
	}

	e.Dispatch(RowHovered(TargetNode, 1, 1))
	tip, _ = e.Tooltip()
	if tip.Line2 != "" || tip.X != 405+22+8 || tip.Y != 59+4+4 {
		t.Errorf("node tooltip = %+v", tip)
	}

	e.Dispatch(PointerLeft())
	if _, ok := e.Tooltip(); ok {
		t.Error("tooltip should hide on leave")
	}
	if len(e.Scene().Group(GroupRowBand)) != 0 {
		t.Error("hover band should hide on leave")
	}
	if e.State().Pinned != 0 {
		t.Error("leaving must not clear the pin")
	}
}

func TestDispatch_Search(t *testing.T) {
	e, _ := scenarioEngine(t)
	e.Render()

	e.Dispatch(SearchQueryChanged("a"))
	dd := e.Scene().Group(GroupDropdown)
	// "A" id prefix, then beta and gamma by name
	if len(dd) != 4 || dd[1].Text != "A" || dd[2].Text != "B" || dd[3].Text != "C" {
		t.Fatalf("dropdown = %+v", dd)
	}

	e.Dispatch(SearchKey(KeyNext))
	e.Dispatch(SearchKey(KeyNext))
	if got := element(t, e, GroupDropdown, "dd-1").Attrs["active"]; got != "true" {
		t.Errorf("dd-1 active = %s", got)
	}

	e.Dispatch(SearchKey(KeyEscape))
	if element(t, e, GroupDropdown, "dd").Attrs["display"] != "none" {
		t.Error("escape should hide the dropdown")
	}
	if e.State().Pinned != -1 {
		t.Error("escape must not pin")
	}

	e.Dispatch(SearchFocused())
	e.Dispatch(SearchKey(KeyEnter))
	if s := e.State(); s.Pinned != 0 || s.Query != "A" {
		t.Errorf("enter without highlight should pick the first result, state = %+v", s)
	}

	e.Dispatch(SearchQueryChanged("   "))
	if e.State().Pinned != -1 {
		t.Error("blank query should unpin")
	}

	e.Dispatch(SearchQueryChanged("gam"))
	e.Dispatch(SearchResultChosen(0))
	if e.State().Pinned != 2 {
		t.Errorf("chosen result should pin row 2, got %d", e.State().Pinned)
	}

	e.Dispatch(SearchCleared())
	if s := e.State(); s.Pinned != -1 || s.Query != "" {
		t.Errorf("clear should unpin and empty the box, state = %+v", s)
	}
}

func TestDispatch_SearchScrollsToCentre(t *testing.T) {
	ds := dataset.Random(dataset.Dims{N: 200, B: 1, H: 1, L: 1}, rand.New(rand.NewSource(1)), 0, 1)
	e, _ := New(ds, Options{ID: "big", Logger: &recorder{}})
	e.Render()

	e.Dispatch(SearchQueryChanged("R150"))
	e.Dispatch(SearchKey(KeyEnter))
	scroll := element(t, e, GroupControls, "ctl-scroll")
	if scroll.Attrs["top"] != "1104" || scroll.Attrs["seq"] != "1" {
		t.Errorf("scroll = %v", scroll.Attrs)
	}

	e.Dispatch(ViewportResized(200))
	e.Dispatch(SearchFocused())
	e.Dispatch(SearchKey(KeyEnter))
	if got := element(t, e, GroupControls, "ctl-scroll").Attrs["top"]; got != "1304" {
		t.Errorf("scroll after resize = %s", got)
	}
}

// -----------------------------------------------------------------------------
// Defensive Handling Tests
// -----------------------------------------------------------------------------

func TestDispatch_OutOfRangeIgnored(t *testing.T) {
	e := gridEngine(t)
	events := []Event{
		HeadChanged(-1, 0),
		HeadChanged(2, 1),
		NodeClicked(3, 0),
		NodeClicked(0, 3),
		NameBarClicked(-2),
		RowHovered(TargetNode, 9, 0),
		RowHovered("elsewhere", 0, 0),
		SearchResultChosen(4),
		SearchKey("Tab"),
		PointerLeft(),
	}
	for _, ev := range events {
		if p := e.Dispatch(ev); !p.Empty() {
			t.Errorf("%+v produced %d ops", ev, len(p.Ops))
		}
	}

	e.Dispatch(BatchChanged(99))
	if e.State().Batch != 1 {
		t.Errorf("batch should clamp to 1, got %d", e.State().Batch)
	}
	e.Dispatch(HeadChanged(0, -4))
	e.Dispatch(HeadChanged(1, 40))
	if h := e.State().Heads; h[0] != 0 || h[1] != 1 {
		t.Errorf("heads = %v", h)
	}
}

func TestDispatch_UnknownKindLogged(t *testing.T) {
	e, rec := scenarioEngine(t)
	if p := e.Dispatch(Event{Kind: "teleport"}); !p.Empty() {
		t.Error("unknown event should be ignored")
	}
	if !rec.contains(`unknown event kind "teleport"`) {
		t.Errorf("log = %v", rec.lines)
	}
}

func TestRestore_Clamps(t *testing.T) {
	e := gridEngine(t)
	e.Restore(State{
		Batch:      7,
		Heads:      []int{5, -1, 3},
		Thresholds: []int{-20},
		Chain:      []chain.Node{{Column: 1, Row: 0}, {Column: 2, Row: 2}, {Column: 0, Row: 9}},
		Pinned:     12,
	})
	s := e.State()
	if s.Batch != 1 || s.Heads[0] != 1 || s.Heads[1] != 0 {
		t.Errorf("state = %+v", s)
	}
	if s.Thresholds[0] != 0 || s.Thresholds[1] != 950 {
		t.Errorf("thresholds = %v", s.Thresholds)
	}
	if len(s.Chain) != 2 || s.Chain[1] != (chain.Node{Column: 2, Row: 2}) {
		t.Errorf("chain = %v", s.Chain)
	}
	if s.Pinned != -1 {
		t.Errorf("pinned = %d", s.Pinned)
	}
	if len(e.Scene().Group(GroupConn)) != 1 {
		t.Error("restored chain should draw its segment")
	}
}
