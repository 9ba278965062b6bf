package edges

import (
	"math"
	"math/rand"
	"testing"

	"github.com/r3d91ll/attngraph/pkg/dataset"
)

func scenarioMatrix() dataset.Matrix {
	return dataset.Matrix{N: 3, Data: []float32{0.1, 0.9, 0.2, 0.0, 0.1, 0.8, 0.3, 0.3, 0.3}}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// -----------------------------------------------------------------------------
// Selection Tests
// -----------------------------------------------------------------------------

func TestSelect_SliderMinSelectsAll(t *testing.T) {
	sel := Select(scenarioMatrix(), 0, MaxEdges)
	if sel.Threshold != 0 {
		t.Errorf("Threshold = %v", sel.Threshold)
	}
	if len(sel.Edges) != 9 || sel.Qualifying != 9 {
		t.Fatalf("edges = %d, qualifying = %d", len(sel.Edges), sel.Qualifying)
	}
	first := sel.Edges[0]
	if first.Row != 0 || first.Col != 1 || first.Value != 0.9 {
		t.Errorf("first edge = %+v", first)
	}
	for i := 1; i < len(sel.Edges); i++ {
		if sel.Edges[i].Magnitude > sel.Edges[i-1].Magnitude {
			t.Fatalf("edges not descending at %d", i)
		}
	}
	if !approx(first.Opacity, 0.5) {
		t.Errorf("strongest opacity = %v", first.Opacity)
	}
	if last := sel.Edges[8]; !approx(last.Opacity, 0.05) || last.Value != 0 {
		t.Errorf("weakest edge = %+v", last)
	}
}

func TestSelect_SliderMaxSelectsOnlyMax(t *testing.T) {
	sel := Select(scenarioMatrix(), 1000, MaxEdges)
	if len(sel.Edges) != 1 {
		t.Fatalf("edges = %d", len(sel.Edges))
	}
	if sel.Edges[0].Value != 0.9 {
		t.Errorf("edge = %+v", sel.Edges[0])
	}
	if !sel.Degenerate || sel.Edges[0].Opacity != DegenerateOpacity {
		t.Errorf("max == threshold should use the fallback opacity, got %+v", sel)
	}
}

func TestSelect_Ties(t *testing.T) {
	sel := Select(scenarioMatrix(), 0, MaxEdges)
	// the three 0.3 cells of row 2 keep column order
	var cols []int
	for _, e := range sel.Edges {
		if e.Row == 2 {
			cols = append(cols, e.Col)
		}
	}
	if len(cols) != 3 || cols[0] != 0 || cols[1] != 1 || cols[2] != 2 {
		t.Errorf("tie order = %v", cols)
	}
}

func TestSelect_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	m := dataset.Matrix{N: 30, Data: make([]float32, 900)}
	for i := range m.Data {
		m.Data[i] = rng.Float32()*2 - 1
	}
	prevThr := math.Inf(-1)
	prevCount := math.MaxInt
	for s := 0; s <= SliderMax; s += 7 {
		sel := Select(m, s, MaxEdges)
		if sel.Threshold < prevThr {
			t.Fatalf("threshold decreased at s=%d", s)
		}
		if sel.Qualifying > prevCount {
			t.Fatalf("qualifying count increased at s=%d", s)
		}
		prevThr, prevCount = sel.Threshold, sel.Qualifying
	}
}

func TestSelect_Cap(t *testing.T) {
	m := dataset.Matrix{N: 40, Data: make([]float32, 1600)}
	for i := range m.Data {
		m.Data[i] = float32(i) / 1600
	}
	sel := Select(m, 0, 0)
	if len(sel.Edges) != MaxEdges {
		t.Fatalf("edges = %d, want %d", len(sel.Edges), MaxEdges)
	}
	if sel.Qualifying != 1600 || !sel.Truncated() {
		t.Errorf("qualifying = %d truncated = %v", sel.Qualifying, sel.Truncated())
	}
	if sel.Edges[0].Row != 39 || sel.Edges[0].Col != 39 {
		t.Errorf("strongest = %+v", sel.Edges[0])
	}
	for _, e := range sel.Edges {
		if e.Opacity < 0.05 || e.Opacity > 0.5+1e-12 {
			t.Fatalf("opacity %v out of [0.05, 0.5]", e.Opacity)
		}
	}

	if got := len(Select(m, 0, 2000).Edges); got != MaxEdges {
		t.Errorf("cap above MaxEdges allowed %d", got)
	}
	if got := len(Select(m, 0, 10).Edges); got != 10 {
		t.Errorf("smaller cap = %d", got)
	}
}

func TestSelect_ConstantMatrix(t *testing.T) {
	m := dataset.Matrix{N: 2, Data: []float32{0.4, -0.4, 0.4, 0.4}}
	sel := Select(m, 500, MaxEdges)
	if !sel.Range.Degenerate() || !sel.Degenerate {
		t.Error("expected degenerate range")
	}
	if len(sel.Edges) != 4 {
		t.Fatalf("edges = %d", len(sel.Edges))
	}
	for _, e := range sel.Edges {
		if e.Opacity != DegenerateOpacity {
			t.Errorf("opacity = %v", e.Opacity)
		}
	}
}

func TestSelect_Empty(t *testing.T) {
	sel := Select(dataset.Matrix{}, 500, MaxEdges)
	if len(sel.Edges) != 0 {
		t.Errorf("edges = %d", len(sel.Edges))
	}
}

func TestThreshold_ClampsSlider(t *testing.T) {
	r := Range{Min: 1, Max: 3}
	if Threshold(r, -5) != 1 || Threshold(r, 5000) != 3 || Threshold(r, 500) != 2 {
		t.Error("Threshold did not clamp")
	}
}

// -----------------------------------------------------------------------------
// Segment Tests
// -----------------------------------------------------------------------------

func TestSegmentStyle(t *testing.T) {
	m := scenarioMatrix()
	tests := []struct {
		name           string
		a, b           int
		width, opacity float64
		label          string
		degenerate     bool
	}{
		{"row max", 0, 1, 8.0, 0.65, "9.000e-1", false},
		{"row min", 0, 0, 0.3, 0.2, "1.000e-1", false},
		{"zero value", 1, 0, 0.3, 0.2, "0.000e+0", false},
		{"constant row", 2, 1, 4.15, 0.425, "3.000e-1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := SegmentStyle(m, tt.a, tt.b)
			if math.Abs(seg.Width-tt.width) > 1e-6 {
				t.Errorf("Width = %v, want %v", seg.Width, tt.width)
			}
			if math.Abs(seg.Opacity-tt.opacity) > 1e-6 {
				t.Errorf("Opacity = %v, want %v", seg.Opacity, tt.opacity)
			}
			if seg.Label != tt.label {
				t.Errorf("Label = %q, want %q", seg.Label, tt.label)
			}
			if seg.Degenerate != tt.degenerate {
				t.Errorf("Degenerate = %v", seg.Degenerate)
			}
		})
	}
}

func TestExponential(t *testing.T) {
	tests := []struct {
		v      float64
		digits int
		want   string
	}{
		{0.95, 2, "9.50e-1"},
		{0, 2, "0.00e+0"},
		{123.456, 3, "1.235e+2"},
		{-0.00012, 3, "-1.200e-4"},
		{1e-12, 2, "1.00e-12"},
	}
	for _, tt := range tests {
		if got := Exponential(tt.v, tt.digits); got != tt.want {
			t.Errorf("Exponential(%v, %d) = %q, want %q", tt.v, tt.digits, got, tt.want)
		}
	}
}
