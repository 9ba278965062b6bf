// Package edges selects and styles the attention edges drawn between two
// node columns.
//
// For a matrix M the selector works on |M|: a normalized slider value
// s in [0, 1000] maps to threshold = min + s/1000*(max-min), every cell at or
// above the threshold qualifies, and the MaxEdges strongest are kept.
package edges

import (
	"math"
	"sort"

	"github.com/r3d91ll/attngraph/pkg/dataset"
)

const (
	// MaxEdges caps the number of edges drawn per matrix.
	MaxEdges = 600

	// SliderMax is the top of the normalized threshold slider.
	SliderMax = 1000

	// DefaultSlider is the initial threshold slider position.
	DefaultSlider = 950

	// DegenerateOpacity is used for every edge when max == threshold.
	DegenerateOpacity = 0.08

	minOpacity  = 0.05
	opacitySpan = 0.45
	edgeStroke  = 0.8
)

// Range is the span of absolute values in a matrix or row.
type Range struct {
	Min float64
	Max float64
}

// Degenerate reports whether the range is a single value.
func (r Range) Degenerate() bool {
	return !(r.Max > r.Min)
}

func absRange(vals []float32) Range {
	if len(vals) == 0 {
		return Range{}
	}
	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range vals {
		a := math.Abs(float64(v))
		if a < r.Min {
			r.Min = a
		}
		if a > r.Max {
			r.Max = a
		}
	}
	return r
}

// MatrixRange is the min and max of |M| over all cells.
func MatrixRange(m dataset.Matrix) Range {
	return absRange(m.Data)
}

// RowRange is the min and max of |M[row][*]|.
func RowRange(m dataset.Matrix, row int) Range {
	return absRange(m.Row(row))
}

// ClampSlider bounds s to [0, SliderMax].
func ClampSlider(s int) int {
	switch {
	case s < 0:
		return 0
	case s > SliderMax:
		return SliderMax
	}
	return s
}

// Threshold maps a slider value onto r. The top of the slider lands exactly
// on r.Max.
func Threshold(r Range, s int) float64 {
	s = ClampSlider(s)
	if s == SliderMax {
		return r.Max
	}
	return r.Min + float64(s)/SliderMax*(r.Max-r.Min)
}

// Edge is one drawn attention edge from row entity Row to column entity Col.
type Edge struct {
	Row       int
	Col       int
	Value     float32
	Magnitude float64
	Opacity   float64
}

// StrokeWidth is the fixed width of threshold edges.
func (Edge) StrokeWidth() float64 { return edgeStroke }

// Selection is the result of thresholding one matrix.
type Selection struct {
	Threshold float64
	Range     Range

	// Qualifying counts cells at or above the threshold before the cap.
	Qualifying int
	Edges      []Edge

	// Degenerate is set when max == threshold and every edge uses
	// DegenerateOpacity.
	Degenerate bool
}

// Truncated reports whether the cap dropped qualifying edges.
func (s *Selection) Truncated() bool {
	return s.Qualifying > len(s.Edges)
}

// Select thresholds m at slider value s and keeps at most maxEdges edges in
// descending magnitude. Ties keep row-major order. maxEdges <= 0 means
// MaxEdges.
func Select(m dataset.Matrix, s int, maxEdges int) Selection {
	if maxEdges <= 0 || maxEdges > MaxEdges {
		maxEdges = MaxEdges
	}
	r := MatrixRange(m)
	thr := Threshold(r, s)
	sel := Selection{Threshold: thr, Range: r}

	var qualifying []Edge
	for i, v := range m.Data {
		a := math.Abs(float64(v))
		if a >= thr {
			qualifying = append(qualifying, Edge{Row: i / m.N, Col: i % m.N, Value: v, Magnitude: a})
		}
	}
	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].Magnitude > qualifying[j].Magnitude
	})

	sel.Qualifying = len(qualifying)
	if len(qualifying) > maxEdges {
		qualifying = qualifying[:maxEdges]
	}

	span := r.Max - thr
	sel.Degenerate = !(span > 0)
	for i := range qualifying {
		if sel.Degenerate {
			qualifying[i].Opacity = DegenerateOpacity
		} else {
			qualifying[i].Opacity = minOpacity + (qualifying[i].Magnitude-thr)/span*opacitySpan
		}
	}
	sel.Edges = qualifying
	return sel
}
