package edges

import (
	"math"

	"github.com/r3d91ll/attngraph/pkg/dataset"
)

// SegmentFallback is the normalized position used when a row has a single
// magnitude.
const SegmentFallback = 0.5

const (
	segMinWidth    = 0.3
	segWidthSpan   = 7.7
	segMinOpacity  = 0.2
	segOpacitySpan = 0.45
)

// Segment styles the connection between consecutive chain elements, drawn
// from entity FromRow in one column to ToRow in the next.
type Segment struct {
	FromRow int
	ToRow   int

	// Value is the raw M[FromRow][ToRow].
	Value float32

	// Normed is |Value| placed within the |M[FromRow][*]| range.
	Normed  float64
	Width   float64
	Opacity float64
	Label   string

	Degenerate bool
}

// SegmentStyle computes the segment from rowA to rowB on matrix m.
func SegmentStyle(m dataset.Matrix, rowA, rowB int) Segment {
	val := m.At(rowA, rowB)
	r := RowRange(m, rowA)

	seg := Segment{FromRow: rowA, ToRow: rowB, Value: val, Normed: SegmentFallback}
	if r.Degenerate() {
		seg.Degenerate = true
	} else {
		seg.Normed = (math.Abs(float64(val)) - r.Min) / (r.Max - r.Min)
	}
	seg.Width = segMinWidth + seg.Normed*segWidthSpan
	seg.Opacity = segMinOpacity + seg.Normed*segOpacitySpan
	seg.Label = Exponential(float64(val), 3)
	return seg
}
