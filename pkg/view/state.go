package view

import (
	"github.com/r3d91ll/attngraph/pkg/chain"
)

// State is the interactive state of one view. It never refers back into
// the dataset beyond row and column indices.
type State struct {
	Batch      int          `json:"batch"`
	Heads      []int        `json:"heads"`
	Thresholds []int        `json:"thresholds"`
	Chain      []chain.Node `json:"chain"`

	// Pinned and Hover are row indices, -1 when unset.
	Pinned int `json:"pinned"`
	Hover  int `json:"hover"`

	Query     string  `json:"query"`
	ScrollTop float64 `json:"scroll_top"`
}

// Threshold returns the normalized threshold of layer l in [0, 1].
func (s State) Threshold(l int) float64 {
	return float64(s.Thresholds[l]) / 1000
}

func (s State) clone() State {
	out := s
	out.Heads = append([]int(nil), s.Heads...)
	out.Thresholds = append([]int(nil), s.Thresholds...)
	out.Chain = append([]chain.Node(nil), s.Chain...)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tooltip is the hover tooltip. Line2 is empty for node hovers.
type Tooltip struct {
	X      float64
	Y      float64
	Anchor string
	Line1  string
	Line2  string
}
