// Package layout computes the fixed geometry of an attention graph: one row
// per entity, one node column per layer boundary, and the name block to the
// left of column 0.
package layout

import "math"

// Config holds the geometry parameters. Zero fields fall back to defaults in
// Normalize.
type Config struct {
	NodeHeight       float64 `yaml:"node_height" json:"node_height"`
	RowGap           float64 `yaml:"row_gap" json:"row_gap"`
	ColumnSpacing    float64 `yaml:"column_spacing" json:"column_spacing"`
	NameBlockX       float64 `yaml:"name_block_x" json:"name_block_x"`
	NameBlockWidth   float64 `yaml:"name_block_width" json:"name_block_width"`
	NodeWidth        float64 `yaml:"node_width" json:"node_width"`
	GuideGap         float64 `yaml:"guide_gap" json:"guide_gap"`
	TopPad           float64 `yaml:"top_pad" json:"top_pad"`
	BottomPad        float64 `yaml:"bottom_pad" json:"bottom_pad"`
	SliderGroupWidth float64 `yaml:"slider_group_width" json:"slider_group_width"`
}

// DefaultConfig returns the stock geometry.
func DefaultConfig() Config {
	return Config{
		NodeHeight:       8,
		RowGap:           1,
		ColumnSpacing:    175,
		NameBlockX:       5,
		NameBlockWidth:   200,
		NodeWidth:        22,
		GuideGap:         25,
		TopPad:           50,
		BottomPad:        15,
		SliderGroupWidth: 155,
	}
}

// Normalize fills unset fields from DefaultConfig. RowGap and NameBlockX
// may legitimately be zero and are only defaulted when negative.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	pick := func(v, def float64) float64 {
		if v <= 0 {
			return def
		}
		return v
	}
	c.NodeHeight = pick(c.NodeHeight, d.NodeHeight)
	c.ColumnSpacing = pick(c.ColumnSpacing, d.ColumnSpacing)
	c.NameBlockWidth = pick(c.NameBlockWidth, d.NameBlockWidth)
	c.NodeWidth = pick(c.NodeWidth, d.NodeWidth)
	c.GuideGap = pick(c.GuideGap, d.GuideGap)
	c.TopPad = pick(c.TopPad, d.TopPad)
	c.BottomPad = pick(c.BottomPad, d.BottomPad)
	c.SliderGroupWidth = pick(c.SliderGroupWidth, d.SliderGroupWidth)
	if c.RowGap < 0 {
		c.RowGap = d.RowGap
	}
	if c.NameBlockX < 0 {
		c.NameBlockX = d.NameBlockX
	}
	return c
}

// Geometry is the computed layout for N rows and L layers.
type Geometry struct {
	Config

	N, L int

	// YPos[i] is the top of row i.
	YPos []float64
	// ColX[c] is the left edge of node column c, for c in [0, L].
	ColX []float64

	Width  float64
	Height float64

	// BandX and BandW span a full-row band from the name block to the last column.
	BandX float64
	BandW float64
}

// Compute lays out n rows and l layers. It has no side effects.
func Compute(n, l int, cfg Config) *Geometry {
	cfg = cfg.Normalize()
	g := &Geometry{Config: cfg, N: n, L: l}

	g.YPos = make([]float64, n)
	for i := range g.YPos {
		g.YPos[i] = cfg.TopPad + float64(i)*(cfg.NodeHeight+cfg.RowGap)
	}

	g.ColX = make([]float64, l+1)
	col0 := cfg.NameBlockX + cfg.NameBlockWidth + cfg.GuideGap
	for c := range g.ColX {
		g.ColX[c] = col0 + float64(c)*cfg.ColumnSpacing
	}

	g.Width = g.ColX[l] + cfg.NodeWidth + 30
	g.Height = cfg.TopPad + float64(n)*(cfg.NodeHeight+cfg.RowGap) + cfg.BottomPad
	g.BandX = cfg.NameBlockX
	g.BandW = g.ColX[l] + cfg.NodeWidth - cfg.NameBlockX
	return g
}

// CenterY is the vertical centre of row i.
func (g *Geometry) CenterY(i int) float64 {
	return g.YPos[i] + g.NodeHeight/2
}

// EdgeSpan returns the x range edges of layer l are drawn across: from the
// right side of column l to the left side of column l+1.
func (g *Geometry) EdgeSpan(l int) (x1, x2 float64) {
	return g.ColX[l] + g.NodeWidth, g.ColX[l+1]
}

// SliderCenter is the horizontal centre of the control group of layer l.
func (g *Geometry) SliderCenter(l int) float64 {
	x1, x2 := g.EdgeSpan(l)
	return (x1 + x2) / 2
}

// SliderLeft is the left edge of the control group of layer l.
func (g *Geometry) SliderLeft(l int) float64 {
	return g.SliderCenter(l) - g.SliderGroupWidth/2
}

// NameBlockRight is the right edge of the name block, where guide lines start.
func (g *Geometry) NameBlockRight() float64 {
	return g.NameBlockX + g.NameBlockWidth
}

// ScrollTop returns the scroll offset that vertically centres row i in a
// viewport of the given height.
func (g *Geometry) ScrollTop(i int, viewport float64) float64 {
	return math.Max(0, g.YPos[i]-viewport/2+g.NodeHeight/2)
}

// BarWidths maps bounds magnitudes to name-bar fill widths. The largest
// magnitude fills the block; an all-zero row is treated as max 1.
func (g *Geometry) BarWidths(bounds []float32) []float64 {
	mx := math.Inf(-1)
	for _, v := range bounds {
		mx = math.Max(mx, math.Abs(float64(v)))
	}
	if mx <= 0 {
		mx = 1
	}
	out := make([]float64, len(bounds))
	for i, v := range bounds {
		out[i] = math.Abs(float64(v)) / mx * g.NameBlockWidth
	}
	return out
}

// FontSize is the name-bar label size.
func (g *Geometry) FontSize() float64 {
	return math.Max(g.NodeHeight-2, 5)
}
