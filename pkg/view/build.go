package view

import (
	"strconv"
	"strings"

	"github.com/r3d91ll/attngraph/pkg/edges"
)

// build computes the desired elements of group g for the current state.
func (e *Engine) build(g string) []Element {
	switch g {
	case GroupPinBand:
		return e.band(g, "pin", "pinband", e.state.Pinned)
	case GroupRowBand:
		return e.band(g, "hover", "rowband", e.state.Hover)
	case GroupConn:
		return e.buildConn()
	case GroupLabels:
		return e.buildLabels()
	case GroupHighlights:
		return e.buildHighlights()
	case GroupNameBG:
		return e.perRow(g, "bg-", func(i int, y float64) Element {
			return Element{Tag: "rect", Attrs: attrs("class", "nbg",
				"x", e.geo.NameBlockX, "y", y, "width", e.geo.NameBlockWidth, "height", e.geo.NodeHeight)}
		})
	case GroupBars:
		return e.buildBars()
	case GroupNames:
		return e.buildNames()
	case GroupGuides:
		x1, x2 := e.geo.NameBlockRight(), e.geo.ColX[0]
		return e.perRow(g, "guide-", func(i int, y float64) Element {
			cy := e.geo.CenterY(i)
			return Element{Tag: "line", Attrs: attrs("class", "guide", "x1", x1, "y1", cy, "x2", x2, "y2", cy)}
		})
	case GroupNodes:
		return e.buildNodes()
	case GroupTooltip:
		return e.buildTooltip()
	case GroupControls:
		return e.buildControls()
	case GroupDropdown:
		return e.buildDropdown()
	}
	if strings.HasPrefix(g, "thresh-") {
		l, err := strconv.Atoi(strings.TrimPrefix(g, "thresh-"))
		if err == nil && l >= 0 && l < e.dims.L {
			return e.buildThreshold(l)
		}
	}
	return nil
}

func (e *Engine) band(group, key, class string, row int) []Element {
	if row < 0 {
		return nil
	}
	return []Element{{
		Key: key, Group: group, Tag: "rect",
		Attrs: attrs("class", class, "x", e.geo.BandX, "y", e.geo.YPos[row],
			"width", e.geo.BandW, "height", e.geo.NodeHeight),
	}}
}

func (e *Engine) perRow(group, prefix string, f func(i int, y float64) Element) []Element {
	out := make([]Element, e.dims.N)
	for i, y := range e.geo.YPos {
		el := f(i, y)
		el.Key = prefix + strconv.Itoa(i)
		el.Group = group
		out[i] = el
	}
	return out
}

func (e *Engine) buildBars() []Element {
	if e.dims.B == 0 {
		return nil
	}
	widths := e.geo.BarWidths(e.ds.BoundRow(e.state.Batch))
	return e.perRow(GroupBars, "bar-", func(i int, y float64) Element {
		return Element{Tag: "rect", Attrs: attrs("class", "nred",
			"x", e.geo.NameBlockX, "y", y, "width", widths[i], "height", e.geo.NodeHeight)}
	})
}

func (e *Engine) buildNames() []Element {
	g := e.geo
	out := make([]Element, 0, 2*e.dims.N)
	for i, y := range g.YPos {
		idx := strconv.Itoa(i)
		out = append(out,
			Element{Key: "txt-" + idx, Group: GroupNames, Tag: "text", Text: e.ds.ID(i),
				Attrs: attrs("class", "ntxt", "x", g.NameBlockX+3, "y", y+g.NodeHeight-1.5)},
			Element{Key: "hit-" + idx, Group: GroupNames, Tag: "rect",
				Attrs: attrs("class", "nbar", "x", g.NameBlockX, "y", y,
					"width", g.NameBlockWidth, "height", g.NodeHeight, "data-nbar", i)},
		)
	}
	return out
}

func (e *Engine) buildNodes() []Element {
	g := e.geo
	out := make([]Element, 0, (e.dims.L+1)*e.dims.N)
	for c, x := range g.ColX {
		class := "ncol" + strconv.Itoa(c)
		for i, y := range g.YPos {
			out = append(out, Element{
				Key: "node-" + strconv.Itoa(c) + "-" + strconv.Itoa(i), Group: GroupNodes, Tag: "rect",
				Attrs: attrs("class", class, "x", x, "y", y, "width", g.NodeWidth, "height", g.NodeHeight,
					"rx", 1, "ry", 1, "data-col", c, "data-idx", i),
			})
		}
	}
	return out
}

func (e *Engine) buildThreshold(l int) []Element {
	sel := e.selections[l]
	group := ThresholdGroup(l)
	x1, x2 := e.geo.EdgeSpan(l)
	prefix := "tl-" + strconv.Itoa(l) + "-"
	out := make([]Element, len(sel.Edges))
	for k, edge := range sel.Edges {
		out[k] = Element{
			Key: prefix + strconv.Itoa(edge.Row) + "-" + strconv.Itoa(edge.Col), Group: group, Tag: "line",
			Attrs: attrs("class", "tl",
				"x1", x1, "y1", e.geo.CenterY(edge.Row), "x2", x2, "y2", e.geo.CenterY(edge.Col),
				"stroke-width", edge.StrokeWidth(), "stroke-opacity", edge.Opacity),
		}
	}
	return out
}

func (e *Engine) buildHighlights() []Element {
	const pad = 3
	g := e.geo
	nodes := e.chain.Nodes()
	out := make([]Element, len(nodes))
	for pos, n := range nodes {
		out[pos] = Element{
			Key: "hl-" + strconv.Itoa(pos), Group: GroupHighlights, Tag: "rect",
			Attrs: attrs("class", "hl", "x", g.ColX[n.Column]-pad, "y", g.YPos[n.Row]-pad,
				"width", g.NodeWidth+2*pad, "height", g.NodeHeight+2*pad),
		}
	}
	return out
}

func (e *Engine) buildConn() []Element {
	links := e.chain.Links()
	out := make([]Element, len(links))
	for i, link := range links {
		seg := e.segment(link)
		x1, x2 := e.geo.EdgeSpan(link.Layer())
		out[i] = Element{
			Key: "seg-" + strconv.Itoa(i), Group: GroupConn, Tag: "line",
			Attrs: attrs("class", "conn",
				"x1", x1, "y1", e.geo.CenterY(seg.FromRow), "x2", x2, "y2", e.geo.CenterY(seg.ToRow),
				"stroke-width", seg.Width, "stroke-opacity", seg.Opacity),
		}
	}
	return out
}

func (e *Engine) buildLabels() []Element {
	links := e.chain.Links()
	out := make([]Element, len(links))
	for i, link := range links {
		seg := e.segment(link)
		midY := (e.geo.CenterY(seg.FromRow) + e.geo.CenterY(seg.ToRow)) / 2
		out[i] = Element{
			Key: "lbl-" + strconv.Itoa(i), Group: GroupLabels, Tag: "text", Text: seg.Label,
			Attrs: attrs("class", "vl", "x", e.geo.SliderCenter(link.Layer()), "y", midY-4,
				"text-anchor", "middle"),
		}
	}
	return out
}

func (e *Engine) buildTooltip() []Element {
	if e.tip == nil {
		return nil
	}
	el := Element{
		Key: "tip", Group: GroupTooltip, Tag: "tooltip", Text: e.tip.Line1,
		Attrs: attrs("x", e.tip.X, "y", e.tip.Y, "text-anchor", e.tip.Anchor),
	}
	if e.tip.Line2 != "" {
		el.Attrs["line2"] = e.tip.Line2
	}
	return []Element{el}
}

func (e *Engine) buildControls() []Element {
	ctl := func(key, tag, text string, kv ...interface{}) Element {
		return Element{Key: "ctl-" + key, Group: GroupControls, Tag: tag, Text: text, Attrs: attrs(kv...)}
	}
	out := []Element{
		ctl("batch", "input", "", "type", "range", "min", 0, "max", max(e.dims.B-1, 0), "value", e.state.Batch),
		ctl("bval", "span", strconv.Itoa(e.state.Batch)),
	}
	for l := 0; l < e.dims.L; l++ {
		ls := strconv.Itoa(l)
		out = append(out,
			ctl("head-"+ls, "input", "", "type", "range", "min", 0, "max", max(e.dims.H-1, 0),
				"value", e.state.Heads[l], "data-layer", l),
			ctl("hval-"+ls, "span", strconv.Itoa(e.state.Heads[l])),
			ctl("thresh-"+ls, "input", "", "type", "range", "min", 0, "max", edges.SliderMax,
				"value", e.state.Thresholds[l], "data-layer", l),
			ctl("tval-"+ls, "span", edges.FormatThreshold(e.selections[l].Threshold)),
		)
	}
	clearDisplay := "none"
	if strings.TrimSpace(e.state.Query) != "" {
		clearDisplay = "inline"
	}
	out = append(out,
		ctl("search", "input", "", "type", "text", "value", e.state.Query),
		ctl("search-clear", "span", "", "display", clearDisplay),
		ctl("scroll", "scroll", "", "top", e.state.ScrollTop, "seq", e.scrollSeq),
	)
	return out
}

func (e *Engine) buildDropdown() []Element {
	display := "none"
	if e.nav.Visible() {
		display = "block"
	}
	out := []Element{{Key: "dd", Group: GroupDropdown, Tag: "div", Attrs: attrs("display", display)}}
	if !e.nav.Visible() {
		return out
	}
	active := e.nav.Active()
	for pos, m := range e.nav.Results() {
		out = append(out, Element{
			Key: "dd-" + strconv.Itoa(pos), Group: GroupDropdown, Tag: "div", Text: m.ID,
			Attrs: attrs("data-pos", pos, "data-idx", m.Index, "name", m.Name, "active", pos == active),
		})
	}
	return out
}
