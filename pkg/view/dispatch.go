package view

import (
	"strings"

	"github.com/r3d91ll/attngraph/pkg/chain"
	"github.com/r3d91ll/attngraph/pkg/edges"
)

// Dispatch applies one event and returns the patch for the redraw it
// causes. Out-of-range indices are clamped or the event is ignored; unknown
// kinds are logged and ignored. Dispatch never fails.
func (e *Engine) Dispatch(ev Event) Patch {
	switch ev.Kind {
	case KindBatchChanged:
		e.onBatch(ev.Value)
	case KindHeadChanged:
		e.onHead(ev.Layer, ev.Value)
	case KindThresholdChanged:
		e.onThreshold(ev.Layer, ev.Value)
	case KindNodeClicked:
		e.onNodeClick(ev.Column, ev.Row)
	case KindNameBarClicked:
		e.onNameBar(ev.Row)
	case KindSearchQueryChanged:
		e.onQuery(ev.Text)
	case KindSearchResultChosen:
		if m, ok := e.nav.Choose(ev.Index); ok {
			e.selectResult(m.Index)
		}
	case KindSearchKey:
		e.onKey(ev.Key)
	case KindSearchFocused:
		if q := strings.TrimSpace(e.state.Query); q != "" {
			e.nav.Show(e.index.Matches(q))
			e.dirty[GroupDropdown] = true
		}
	case KindSearchBlurred:
		e.nav.Hide()
		e.dirty[GroupDropdown] = true
	case KindSearchCleared:
		e.state.Query = ""
		e.nav.Hide()
		e.unpin()
		e.dirty[GroupDropdown] = true
		e.dirty[GroupControls] = true
	case KindRowHovered:
		e.onHover(ev.Target, ev.Column, ev.Row)
	case KindPointerLeft:
		if e.state.Hover >= 0 || e.tip != nil {
			e.state.Hover = -1
			e.tip = nil
			e.dirty[GroupRowBand] = true
			e.dirty[GroupTooltip] = true
		}
	case KindViewportResized:
		if ev.Height > 0 {
			e.settings.ViewportHeight = ev.Height
		}
	default:
		e.logger.Printf("[view] %s: ignoring unknown event kind %q", e.id, ev.Kind)
	}
	return e.flush()
}

func (e *Engine) onBatch(b int) {
	if e.dims.B == 0 {
		return
	}
	b = clamp(b, 0, e.dims.B-1)
	if b == e.state.Batch {
		return
	}
	e.state.Batch = b
	for l := 0; l < e.dims.L; l++ {
		e.reselect(l)
		e.dirty[ThresholdGroup(l)] = true
	}
	e.dirty[GroupBars] = true
	e.dirty[GroupControls] = true
	e.dirty[GroupConn] = true
	e.dirty[GroupLabels] = true
	if e.tip != nil && e.tip.Line2 != "" {
		e.refreshTooltip(TargetNameBar, 0, e.state.Hover)
	}
}

func (e *Engine) onHead(l, h int) {
	if l < 0 || l >= e.dims.L || e.dims.H == 0 {
		return
	}
	h = clamp(h, 0, e.dims.H-1)
	if h == e.state.Heads[l] {
		return
	}
	e.state.Heads[l] = h
	e.reselect(l)
	e.dirty[ThresholdGroup(l)] = true
	e.dirty[GroupControls] = true
	if len(e.chain.LinksOnLayer(l)) > 0 {
		e.dirty[GroupConn] = true
		e.dirty[GroupLabels] = true
	}
}

func (e *Engine) onThreshold(l, s int) {
	if l < 0 || l >= e.dims.L {
		return
	}
	s = edges.ClampSlider(s)
	if s == e.state.Thresholds[l] {
		return
	}
	e.state.Thresholds[l] = s
	e.reselect(l)
	e.dirty[ThresholdGroup(l)] = true
	e.dirty[GroupControls] = true
}

func (e *Engine) onNodeClick(col, row int) {
	if e.chain.Click(col, row).Transition == chain.Ignored {
		return
	}
	e.markChain()
}

func (e *Engine) onNameBar(row int) {
	if row < 0 || row >= e.dims.N {
		return
	}
	if e.state.Pinned == row {
		e.unpin()
		e.state.Query = ""
	} else {
		e.pin(row)
	}
	e.dirty[GroupControls] = true
}

func (e *Engine) onQuery(text string) {
	e.state.Query = text
	q := strings.TrimSpace(text)
	if q == "" {
		e.unpin()
	}
	e.nav.Show(e.index.Matches(q))
	e.dirty[GroupDropdown] = true
	e.dirty[GroupControls] = true
}

func (e *Engine) onKey(key string) {
	switch key {
	case KeyNext:
		e.nav.Next()
	case KeyPrev:
		e.nav.Prev()
	case KeyEnter:
		if m, ok := e.nav.Confirm(); ok {
			e.selectResult(m.Index)
		}
	case KeyEscape:
		e.nav.Hide()
	default:
		return
	}
	e.dirty[GroupDropdown] = true
}

// selectResult pins row and scrolls it to the middle of the viewport.
func (e *Engine) selectResult(row int) {
	e.nav.Hide()
	e.pin(row)
	e.state.ScrollTop = e.geo.ScrollTop(row, e.settings.ViewportHeight)
	e.scrollSeq++
	e.dirty[GroupDropdown] = true
	e.dirty[GroupControls] = true
}

// pin moves the single pin slot to row and syncs the search text.
func (e *Engine) pin(row int) {
	e.state.Pinned = row
	e.state.Query = e.ds.ID(row)
	e.dirty[GroupPinBand] = true
}

func (e *Engine) unpin() {
	if e.state.Pinned < 0 {
		return
	}
	e.state.Pinned = -1
	e.dirty[GroupPinBand] = true
}

func (e *Engine) onHover(target string, col, row int) {
	if row < 0 || row >= e.dims.N {
		return
	}
	if target == TargetNode && (col < 0 || col > e.dims.L) {
		return
	}
	if target != TargetNode && target != TargetNameBar {
		return
	}
	if row != e.state.Hover {
		e.state.Hover = row
		e.dirty[GroupRowBand] = true
	}
	e.refreshTooltip(target, col, row)
}

func (e *Engine) refreshTooltip(target string, col, row int) {
	g := e.geo
	var tip Tooltip
	if target == TargetNameBar {
		tip = Tooltip{
			X:      g.NameBlockX + g.NameBlockWidth + 8,
			Y:      g.YPos[row] + g.NodeHeight/2,
			Anchor: "start",
			Line1:  e.ds.Name(row),
		}
		if e.dims.B > 0 {
			tip.Line2 = "Bound: " + edges.Exponential(float64(e.ds.BoundRow(e.state.Batch)[row]), 3)
		}
	} else {
		tip = Tooltip{
			X:      g.ColX[col] + g.NodeWidth + 8,
			Y:      g.YPos[row] + g.NodeHeight/2 + 4,
			Anchor: "start",
			Line1:  e.ds.Name(row),
		}
	}
	if e.tip == nil || *e.tip != tip {
		e.tip = &tip
		e.dirty[GroupTooltip] = true
	}
}
