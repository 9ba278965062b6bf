// Package view is the render engine of an attention graph.
//
// An Engine owns one view's State. Every user input arrives as an Event
// through Dispatch, which mutates State, rebuilds only the scene groups the
// event can affect and returns the Patch that reconciles the drawn scene
// with the desired one. An Engine is not safe for concurrent use; the
// caller serializes events.
package view

import (
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/r3d91ll/attngraph/pkg/chain"
	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/edges"
	"github.com/r3d91ll/attngraph/pkg/errors"
	"github.com/r3d91ll/attngraph/pkg/layout"
	"github.com/r3d91ll/attngraph/pkg/search"
)

// Logger receives non-fatal diagnostics.
type Logger interface {
	Printf(format string, args ...interface{})
}

// IDGenerator returns a fresh view instance id.
type IDGenerator func() string

// NewInstanceID returns a random id usable as a DOM prefix.
func NewInstanceID() string {
	return "av" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Settings are the tunable view parameters.
type Settings struct {
	DefaultThreshold int     `yaml:"default_threshold" json:"default_threshold"`
	MaxEdges         int     `yaml:"max_edges" json:"max_edges"`
	SearchLimit      int     `yaml:"search_limit" json:"search_limit"`
	ViewportHeight   float64 `yaml:"viewport_height" json:"viewport_height"`
}

// DefaultSettings returns the stock view settings.
func DefaultSettings() Settings {
	return Settings{
		DefaultThreshold: edges.DefaultSlider,
		MaxEdges:         edges.MaxEdges,
		SearchLimit:      search.DefaultLimit,
		ViewportHeight:   600,
	}
}

// Options configure New.
type Options struct {
	Layout   layout.Config
	Settings Settings

	// ID is the instance id. When empty IDGenerator is called, falling back
	// to NewInstanceID.
	ID          string
	IDGenerator IDGenerator

	Logger Logger
}

// Engine renders one interactive view of a dataset.
type Engine struct {
	id       string
	ds       *dataset.Dataset
	dims     dataset.Dims
	geo      *layout.Geometry
	settings Settings
	logger   Logger

	state State
	chain *chain.Chain
	index *search.Index
	nav   *search.Navigator
	tip   *Tooltip

	scrollSeq  int
	selections []edges.Selection

	order []string
	drawn map[string][]Element
	dirty map[string]bool
}

// New builds an engine in its initial state: batch 0, every head 0, every
// threshold at the default slider value, no chain and no pin.
func New(ds *dataset.Dataset, opts Options) (*Engine, error) {
	if ds == nil {
		return nil, errors.Validation(errors.ErrNoDataset, "view needs a dataset")
	}
	s := opts.Settings
	def := DefaultSettings()
	if s == (Settings{}) {
		s = def
	}
	if s.MaxEdges <= 0 {
		s.MaxEdges = def.MaxEdges
	}
	if s.SearchLimit <= 0 {
		s.SearchLimit = def.SearchLimit
	}
	if s.ViewportHeight <= 0 {
		s.ViewportHeight = def.ViewportHeight
	}
	s.DefaultThreshold = edges.ClampSlider(s.DefaultThreshold)

	id := opts.ID
	if id == "" {
		gen := opts.IDGenerator
		if gen == nil {
			gen = NewInstanceID
		}
		id = gen()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	dims := ds.Dims()
	e := &Engine{
		id:         id,
		ds:         ds,
		dims:       dims,
		geo:        layout.Compute(dims.N, dims.L, opts.Layout),
		settings:   s,
		logger:     logger,
		chain:      chain.New(dims.L, dims.N),
		index:      search.NewIndex(ds.IDs(), ds.FullNames(), s.SearchLimit),
		nav:        search.NewNavigator(),
		selections: make([]edges.Selection, dims.L),
		drawn:      make(map[string][]Element),
		dirty:      make(map[string]bool),
	}
	e.state = State{
		Heads:      make([]int, dims.L),
		Thresholds: make([]int, dims.L),
		Pinned:     -1,
		Hover:      -1,
	}
	for l := range e.state.Thresholds {
		e.state.Thresholds[l] = s.DefaultThreshold
	}

	e.order = []string{GroupPinBand, GroupRowBand}
	for l := 0; l < dims.L; l++ {
		e.order = append(e.order, ThresholdGroup(l))
	}
	e.order = append(e.order, GroupConn, GroupNameBG, GroupBars, GroupNames, GroupGuides,
		GroupNodes, GroupTooltip, GroupHighlights, GroupLabels, GroupControls, GroupDropdown)

	for l := 0; l < dims.L; l++ {
		e.reselect(l)
	}
	return e, nil
}

// ID returns the instance id.
func (e *Engine) ID() string { return e.id }

// Dataset returns the rendered dataset.
func (e *Engine) Dataset() *dataset.Dataset { return e.ds }

// Geometry returns the layout.
func (e *Engine) Geometry() *layout.Geometry { return e.geo }

// Settings returns the effective settings.
func (e *Engine) Settings() Settings { return e.settings }

// State returns a copy of the current state.
func (e *Engine) State() State {
	s := e.state.clone()
	s.Chain = e.chain.Nodes()
	return s
}

// Selection returns the current edge selection of layer l.
func (e *Engine) Selection(l int) edges.Selection {
	return e.selections[l]
}

// Segments returns the styled chain segments in chain order.
func (e *Engine) Segments() []edges.Segment {
	links := e.chain.Links()
	out := make([]edges.Segment, len(links))
	for i, link := range links {
		out[i] = e.segment(link)
	}
	return out
}

// Matches returns the rendered search results.
func (e *Engine) Matches() []search.Match { return e.nav.Results() }

// SearchCursor returns the keyboard-highlighted result (-1 for none) and
// whether the dropdown is shown.
func (e *Engine) SearchCursor() (active int, visible bool) {
	return e.nav.Active(), e.nav.Visible()
}

// Tooltip returns the visible tooltip, if any.
func (e *Engine) Tooltip() (Tooltip, bool) {
	if e.tip == nil {
		return Tooltip{}, false
	}
	return *e.tip, true
}

func (e *Engine) matrix(l int) dataset.Matrix {
	return e.ds.Matrix(l, e.state.Batch, e.state.Heads[l])
}

// reselect recomputes the edge selection of layer l.
func (e *Engine) reselect(l int) {
	sel := edges.Select(e.matrix(l), e.state.Thresholds[l], e.settings.MaxEdges)
	if sel.Degenerate {
		e.logger.Printf("[view] %s: degenerate range on layer %d head %d batch %d (max == threshold %.3g), using fallback opacity",
			e.id, l, e.state.Heads[l], e.state.Batch, sel.Threshold)
	}
	e.selections[l] = sel
}

func (e *Engine) segment(link chain.Link) edges.Segment {
	return edges.SegmentStyle(e.matrix(link.Layer()), link.From.Row, link.To.Row)
}

func (e *Engine) markChain() {
	e.dirty[GroupHighlights] = true
	e.dirty[GroupConn] = true
	e.dirty[GroupLabels] = true
}

func (e *Engine) markAll() {
	for _, g := range e.order {
		e.dirty[g] = true
	}
}

// Render returns the patch that draws the whole scene from nothing and
// marks it drawn.
func (e *Engine) Render() Patch {
	e.drawn = make(map[string][]Element)
	e.markAll()
	return e.flush()
}

// Scene returns the full scene for the current state without changing what
// is considered drawn.
func (e *Engine) Scene() *Scene {
	sc := &Scene{ID: e.id, Width: e.geo.Width, Height: e.geo.Height}
	for _, g := range e.order {
		sc.Layers = append(sc.Layers, Layer{Group: g, Elements: e.build(g)})
	}
	return sc
}

// flush rebuilds dirty groups and reconciles them against what is drawn.
func (e *Engine) flush() Patch {
	var p Patch
	for _, g := range e.order {
		if !e.dirty[g] {
			continue
		}
		desired := e.build(g)
		p.Ops = append(p.Ops, Reconcile(g, e.drawn[g], desired)...)
		e.drawn[g] = desired
	}
	e.dirty = make(map[string]bool)
	return p
}

// Restore replaces the state with s, clamping every index into range and
// replaying the chain through the click state machine, then redraws.
func (e *Engine) Restore(s State) Patch {
	e.state.Batch = clamp(s.Batch, 0, max(e.dims.B-1, 0))
	for l := 0; l < e.dims.L; l++ {
		e.state.Heads[l] = 0
		e.state.Thresholds[l] = e.settings.DefaultThreshold
		if l < len(s.Heads) {
			e.state.Heads[l] = clamp(s.Heads[l], 0, max(e.dims.H-1, 0))
		}
		if l < len(s.Thresholds) {
			e.state.Thresholds[l] = edges.ClampSlider(s.Thresholds[l])
		}
		e.reselect(l)
	}
	e.chain.Clear()
	for _, n := range s.Chain {
		e.chain.Click(n.Column, n.Row)
	}
	e.state.Pinned = -1
	if s.Pinned >= 0 && s.Pinned < e.dims.N {
		e.state.Pinned = s.Pinned
	}
	e.state.Hover = -1
	e.tip = nil
	e.state.Query = s.Query
	if e.state.Pinned >= 0 && s.Query == "" {
		e.state.Query = e.ds.ID(e.state.Pinned)
	}
	e.state.ScrollTop = s.ScrollTop
	e.nav.Hide()
	e.markAll()
	return e.flush()
}
