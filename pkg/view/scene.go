package view

import (
	"fmt"
	"math"
	"strconv"
)

// Scene groups in paint order. Threshold groups are "thresh-<layer>" and sit
// between the row bands and the chain connections.
const (
	GroupPinBand    = "pinband"
	GroupRowBand    = "rowband"
	GroupConn       = "conn"
	GroupNameBG     = "namebg"
	GroupBars       = "bars"
	GroupNames      = "names"
	GroupGuides     = "guides"
	GroupNodes      = "nodes"
	GroupTooltip    = "tooltip"
	GroupHighlights = "hl"
	GroupLabels     = "labels"

	// GroupControls and GroupDropdown are HTML controls outside the SVG.
	GroupControls = "controls"
	GroupDropdown = "dropdown"
)

// ThresholdGroup names the edge group of layer l.
func ThresholdGroup(l int) string {
	return "thresh-" + strconv.Itoa(l)
}

// Element is one keyed visual element. Attrs are rendered verbatim as
// attributes; Text is the element content.
type Element struct {
	Key   string            `json:"key"`
	Group string            `json:"group"`
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs,omitempty"`
	Text  string            `json:"text,omitempty"`
}

func (e Element) equal(o Element) bool {
	if e.Tag != o.Tag || e.Group != o.Group || e.Text != o.Text || len(e.Attrs) != len(o.Attrs) {
		return false
	}
	for k, v := range e.Attrs {
		if ov, ok := o.Attrs[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Layer is one scene group and its elements in paint order.
type Layer struct {
	Group    string    `json:"group"`
	Elements []Element `json:"elements"`
}

// Scene is the full desired visual state.
type Scene struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Layers []Layer `json:"layers"`
}

// Group returns the elements of group g.
func (s *Scene) Group(g string) []Element {
	for _, l := range s.Layers {
		if l.Group == g {
			return l.Elements
		}
	}
	return nil
}

// Find returns the element with key in group g.
func (s *Scene) Find(g, key string) (Element, bool) {
	for _, e := range s.Group(g) {
		if e.Key == key {
			return e, true
		}
	}
	return Element{}, false
}

// Count returns the number of elements across all groups.
func (s *Scene) Count() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Elements)
	}
	return n
}

// OpKind is a patch operation.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpRemove OpKind = "remove"
	OpUpdate OpKind = "update"
)

// Op is one reconciliation step. El is nil for removes.
type Op struct {
	Op    OpKind   `json:"op"`
	Key   string   `json:"key"`
	Group string   `json:"group"`
	El    *Element `json:"el,omitempty"`
}

// Patch is the ordered set of ops that brings a drawn scene to the desired
// one.
type Patch struct {
	Ops []Op `json:"ops"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return len(p.Ops) == 0 }

// Count returns the number of ops of kind k.
func (p Patch) Count(k OpKind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Op == k {
			n++
		}
	}
	return n
}

// Reconcile diffs the drawn elements of one group against the desired ones.
// Removes come first, then adds and updates in desired order. Elements whose
// key is unchanged and whose content is equal produce no op.
func Reconcile(group string, drawn, desired []Element) []Op {
	have := make(map[string]Element, len(drawn))
	for _, e := range drawn {
		have[e.Key] = e
	}
	want := make(map[string]struct{}, len(desired))
	for _, e := range desired {
		want[e.Key] = struct{}{}
	}

	var ops []Op
	for _, e := range drawn {
		if _, ok := want[e.Key]; !ok {
			ops = append(ops, Op{Op: OpRemove, Key: e.Key, Group: group})
		}
	}
	for i := range desired {
		e := desired[i]
		old, ok := have[e.Key]
		switch {
		case !ok:
			ops = append(ops, Op{Op: OpAdd, Key: e.Key, Group: group, El: &e})
		case !old.equal(e):
			ops = append(ops, Op{Op: OpUpdate, Key: e.Key, Group: group, El: &e})
		}
	}
	return ops
}

// attrs builds an attribute map from alternating key/value pairs. Values
// are formatted with num when they are float64 or int.
func attrs(kv ...interface{}) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			m[k] = v
		case float64:
			m[k] = num(v)
		case int:
			m[k] = strconv.Itoa(v)
		case bool:
			m[k] = strconv.FormatBool(v)
		default:
			m[k] = fmt.Sprint(v)
		}
	}
	return m
}

// num formats a coordinate with at most four decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
