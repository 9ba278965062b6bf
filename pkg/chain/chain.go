// Package chain tracks a user-built path of node selections across
// consecutive columns.
//
// Element i of a non-empty chain always sits in column chain[0].Column+i.
// Clicks extend the chain forward one column, collapse it when an element is
// re-clicked, replace an element when another row in its column is clicked,
// and otherwise discard it and start over.
package chain

// Node is one selected node: a row in a node column.
type Node struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Transition identifies what a click did.
type Transition int

const (
	Ignored Transition = iota
	Started
	Extended
	Collapsed
	Replaced
	Reset
)

func (t Transition) String() string {
	switch t {
	case Started:
		return "start"
	case Extended:
		return "extend"
	case Collapsed:
		return "collapse"
	case Replaced:
		return "replace"
	case Reset:
		return "reset"
	}
	return "ignored"
}

// Change reports the result of a click. Pos is the chain position the click
// landed on.
type Change struct {
	Transition Transition
	Pos        int
}

// Link is the segment between chain elements Index and Index+1. Its values
// come from the layer numbered From.Column.
type Link struct {
	Index int
	From  Node
	To    Node
}

// Layer is the attention layer the link is read from.
func (l Link) Layer() int { return l.From.Column }

// Chain is the selection state machine for a graph with node columns
// 0..lastColumn and rows 0..rows-1.
type Chain struct {
	lastColumn int
	rows       int
	nodes      []Node
}

// New returns an empty chain.
func New(lastColumn, rows int) *Chain {
	return &Chain{lastColumn: lastColumn, rows: rows}
}

// Len returns the number of selected nodes.
func (c *Chain) Len() int { return len(c.nodes) }

// Empty reports whether nothing is selected.
func (c *Chain) Empty() bool { return len(c.nodes) == 0 }

// Nodes returns a copy of the selection.
func (c *Chain) Nodes() []Node {
	out := make([]Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Clear discards the selection.
func (c *Chain) Clear() {
	c.nodes = c.nodes[:0]
}

// Click applies a node click at (col, row). Clicks outside the grid are
// ignored.
func (c *Chain) Click(col, row int) Change {
	if col < 0 || col > c.lastColumn || row < 0 || row >= c.rows {
		return Change{Transition: Ignored, Pos: -1}
	}
	n := Node{Column: col, Row: row}

	if len(c.nodes) == 0 {
		c.nodes = append(c.nodes, n)
		return Change{Transition: Started, Pos: 0}
	}

	pos := col - c.nodes[0].Column
	last := c.nodes[len(c.nodes)-1]

	switch {
	case pos == len(c.nodes) && last.Column < c.lastColumn:
		c.nodes = append(c.nodes, n)
		return Change{Transition: Extended, Pos: pos}
	case pos >= 0 && pos < len(c.nodes) && c.nodes[pos].Row == row:
		c.nodes = c.nodes[:pos]
		return Change{Transition: Collapsed, Pos: pos}
	case pos >= 0 && pos < len(c.nodes):
		c.nodes[pos] = n
		return Change{Transition: Replaced, Pos: pos}
	}

	c.nodes = append(c.nodes[:0], n)
	return Change{Transition: Reset, Pos: 0}
}

// Links returns the segments between consecutive elements.
func (c *Chain) Links() []Link {
	if len(c.nodes) < 2 {
		return nil
	}
	out := make([]Link, 0, len(c.nodes)-1)
	for i := 0; i+1 < len(c.nodes); i++ {
		out = append(out, Link{Index: i, From: c.nodes[i], To: c.nodes[i+1]})
	}
	return out
}

// LinksOnLayer returns the segments read from layer l. These are the ones a
// head change on l must re-derive.
func (c *Chain) LinksOnLayer(l int) []Link {
	var out []Link
	for _, link := range c.Links() {
		if link.Layer() == l {
			out = append(out, link)
		}
	}
	return out
}

// Contiguous reports whether every element sits one column after the
// previous and the first is a valid column.
func (c *Chain) Contiguous() bool {
	if len(c.nodes) == 0 {
		return true
	}
	if c.nodes[0].Column > c.lastColumn {
		return false
	}
	for i, n := range c.nodes {
		if n.Column != c.nodes[0].Column+i {
			return false
		}
	}
	return true
}
