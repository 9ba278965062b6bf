package search

// Navigator is the keyboard state of a rendered result list.
type Navigator struct {
	results []Match
	active  int
	visible bool
}

// NewNavigator returns a hidden, empty navigator.
func NewNavigator() *Navigator {
	return &Navigator{active: -1}
}

// Show replaces the rendered list. The dropdown is visible when non-empty.
func (n *Navigator) Show(results []Match) {
	n.results = results
	n.active = -1
	n.visible = len(results) > 0
}

// Results returns the rendered list.
func (n *Navigator) Results() []Match { return n.results }

// Visible reports whether the dropdown is shown.
func (n *Navigator) Visible() bool { return n.visible }

// Active returns the keyboard-highlighted position, or -1.
func (n *Navigator) Active() int { return n.active }

// Next moves the highlight down, wrapping.
func (n *Navigator) Next() {
	if len(n.results) == 0 {
		return
	}
	n.active = (n.active + 1) % len(n.results)
}

// Prev moves the highlight up, wrapping.
func (n *Navigator) Prev() {
	if len(n.results) == 0 {
		return
	}
	if n.active <= 0 {
		n.active = len(n.results) - 1
		return
	}
	n.active--
}

// Confirm returns the highlighted result, or the first one when nothing is
// highlighted, and hides the dropdown.
func (n *Navigator) Confirm() (Match, bool) {
	if len(n.results) == 0 {
		return Match{}, false
	}
	i := n.active
	if i < 0 {
		i = 0
	}
	m := n.results[i]
	n.Hide()
	return m, true
}

// Choose returns result i of the rendered list and hides the dropdown.
func (n *Navigator) Choose(i int) (Match, bool) {
	if i < 0 || i >= len(n.results) {
		return Match{}, false
	}
	m := n.results[i]
	n.Hide()
	return m, true
}

// Hide hides the dropdown and clears the highlight.
func (n *Navigator) Hide() {
	n.visible = false
	n.active = -1
}
