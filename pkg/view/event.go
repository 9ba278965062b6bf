package view

// Kind identifies a user input event.
type Kind string

const (
	KindBatchChanged       Kind = "batch_changed"
	KindHeadChanged        Kind = "head_changed"
	KindThresholdChanged   Kind = "threshold_changed"
	KindNodeClicked        Kind = "node_clicked"
	KindNameBarClicked     Kind = "name_bar_clicked"
	KindSearchQueryChanged Kind = "search_query_changed"
	KindSearchResultChosen Kind = "search_result_chosen"
	KindSearchKey          Kind = "search_key"
	KindSearchFocused      Kind = "search_focused"
	KindSearchBlurred      Kind = "search_blurred"
	KindSearchCleared      Kind = "search_cleared"
	KindRowHovered         Kind = "row_hovered"
	KindPointerLeft        Kind = "pointer_left"
	KindViewportResized    Kind = "viewport_resized"
)

// Keys understood by KindSearchKey.
const (
	KeyNext   = "ArrowDown"
	KeyPrev   = "ArrowUp"
	KeyEnter  = "Enter"
	KeyEscape = "Escape"
)

// Hover targets.
const (
	TargetNameBar = "name"
	TargetNode    = "node"
)

// Event is one user input. Which fields are read depends on Kind.
type Event struct {
	Kind   Kind    `json:"kind"`
	Value  int     `json:"value"`
	Layer  int     `json:"layer"`
	Column int     `json:"column"`
	Row    int     `json:"row"`
	Index  int     `json:"index"`
	Text   string  `json:"text,omitempty"`
	Key    string  `json:"key,omitempty"`
	Target string  `json:"target,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// BatchChanged selects batch b.
func BatchChanged(b int) Event { return Event{Kind: KindBatchChanged, Value: b} }

// HeadChanged selects head h on layer l.
func HeadChanged(l, h int) Event { return Event{Kind: KindHeadChanged, Layer: l, Value: h} }

// ThresholdChanged moves the threshold slider of layer l to s.
func ThresholdChanged(l, s int) Event { return Event{Kind: KindThresholdChanged, Layer: l, Value: s} }

// NodeClicked is a click on the node of row in column col.
func NodeClicked(col, row int) Event { return Event{Kind: KindNodeClicked, Column: col, Row: row} }

// NameBarClicked is a click on the name bar of row.
func NameBarClicked(row int) Event { return Event{Kind: KindNameBarClicked, Row: row} }

// SearchQueryChanged is new text in the search box.
func SearchQueryChanged(text string) Event { return Event{Kind: KindSearchQueryChanged, Text: text} }

// SearchResultChosen picks entry i of the rendered result list.
func SearchResultChosen(i int) Event { return Event{Kind: KindSearchResultChosen, Index: i} }

// SearchKey is a key press in the search box.
func SearchKey(key string) Event { return Event{Kind: KindSearchKey, Key: key} }

// SearchFocused is focus entering the search box.
func SearchFocused() Event { return Event{Kind: KindSearchFocused} }

// SearchBlurred is focus leaving the search box.
func SearchBlurred() Event { return Event{Kind: KindSearchBlurred} }

// SearchCleared is a press of the search clear button.
func SearchCleared() Event { return Event{Kind: KindSearchCleared} }

// RowHovered is the pointer entering the hit area of row. target is
// TargetNameBar or TargetNode; col is read for nodes.
func RowHovered(target string, col, row int) Event {
	return Event{Kind: KindRowHovered, Target: target, Column: col, Row: row}
}

// PointerLeft is the pointer leaving every row hit area.
func PointerLeft() Event { return Event{Kind: KindPointerLeft} }

// ViewportResized reports the visible height of the scroll container.
func ViewportResized(h float64) Event { return Event{Kind: KindViewportResized, Height: h} }
