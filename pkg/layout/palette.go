package layout

// ColumnColor is the fill, stroke and hover colour of a node column.
type ColumnColor struct {
	Fill   string
	Stroke string
	Hover  string
}

var palette = []ColumnColor{
	{"#2a9d8f", "#1d7068", "#3fc0b0"},
	{"#c47a53", "#8e5535", "#dba07a"},
	{"#7b68ae", "#554889", "#9d8dcf"},
	{"#c97b84", "#9e545d", "#e4a5ad"},
	{"#8a9a5b", "#647040", "#a8bb78"},
	{"#6a7fdb", "#4a5aab", "#90a0ef"},
	{"#b07aa1", "#875c7d", "#cf9ec2"},
	{"#c4a35a", "#9a7d3a", "#dfbf7a"},
	{"#56b6a6", "#3d8f82", "#78d4c5"},
	{"#d4816b", "#a85d4a", "#eba591"},
	{"#6b9e8a", "#4c7a67", "#8ec2ac"},
	{"#a0855b", "#7a6340", "#c0a57b"},
}

// Color returns the palette entry of column c, cycling.
func Color(c int) ColumnColor {
	return palette[c%len(palette)]
}
