package help

// Category represents a command category for grouping in help output.
type Category string

const (
	// CategoryData covers loading and inspecting datasets.
	CategoryData Category = "data"

	// CategoryView covers the batch, head and threshold controls.
	CategoryView Category = "view"

	// CategoryChain covers node chains, pins and search.
	CategoryChain Category = "chain"

	// CategoryOutput covers rendering and export.
	CategoryOutput Category = "output"

	CategoryGeneral Category = "general"
)

// CategoryOrder defines the order in which categories appear in help output.
var CategoryOrder = []Category{
	CategoryData,
	CategoryView,
	CategoryChain,
	CategoryOutput,
	CategoryGeneral,
}

var categoryNames = map[Category]string{
	CategoryData:    "Datasets",
	CategoryView:    "View Controls",
	CategoryChain:   "Chains, Pins & Search",
	CategoryOutput:  "Rendering & Export",
	CategoryGeneral: "General",
}

// DisplayName returns the human-readable display name for the category.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// ArgKind says what a command argument completes to.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgDataset
	ArgEntity
	ArgFile
)

// Command is the metadata of one shell command.
type Command struct {
	// Name includes the leading slash.
	Name     string
	Shortcut string
	Category Category

	Description string
	Usage       string

	// MinArgs is the number of required arguments.
	MinArgs int

	// Complete is the kind of value completed for the last argument.
	Complete ArgKind

	Examples []Example
}

// Example represents a usage example for a command.
type Example struct {
	Command     string
	Description string
}

// Commands is the command registry.
var Commands = []Command{
	{
		Name:        "/load",
		Category:    CategoryData,
		Description: "Load a configured dataset or an .attnbin file",
		Usage:       "/load <name|path>",
		MinArgs:     1,
		Complete:    ArgDataset,
		Examples: []Example{
			{Command: "/load demo", Description: "Load the dataset named demo in the config"},
			{Command: "/load runs/epoch3.attnbin", Description: "Load a file directly"},
		},
	},
	{
		Name:        "/datasets",
		Category:    CategoryData,
		Description: "List the configured datasets",
		Usage:       "/datasets",
	},
	{
		Name:        "/info",
		Category:    CategoryData,
		Description: "Show dimensions and the current view state",
		Usage:       "/info",
	},
	{
		Name:        "/batch",
		Shortcut:    "/b",
		Category:    CategoryView,
		Description: "Select a batch",
		Usage:       "/batch <b>",
		MinArgs:     1,
	},
	{
		Name:        "/head",
		Category:    CategoryView,
		Description: "Select the head shown for a layer",
		Usage:       "/head <layer> <head>",
		MinArgs:     2,
		Examples: []Example{
			{Command: "/head 0 3", Description: "Show head 3 on layer 0"},
		},
	},
	{
		Name:        "/thresh",
		Shortcut:    "/t",
		Category:    CategoryView,
		Description: "Move a layer's threshold slider (0-1000)",
		Usage:       "/thresh <layer> <s>",
		MinArgs:     2,
		Examples: []Example{
			{Command: "/thresh 1 990", Description: "Keep only the strongest edges on layer 1"},
		},
	},
	{
		Name:        "/edges",
		Category:    CategoryView,
		Description: "List the visible edges of a layer",
		Usage:       "/edges <layer> [n]",
		MinArgs:     1,
	},
	{
		Name:        "/click",
		Category:    CategoryChain,
		Description: "Click a node to start, extend or collapse the chain",
		Usage:       "/click <column> <row|id>",
		MinArgs:     2,
		Complete:    ArgEntity,
		Examples: []Example{
			{Command: "/click 0 R12", Description: "Start a chain at R12 in column 0"},
		},
	},
	{
		Name:        "/chain",
		Category:    CategoryChain,
		Description: "Show the chain and its segment values",
		Usage:       "/chain",
	},
	{
		Name:        "/pin",
		Category:    CategoryChain,
		Description: "Pin or unpin an entity's row",
		Usage:       "/pin <row|id>",
		MinArgs:     1,
		Complete:    ArgEntity,
	},
	{
		Name:        "/search",
		Shortcut:    "/s",
		Category:    CategoryChain,
		Description: "Search entities by id or name",
		Usage:       "/search <query>",
		MinArgs:     1,
		Examples: []Example{
			{Command: "/search kinase", Description: "Rank entities matching kinase"},
		},
	},
	{
		Name:        "/next",
		Category:    CategoryChain,
		Description: "Move the search cursor down",
		Usage:       "/next",
	},
	{
		Name:        "/prev",
		Category:    CategoryChain,
		Description: "Move the search cursor up",
		Usage:       "/prev",
	},
	{
		Name:        "/enter",
		Category:    CategoryChain,
		Description: "Pin the search result under the cursor",
		Usage:       "/enter",
	},
	{
		Name:        "/esc",
		Category:    CategoryChain,
		Description: "Hide the search results",
		Usage:       "/esc",
	},
	{
		Name:        "/clear",
		Category:    CategoryChain,
		Description: "Clear the search and unpin",
		Usage:       "/clear",
	},
	{
		Name:        "/render",
		Category:    CategoryOutput,
		Description: "Write a static HTML or SVG snapshot of the view",
		Usage:       "/render <file.html|file.svg>",
		MinArgs:     1,
		Complete:    ArgFile,
	},
	{
		Name:        "/csv",
		Category:    CategoryOutput,
		Description: "Write a layer's visible edges as CSV",
		Usage:       "/csv <layer> <file>",
		MinArgs:     2,
		Complete:    ArgFile,
	},
	{
		Name:        "/export",
		Category:    CategoryOutput,
		Description: "Write the dataset as attnbin, optionally chunked",
		Usage:       "/export <dir> [fp16] [chunk=<n>]",
		MinArgs:     1,
		Complete:    ArgFile,
		Examples: []Example{
			{Command: "/export out fp16", Description: "Write out/<name>.attnbin at reduced precision"},
			{Command: "/export out chunk=50", Description: "Write chunk files and a manifest"},
		},
	},
	{
		Name:        "/help",
		Shortcut:    "/h",
		Category:    CategoryGeneral,
		Description: "Show this help message",
		Usage:       "/help [command]",
	},
	{
		Name:        "/quit",
		Shortcut:    "/q",
		Category:    CategoryGeneral,
		Description: "Exit the shell",
		Usage:       "/quit",
	},
}

// GetCommandsByCategory returns all commands in a given category.
func GetCommandsByCategory(cat Category) []Command {
	var result []Command
	for _, cmd := range Commands {
		if cmd.Category == cat {
			result = append(result, cmd)
		}
	}
	return result
}

// GetCommand returns a command by name or shortcut, with or without the
// leading slash.
func GetCommand(name string) (Command, bool) {
	if len(name) > 0 && name[0] != '/' {
		name = "/" + name
	}
	for _, cmd := range Commands {
		if cmd.Name == name || (cmd.Shortcut != "" && cmd.Shortcut == name) {
			return cmd, true
		}
	}
	return Command{}, false
}

// Names returns every command name and shortcut without the slash.
func Names() []string {
	names := make([]string, 0, len(Commands)+8)
	for _, cmd := range Commands {
		names = append(names, cmd.Name[1:])
		if cmd.Shortcut != "" {
			names = append(names, cmd.Shortcut[1:])
		}
	}
	return names
}
