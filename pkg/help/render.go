package help

import (
	"fmt"
	"strings"
)

const (
	// commandColumnWidth fits "/thresh (or /t)" plus its guide.
	commandColumnWidth = 22

	indentCategory = "  "
	indentCommand  = "    "
	indentExample  = "      "
)

// RenderFull renders every category followed by the tips section.
func (r *Renderer) RenderFull() {
	r.writeln("")
	r.writeln(r.style(bold+cyan, indentCategory+"attngraph shell"))
	r.writeln("")
	for _, cat := range CategoryOrder {
		r.renderCategory(cat)
	}
	r.RenderTips()
}

// RenderCommand renders the detailed help of one command. It returns false
// if there is no such command.
func (r *Renderer) RenderCommand(name string) bool {
	cmd, found := GetCommand(name)
	if !found {
		r.writeln(fmt.Sprintf(indentCategory+"Command '%s' not found. Use /help to see all commands.", name))
		return false
	}

	r.writeln("")
	r.writeln(indentCategory + r.commandLabel(cmd))
	r.writeln(indentCategory + r.style(gray, cmd.Description))
	r.writeln("")
	r.writeln(indentCategory + r.style(bold, "Usage:") + " " + r.style(yellow, cmd.Usage))
	r.writeln("")

	if len(cmd.Examples) > 0 {
		r.writeln(indentCategory + r.style(bold, "Examples:"))
		for _, ex := range cmd.Examples {
			r.writeln(indentCommand + "  " + r.example(ex.Command) + r.style(gray, " -> "+ex.Description))
		}
		r.writeln("")
	}
	return true
}

// RenderTips renders the aliases and keys reference.
func (r *Renderer) RenderTips() {
	guide := r.style(gray, "│"+" ")
	r.writeln(indentCategory + r.style(bold+green, "Tips"))
	r.writeln(indentCategory + r.separator())
	r.writeln(indentCommand + guide + r.style(gray, "Rows: ") +
		r.style(yellow, "<row>") + r.style(gray, " is an index, ") +
		r.style(yellow, "<id>") + r.style(gray, " an entity id (Tab completes)"))
	r.writeln(indentCommand + guide + r.style(gray, "Columns: ") +
		r.style(gray, "0..L, layer l links column l to l+1"))
	r.writeln(indentCommand + guide + r.style(gray, "Keys: ") +
		r.style(bold+yellow, "Ctrl+C") + r.style(gray, " cancel  ") +
		r.style(bold+yellow, "Ctrl+D") + r.style(gray, " exit  ") +
		r.style(bold+yellow, "↑↓") + r.style(gray, " history"))
	r.writeln("")
}

func (r *Renderer) separator() string {
	return r.style(gray, "├"+strings.Repeat("─", commandColumnWidth+20))
}

func (r *Renderer) commandLabel(cmd Command) string {
	if cmd.Shortcut == "" {
		return r.style(cyan, cmd.Name)
	}
	return r.style(cyan, cmd.Name) + r.style(gray, " (or ") +
		r.style(bold+yellow, cmd.Shortcut) + r.style(gray, ")")
}

func (r *Renderer) renderCategory(cat Category) {
	commands := GetCommandsByCategory(cat)
	if len(commands) == 0 {
		return
	}

	r.writeln(indentCategory + r.style(bold+green, cat.DisplayName()))
	r.writeln(indentCategory + r.separator())
	for _, cmd := range commands {
		line := indentCommand + r.style(gray, "│"+" ") +
			padRight(r.commandLabel(cmd), commandColumnWidth) + r.style(gray, cmd.Description)
		r.writeln(line)

		// At most one inline example in the overview.
		if len(cmd.Examples) > 0 {
			r.writeln(indentExample + r.style(gray, "│"+"   e.g. ") + r.example(cmd.Examples[0].Command))
		}
	}
	r.writeln("")
}
