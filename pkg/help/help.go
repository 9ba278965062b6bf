// Package help renders the attngraph shell's command reference.
//
// The registry in commands.go is the single source for the help text, the
// shell's dispatch table and its tab completion.
//
//	r := help.NewRenderer(os.Stdout)
//	r.RenderFull()
//	r.RenderCommand("thresh")
package help

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	gray   = "\033[90m"
)

// Renderer writes help output, styled with ANSI colors unless plain.
type Renderer struct {
	w     io.Writer
	plain bool
}

// NewRenderer returns a styled renderer on w.
func NewRenderer(w io.Writer) *Renderer { return &Renderer{w: w} }

// NewPlainRenderer returns a renderer that writes no escape codes.
func NewPlainRenderer(w io.Writer) *Renderer { return &Renderer{w: w, plain: true} }

func (r *Renderer) style(code, text string) string {
	if r.plain {
		return text
	}
	return code + text + reset
}

// example colors "/thresh 1 990" as a cyan command and yellow arguments.
func (r *Renderer) example(cmd string) string {
	name, args, found := strings.Cut(cmd, " ")
	if !found {
		return r.style(cyan, cmd)
	}
	return r.style(cyan, name) + r.style(yellow, " "+args)
}

func (r *Renderer) writeln(s string) { fmt.Fprintln(r.w, s) }

// visibleLength counts the runes of s outside ANSI escape sequences.
func visibleLength(s string) int {
	n := 0
	for s != "" {
		if i := strings.IndexByte(s, '\033'); i >= 0 {
			n += utf8.RuneCountInString(s[:i])
			end := strings.IndexByte(s[i:], 'm')
			if end < 0 {
				return n
			}
			s = s[i+end+1:]
			continue
		}
		n += utf8.RuneCountInString(s)
		break
	}
	return n
}

// padRight pads s with spaces to width visible columns.
func padRight(s string, width int) string {
	if n := visibleLength(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
