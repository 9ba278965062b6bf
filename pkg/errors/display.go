package errors

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[90m"
)

// Formatter renders errors for a terminal.
type Formatter struct {
	UseColor bool
	Writer   io.Writer // default os.Stderr
	Indent   string    // prefix of context and suggestion lines
}

// DefaultFormatter writes to stderr, colored when stderr is a terminal.
func DefaultFormatter() *Formatter {
	return &Formatter{UseColor: IsTTY(os.Stderr), Writer: os.Stderr, Indent: "  "}
}

// IsTTY reports whether f is a terminal.
func IsTTY(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Format renders err with the default formatter.
func Format(err error) string { return DefaultFormatter().Format(err) }

// Sprint renders err without color.
func Sprint(err error) string { return (&Formatter{Indent: "  "}).Format(err) }

// Format renders err. A GraphError becomes a header line followed by its
// sorted context, its cause and then its suggestions; any other error is a
// single "Error: ..." line.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}
	ge, ok := AsGraphError(err)
	if !ok {
		return f.paint(colorRed, "Error: ") + err.Error()
	}

	lines := []string{f.paint(colorRed+colorBold, "ERROR") + f.paint(colorRed, " ["+ge.Code+"]: ") + ge.Message}
	for _, k := range slices.Sorted(maps.Keys(ge.Context)) {
		lines = append(lines, f.Indent+f.paint(colorYellow, k+": ")+ge.Context[k])
	}
	if ge.Cause != nil {
		lines = append(lines, f.Indent+f.paint(colorDim, "cause: "+ge.Cause.Error()))
	}
	if ge.HasSuggestions() && len(lines) > 1 {
		lines = append(lines, "")
	}
	for _, s := range ge.Suggestions {
		lines = append(lines, f.Indent+f.paint(colorCyan, "→ "+s))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) paint(color, text string) string {
	if f.UseColor {
		return color + text + colorReset
	}
	return text
}

// Display prints err on the formatter's writer. Nil prints nothing.
func (f *Formatter) Display(err error) {
	if err == nil {
		return
	}
	w := f.Writer
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, f.Format(err))
}

// Display prints err on stderr.
func Display(err error) { DefaultFormatter().Display(err) }
