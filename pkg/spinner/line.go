package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

const (
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

// statusLine is one rewritable terminal line. Callers serialize access.
type statusLine struct {
	w   io.Writer
	tty bool
	n   int // visible length of the current text
}

func newStatusLine(w io.Writer, forceTTY *bool) statusLine {
	if w == nil {
		w = os.Stderr
	}
	l := statusLine{w: w}
	if f, ok := w.(*os.File); ok {
		l.tty = term.IsTerminal(int(f.Fd()))
	}
	if forceTTY != nil {
		l.tty = *forceTTY
	}
	return l
}

// columns is the terminal width of the writer, or 0.
func (l *statusLine) columns() int {
	f, ok := l.w.(*os.File)
	if !ok {
		return 0
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return cols
}

// show replaces the line on a terminal and appends a line elsewhere.
func (l *statusLine) show(text string) {
	if !l.tty {
		fmt.Fprintln(l.w, text)
		return
	}
	l.erase()
	io.WriteString(l.w, text)
	l.n = len(text)
}

func (l *statusLine) erase() {
	if l.n == 0 {
		return
	}
	pad := strings.Repeat(" ", l.n)
	io.WriteString(l.w, "\r"+pad+"\r")
	l.n = 0
}

func (l *statusLine) cursor(visible bool) {
	if !l.tty {
		return
	}
	if visible {
		io.WriteString(l.w, showCursor)
	} else {
		io.WriteString(l.w, hideCursor)
	}
}

// result prints the closing "✓ message (1.2s)" line. A zero elapsed omits
// the timing.
func (l *statusLine) result(ok bool, message string, elapsed time.Duration) {
	symbol, color := symbolSuccess, colorGreen
	if !ok {
		symbol, color = symbolFailure, colorRed
	}
	if l.tty {
		symbol = color + symbol + colorReset
	}
	if elapsed <= 0 {
		fmt.Fprintf(l.w, "%s %s\n", symbol, message)
		return
	}
	fmt.Fprintf(l.w, "%s %s %s\n", symbol, message, formatElapsed(elapsed))
}

// formatElapsed renders "(1.2s)" or "(1m 30s)".
func formatElapsed(d time.Duration) string {
	if d >= time.Minute {
		return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("(%.1fs)", d.Seconds())
}
