package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	defaultBarWidth = 20
	maxBarWidth     = 40
)

// ProgressConfig configures a ProgressBar. A zero Width is fitted to the
// terminal.
type ProgressConfig struct {
	Total   int
	Message string
	Width   int
	Writer  io.Writer

	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// ProgressBar renders "Message [████░░░░] 40% (2/5) (1.2s)".
type ProgressBar struct {
	mu      sync.Mutex
	line    statusLine
	msg     string
	width   int
	total   int
	current int
	since   time.Time
}

// NewProgress creates a progress bar on stderr.
func NewProgress(total int, message string) *ProgressBar {
	return NewProgressWithConfig(ProgressConfig{Total: total, Message: message})
}

// NewProgressWithConfig creates a progress bar from cfg.
func NewProgressWithConfig(cfg ProgressConfig) *ProgressBar {
	p := &ProgressBar{
		line:  newStatusLine(cfg.Writer, cfg.IsTTY),
		msg:   cfg.Message,
		width: cfg.Width,
		total: max(cfg.Total, 1),
	}
	if p.width <= 0 {
		p.width = barWidth(p.line.columns(), len(cfg.Message))
	}
	return p
}

// barWidth fits the bar into cols columns next to a message of the given
// length and the counters.
func barWidth(cols, messageLen int) int {
	if cols <= 0 {
		return defaultBarWidth
	}
	return min(max(cols-messageLen-30, 10), maxBarWidth)
}

// Total returns the step count.
func (p *ProgressBar) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Current returns the completed step count.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Start draws the empty bar. A running bar ignores it.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.since.IsZero() {
		return
	}
	p.since = time.Now()
	p.current = 0
	p.line.cursor(false)
	p.line.show(p.text())
}

// Set moves the bar to n steps, clamped to [0, Total].
func (p *ProgressBar) Set(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.since.IsZero() {
		return
	}
	p.current = min(max(n, 0), p.total)
	p.line.show(p.text())
}

// Increment advances the bar one step.
func (p *ProgressBar) Increment() { p.Set(p.Current() + 1) }

// Func adapts the bar to a (done, total) progress callback. The bar adopts
// each reported total.
func (p *ProgressBar) Func() func(done, total int) {
	return func(done, total int) {
		if total > 0 {
			p.mu.Lock()
			p.total = total
			p.mu.Unlock()
		}
		p.Set(done)
	}
}

func (p *ProgressBar) text() string {
	filled := p.current * p.width / p.total
	var b strings.Builder
	if p.msg != "" {
		b.WriteString(p.msg + " ")
	}
	fmt.Fprintf(&b, "[%s%s] %.0f%% (%d/%d)",
		strings.Repeat("█", filled), strings.Repeat("░", p.width-filled),
		float64(p.current)*100/float64(p.total), p.current, p.total)
	if !p.since.IsZero() {
		b.WriteString(" " + formatElapsed(time.Since(p.since)))
	}
	return b.String()
}

// Complete stops the bar with a "✓ message (elapsed)" line. An empty
// message reads "<Message> complete".
func (p *ProgressBar) Complete(message string) { p.end(true, message) }

// Fail stops the bar with a "✗ message (elapsed)" line.
func (p *ProgressBar) Fail(message string) { p.end(false, message) }

func (p *ProgressBar) end(ok bool, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if message == "" {
		message = p.msg + " complete"
	}
	var elapsed time.Duration
	if !p.since.IsZero() {
		elapsed = time.Since(p.since)
		if p.line.tty {
			p.line.erase()
			p.line.cursor(true)
		}
	}
	p.since = time.Time{}
	p.line.result(ok, message, elapsed)
}
