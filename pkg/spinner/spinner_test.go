package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a goroutine-safe bytes.Buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func boolPtr(v bool) *bool { return &v }

// -----------------------------------------------------------------------------
// Spinner Tests
// -----------------------------------------------------------------------------

func TestSpinner_NonTTY(t *testing.T) {
	var buf bytes.Buffer
	s := NewWithConfig(Config{Message: "Loading demo", Writer: &buf})

	s.Start()
	if !s.IsActive() {
		t.Fatal("spinner should be active after Start")
	}
	s.Start() // no-op
	s.Success("Loaded demo")

	out := buf.String()
	if strings.Count(out, "Loading demo...") != 1 {
		t.Errorf("start line should be printed once, got %q", out)
	}
	if !strings.Contains(out, "✓ Loaded demo (") {
		t.Errorf("missing success line in %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Error("non-TTY output must not contain escape codes")
	}
}

func TestSpinner_TTYAnimates(t *testing.T) {
	buf := &syncBuffer{}
	s := NewWithConfig(Config{Message: "Decoding", Writer: buf, RefreshRate: 5 * time.Millisecond, IsTTY: boolPtr(true)})

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Update("Decoding layers")
	time.Sleep(20 * time.Millisecond)
	s.Fail("")

	out := buf.String()
	for _, want := range []string{hideCursor, showCursor, "Decoding layers", colorRed + symbolFailure + colorReset} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if s.IsActive() {
		t.Error("spinner should stop on Fail")
	}
}

func TestSpinner_StopIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := NewWithConfig(Config{Message: "x", Writer: &buf})
	s.Stop()
	s.Start()
	s.Stop()
	s.Stop()
	if s.IsActive() {
		t.Error("spinner should be stopped")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1200 * time.Millisecond, "(1.2s)"},
		{90 * time.Second, "(1m 30s)"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// -----------------------------------------------------------------------------
// Progress Bar Tests
// -----------------------------------------------------------------------------

func TestProgress_NonTTYLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressWithConfig(ProgressConfig{Total: 4, Message: "chunks", Width: 8, Writer: &buf})

	p.Start()
	p.Increment()
	p.Set(10) // clamped
	p.Complete("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "chunks [░░░░░░░░] 0% (0/4)") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "chunks [██░░░░░░] 25% (1/4)") {
		t.Errorf("second line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "chunks [████████] 100% (4/4)") {
		t.Errorf("third line = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "✓ chunks complete") {
		t.Errorf("last line = %q", lines[3])
	}
}

func TestProgress_Func(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressWithConfig(ProgressConfig{Total: 1, Writer: &buf, Width: 10})
	p.Start()

	f := p.Func()
	f(2, 5)
	if p.Total() != 5 || p.Current() != 2 {
		t.Errorf("got %d/%d, want 2/5", p.Current(), p.Total())
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		cols, msg, want int
	}{
		{0, 10, defaultBarWidth},
		{200, 10, maxBarWidth},
		{50, 10, 10},
		{60, 10, 20},
	}
	for _, tt := range tests {
		if got := barWidth(tt.cols, tt.msg); got != tt.want {
			t.Errorf("barWidth(%d, %d) = %d, want %d", tt.cols, tt.msg, got, tt.want)
		}
	}
}
