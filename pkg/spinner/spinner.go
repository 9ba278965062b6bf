// Package spinner shows terminal feedback for dataset loads and exports: an
// animated spinner for work of unknown length and a progress bar for chunked
// exports. On a non-terminal writer both fall back to plain status lines.
package spinner

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Frames are the animation characters.
var Frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Config configures a Spinner.
type Config struct {
	Message     string
	RefreshRate time.Duration // default 80ms
	Writer      io.Writer     // default os.Stderr

	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// Spinner animates a message while work of unknown length runs.
type Spinner struct {
	mu    sync.Mutex
	line  statusLine
	msg   string
	rate  time.Duration
	since time.Time
	tick  int

	stop chan struct{}
	done chan struct{}
}

// New creates a spinner on stderr.
func New(message string) *Spinner {
	return NewWithConfig(Config{Message: message})
}

// NewWithConfig creates a spinner from cfg.
func NewWithConfig(cfg Config) *Spinner {
	rate := cfg.RefreshRate
	if rate <= 0 {
		rate = 80 * time.Millisecond
	}
	return &Spinner{line: newStatusLine(cfg.Writer, cfg.IsTTY), msg: cfg.Message, rate: rate}
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

// IsActive reports whether the spinner is running.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.since.IsZero()
}

// Update changes the message of a running spinner.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.msg = message
	s.mu.Unlock()
}

// Start begins the animation. A running spinner ignores it. Without a
// terminal the message is printed once.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.since.IsZero() {
		return
	}
	s.since = time.Now()
	s.tick = 0
	if !s.line.tty {
		s.line.show(s.msg + "...")
		return
	}
	s.line.cursor(false)
	s.stop, s.done = make(chan struct{}), make(chan struct{})
	go s.animate(s.stop, s.done)
}

func (s *Spinner) animate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(s.rate)
	defer t.Stop()
	for {
		s.frame()
		select {
		case <-stop:
			return
		case <-t.C:
		}
	}
}

func (s *Spinner) frame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.since.IsZero() {
		return
	}
	f := Frames[s.tick%len(Frames)]
	s.tick++
	s.line.show(fmt.Sprintf("%s %s %s", f, s.msg, formatElapsed(time.Since(s.since))))
}

// Stop halts the animation and clears its line.
func (s *Spinner) Stop() { s.halt() }

// Success stops the spinner with a "✓ message (elapsed)" line. An empty
// message reuses the spinner's.
func (s *Spinner) Success(message string) { s.end(true, message) }

// Fail stops the spinner with a "✗ message (elapsed)" line.
func (s *Spinner) Fail(message string) { s.end(false, message) }

// halt stops the animation goroutine and returns how long it ran.
func (s *Spinner) halt() time.Duration {
	s.mu.Lock()
	if s.since.IsZero() {
		s.mu.Unlock()
		return 0
	}
	elapsed := time.Since(s.since)
	s.since = time.Time{}
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return elapsed
	}
	close(stop)
	<-done
	s.mu.Lock()
	s.line.erase()
	s.line.cursor(true)
	s.mu.Unlock()
	return elapsed
}

func (s *Spinner) end(ok bool, message string) {
	elapsed := s.halt()
	s.mu.Lock()
	defer s.mu.Unlock()
	if message == "" {
		message = s.msg
	}
	s.line.result(ok, message, elapsed)
}
