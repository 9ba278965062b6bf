package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/r3d91ll/attngraph/pkg/errors"
)

// Prompter asks the user to confirm an overwrite.
type Prompter interface {
	Confirm(message string) (bool, error)
}

// yes reports whether answer confirms. Only "y" and "yes" do.
func yes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// InteractivePrompter reads one answer line per question.
type InteractivePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewInteractivePrompter prompts on stdout and reads stdin.
func NewInteractivePrompter() *InteractivePrompter {
	return NewInteractivePrompterWithIO(os.Stdin, os.Stdout)
}

func NewInteractivePrompterWithIO(r io.Reader, w io.Writer) *InteractivePrompter {
	return &InteractivePrompter{in: bufio.NewReader(r), out: w}
}

// Confirm prints message with a [y/N] hint. End of input declines.
func (p *InteractivePrompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read confirmation")
	}
	return yes(line), nil
}

// readlinePrompter asks through the shell's line editor, so answers do not
// race the editor for stdin. Run resets the prompt after each command.
type readlinePrompter struct {
	rl *readline.Instance
}

func (p readlinePrompter) Confirm(message string) (bool, error) {
	p.rl.SetPrompt(message + " [y/N]: ")
	line, err := p.rl.Readline()
	switch {
	case err == readline.ErrInterrupt || err == io.EOF:
		return false, nil
	case err != nil:
		return false, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read confirmation")
	}
	return yes(line), nil
}

// MockPrompter returns a canned answer and records the prompts it saw.
type MockPrompter struct {
	Response bool
	Error    error
	Prompts  []string
}

func NewMockPrompter(response bool) *MockPrompter {
	return &MockPrompter{Response: response}
}

func (m *MockPrompter) Confirm(message string) (bool, error) {
	m.Prompts = append(m.Prompts, message)
	return m.Response && m.Error == nil, m.Error
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockPrompter) LastPrompt() string {
	if n := len(m.Prompts); n > 0 {
		return m.Prompts[n-1]
	}
	return ""
}
