// Package shell provides an interactive REPL that drives one attention
// view from the terminal. Every command maps onto a view event, so what the
// shell shows is exactly what the live page would draw.
package shell

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/r3d91ll/attngraph/pkg/attnbin"
	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
	"github.com/r3d91ll/attngraph/pkg/help"
	"github.com/r3d91ll/attngraph/pkg/layout"
	"github.com/r3d91ll/attngraph/pkg/spinner"
	"github.com/r3d91ll/attngraph/pkg/view"
)

// Config holds shell configuration.
type Config struct {
	HistoryFile string

	// Datasets maps names to attnbin paths for /load.
	Datasets map[string]string

	Layout layout.Config
	View   view.Settings

	// ChunkSize is the default for /export chunk=.
	ChunkSize int

	// Out receives command output (default os.Stdout).
	Out io.Writer

	// Color enables ANSI styling of help and errors.
	Color bool

	// Prompter confirms overwrites. The default asks through the line
	// editor once Run starts, and reads stdin before that.
	Prompter Prompter

	// Logger receives engine diagnostics (default log.Default()).
	Logger view.Logger
}

// Shell is the interactive command-line interface.
type Shell struct {
	cfg      Config
	out      io.Writer
	prompter Prompter
	errfmt   *errors.Formatter
	rl       *readline.Instance

	name   string
	dtype  string
	ds     *dataset.Dataset
	engine *view.Engine
}

// New creates a shell with no dataset loaded.
func New(cfg Config) *Shell {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	prompter := cfg.Prompter
	if prompter == nil {
		prompter = NewInteractivePrompter()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	errfmt := errors.DefaultFormatter()
	errfmt.UseColor = cfg.Color
	return &Shell{cfg: cfg, out: cfg.Out, prompter: prompter, errfmt: errfmt}
}

// Engine returns the engine of the loaded dataset, or nil.
func (s *Shell) Engine() *view.Engine { return s.engine }

// DatasetNames returns the configured dataset names, sorted.
func (s *Shell) DatasetNames() []string {
	names := make([]string, 0, len(s.cfg.Datasets))
	for name := range s.cfg.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntityIDs returns the ids of the loaded dataset.
func (s *Shell) EntityIDs() []string {
	if s.ds == nil {
		return nil
	}
	return s.ds.IDs()
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

// Run starts the interactive loop.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    NewShellCompleter(s),
	})
	if err != nil {
		return err
	}
	s.rl = rl
	defer rl.Close()
	if s.cfg.Prompter == nil {
		s.prompter = readlinePrompter{rl}
	}

	s.printf("Type /help for commands, /load <name|path> to open a dataset.\n\n")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		if err := s.Execute(line); err != nil {
			if err == errQuit {
				return nil
			}
			s.printf("%s\n", s.errfmt.Format(err))
		}
		rl.SetPrompt(s.prompt())
	}
}

func (s *Shell) prompt() string {
	name := "attngraph"
	if s.name != "" {
		name += ":" + s.name
	}
	if s.cfg.Color {
		return "\033[32m" + name + ">\033[0m "
	}
	return name + "> "
}

var errQuit = fmt.Errorf("quit")

// Execute runs one command line. Blank lines are ignored. It returns
// errQuit for /quit.
func (s *Shell) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return errors.Command(errors.ErrCommandNotFound, "commands start with /").
			WithContext("input", line)
	}

	parts := strings.Fields(line)
	cmd, ok := help.GetCommand(parts[0])
	if !ok {
		return errors.Commandf(errors.ErrCommandNotFound, "unknown command %s", parts[0])
	}
	args := parts[1:]
	if len(args) < cmd.MinArgs {
		return errors.Commandf(errors.ErrCommandMissingArgs, "usage: %s", cmd.Usage).
			WithContext("command", cmd.Name)
	}

	handler, ok := s.handlers()[cmd.Name]
	if !ok {
		return errors.Internal("no handler for " + cmd.Name)
	}
	if needsDataset(cmd) && s.engine == nil {
		return errors.Command(errors.ErrNoDataset, "no dataset loaded").
			WithSuggestion("Use /load <name|path> first")
	}
	return handler(args)
}

func (s *Shell) handlers() map[string]func([]string) error {
	return map[string]func([]string) error{
		"/load":     s.cmdLoad,
		"/datasets": s.cmdDatasets,
		"/info":     s.cmdInfo,
		"/batch":    s.cmdBatch,
		"/head":     s.cmdHead,
		"/thresh":   s.cmdThresh,
		"/edges":    s.cmdEdges,
		"/click":    s.cmdClick,
		"/chain":    s.cmdChain,
		"/pin":      s.cmdPin,
		"/search":   s.cmdSearch,
		"/next":     s.searchKey(view.KeyNext),
		"/prev":     s.searchKey(view.KeyPrev),
		"/enter":    s.searchKey(view.KeyEnter),
		"/esc":      s.searchKey(view.KeyEscape),
		"/clear":    s.cmdClear,
		"/render":   s.cmdRender,
		"/csv":      s.cmdCSV,
		"/export":   s.cmdExport,
		"/help":     s.cmdHelp,
		"/quit":     func([]string) error { return errQuit },
	}
}

// Load opens a configured dataset by name, or an attnbin file by path, and
// builds a fresh view of it.
func (s *Shell) Load(target string) error {
	path, name := target, target
	if p, ok := s.cfg.Datasets[target]; ok {
		path = p
	} else {
		name = strings.TrimSuffix(pathBase(target), ".attnbin")
	}

	spin := spinner.NewWithConfig(spinner.Config{Message: "Loading " + name, Writer: s.out})
	spin.Start()

	f, err := attnbin.OpenFile(path)
	if err != nil {
		spin.Fail("Could not open " + path)
		return err
	}
	defer f.Close()

	d, err := f.Dataset()
	if err != nil {
		spin.Fail("Could not decode " + path)
		return err
	}
	e, err := view.New(d, view.Options{Layout: s.cfg.Layout, Settings: s.cfg.View, Logger: s.cfg.Logger})
	if err != nil {
		spin.Fail("Could not build view")
		return err
	}

	dims := d.Dims()
	spin.Success(fmt.Sprintf("Loaded %s (N=%d B=%d H=%d L=%d, %s)", name, dims.N, dims.B, dims.H, dims.L, f.Header().Dtype.Normalize()))
	s.cfg.Logger.Printf("[shell] loaded %s from %s", name, path)

	s.name, s.dtype, s.ds, s.engine = name, string(f.Header().Dtype.Normalize()), d, e
	return nil
}

// SetDataset installs an in-memory dataset under name.
func (s *Shell) SetDataset(name string, d *dataset.Dataset) error {
	e, err := view.New(d, view.Options{Layout: s.cfg.Layout, Settings: s.cfg.View, Logger: s.cfg.Logger})
	if err != nil {
		return err
	}
	s.name, s.dtype, s.ds, s.engine = name, "memory", d, e
	return nil
}

func pathBase(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
