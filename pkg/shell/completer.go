package shell

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/samber/lo"

	"github.com/r3d91ll/attngraph/pkg/help"
)

// CompletionSource supplies the dynamic candidates for argument completion.
type CompletionSource interface {
	DatasetNames() []string
	EntityIDs() []string
}

// ShellCompleter completes command names and, for commands that take
// them, dataset names, entity ids and file paths.
type ShellCompleter struct {
	source CompletionSource
}

// NewShellCompleter creates a completer backed by source. A nil source
// completes commands only.
func NewShellCompleter(source CompletionSource) *ShellCompleter {
	return &ShellCompleter{source: source}
}

var _ readline.AutoCompleter = (*ShellCompleter)(nil)

// Do implements readline.AutoCompleter. It returns candidate suffixes and
// the length of the word being completed.
func (c *ShellCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if len(line) == 0 || pos <= 0 {
		return nil, 0
	}
	if pos > len(line) {
		pos = len(line)
	}

	text := string(line[:pos])
	wordStart := findWordStart(text)
	word := text[wordStart:]

	if wordStart == 0 {
		if !strings.HasPrefix(word, "/") {
			return nil, 0
		}
		names := lo.Map(help.Names(), func(n string, _ int) string { return "/" + n })
		return complete(word, names), len(word)
	}

	fields := strings.Fields(text[:wordStart])
	cmd, ok := help.GetCommand(fields[0])
	if !ok {
		return nil, 0
	}
	switch cmd.Complete {
	case help.ArgDataset:
		if c.source == nil {
			return nil, 0
		}
		return complete(word, c.source.DatasetNames()), len(word)
	case help.ArgEntity:
		if c.source == nil {
			return nil, 0
		}
		return complete(word, c.source.EntityIDs()), len(word)
	case help.ArgFile:
		return complete(word, listPaths(word)), len(word)
	}
	return nil, 0
}

// findWordStart returns the index after the last space or tab.
func findWordStart(s string) int {
	return strings.LastIndexAny(s, " \t") + 1
}

// complete returns the suffixes of candidates that extend prefix.
func complete(prefix string, candidates []string) [][]rune {
	var out [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, prefix) {
			suffix := cand[len(prefix):]
			if !strings.HasSuffix(cand, "/") {
				suffix += " "
			}
			out = append(out, []rune(suffix))
		}
	}
	return out
}

// listPaths lists the entries of the directory part of prefix. Directories
// carry a trailing slash so completion can continue into them.
func listPaths(prefix string) []string {
	dir, base := filepath.Split(prefix)
	readDir := dir
	if readDir == "" {
		readDir = "."
	}
	entries, err := os.ReadDir(readDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		out = append(out, dir+name)
	}
	sort.Strings(out)
	return out
}
