package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/r3d91ll/attngraph/pkg/chain"
	"github.com/r3d91ll/attngraph/pkg/edges"
	"github.com/r3d91ll/attngraph/pkg/errors"
	"github.com/r3d91ll/attngraph/pkg/export"
	"github.com/r3d91ll/attngraph/pkg/help"
	"github.com/r3d91ll/attngraph/pkg/markup"
	"github.com/r3d91ll/attngraph/pkg/spinner"
	"github.com/r3d91ll/attngraph/pkg/view"
)

// defaultEdgeListing is how many edges /edges prints without a count.
const defaultEdgeListing = 10

func needsDataset(cmd help.Command) bool {
	switch cmd.Category {
	case help.CategoryData:
		return cmd.Name == "/info"
	case help.CategoryGeneral:
		return false
	}
	return true
}

// index parses a non-negative index below bound.
func index(name, arg string, bound int) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Commandf(errors.ErrCommandInvalidArg, "%s must be an integer, got %q", name, arg)
	}
	if v < 0 || v >= bound {
		return 0, errors.OutOfRange(name, v, bound)
	}
	return v, nil
}

// row resolves a row index or an entity id.
func (s *Shell) row(arg string) (int, error) {
	n := s.ds.Dims().N
	if i, ok := s.ds.IndexOf(arg); ok {
		return i, nil
	}
	if _, err := strconv.Atoi(arg); err == nil {
		return index("row", arg, n)
	}
	return 0, errors.Commandf(errors.ErrCommandInvalidArg, "unknown entity %q", arg).
		WithSuggestion("Use /search to find entity ids")
}

// dispatch applies ev and prints what changed.
func (s *Shell) dispatch(ev view.Event) view.Patch {
	p := s.engine.Dispatch(ev)
	if p.Empty() {
		s.printf("(no change)\n")
		return p
	}
	s.printf("patch: +%d -%d ~%d\n", p.Count(view.OpAdd), p.Count(view.OpRemove), p.Count(view.OpUpdate))
	return p
}

func (s *Shell) cmdLoad(args []string) error {
	return s.Load(args[0])
}

func (s *Shell) cmdDatasets([]string) error {
	names := s.DatasetNames()
	if len(names) == 0 {
		s.printf("No datasets configured. /load accepts a file path.\n")
		return nil
	}
	for _, name := range names {
		marker := " "
		if name == s.name {
			marker = "*"
		}
		s.printf("%s %-16s %s\n", marker, name, s.cfg.Datasets[name])
	}
	return nil
}

func (s *Shell) cmdInfo([]string) error {
	dims := s.ds.Dims()
	st := s.engine.State()
	s.printf("Dataset:    %s (%s)\n", s.name, s.dtype)
	s.printf("View:       %s\n", s.engine.ID())
	s.printf("Entities:   %d\n", dims.N)
	s.printf("Batches:    %d (showing %d)\n", dims.B, st.Batch)
	s.printf("Layers:     %d x %d heads\n", dims.L, dims.H)
	for l := 0; l < dims.L; l++ {
		sel := s.engine.Selection(l)
		s.printf("  layer %d: head %d, s=%d, threshold %s, %d edges\n",
			l, st.Heads[l], st.Thresholds[l], edges.FormatThreshold(sel.Threshold), len(sel.Edges))
	}
	if st.Pinned >= 0 {
		s.printf("Pinned:     %s\n", s.ds.ID(st.Pinned))
	}
	if len(st.Chain) > 0 {
		s.printf("Chain:      %d nodes\n", len(st.Chain))
	}
	return nil
}

func (s *Shell) cmdBatch(args []string) error {
	b, err := index("batch", args[0], s.ds.Dims().B)
	if err != nil {
		return err
	}
	s.dispatch(view.BatchChanged(b))
	return nil
}

func (s *Shell) cmdHead(args []string) error {
	dims := s.ds.Dims()
	l, err := index("layer", args[0], dims.L)
	if err != nil {
		return err
	}
	h, err := index("head", args[1], dims.H)
	if err != nil {
		return err
	}
	s.dispatch(view.HeadChanged(l, h))
	return nil
}

func (s *Shell) cmdThresh(args []string) error {
	l, err := index("layer", args[0], s.ds.Dims().L)
	if err != nil {
		return err
	}
	v, err := index("slider", args[1], edges.SliderMax+1)
	if err != nil {
		return err
	}
	s.dispatch(view.ThresholdChanged(l, v))
	sel := s.engine.Selection(l)
	s.printf("threshold %s, %d edges", edges.FormatThreshold(sel.Threshold), len(sel.Edges))
	if sel.Truncated() {
		s.printf(" (capped from %d)", sel.Qualifying)
	}
	s.printf("\n")
	return nil
}

func (s *Shell) cmdEdges(args []string) error {
	l, err := index("layer", args[0], s.ds.Dims().L)
	if err != nil {
		return err
	}
	limit := defaultEdgeListing
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return errors.Commandf(errors.ErrCommandInvalidArg, "edge count must be a positive integer, got %q", args[1])
		}
		limit = n
	}

	sel := s.engine.Selection(l)
	s.printf("layer %d: %d edges at threshold %s\n", l, len(sel.Edges), edges.FormatThreshold(sel.Threshold))
	for _, e := range lo.Slice(sel.Edges, 0, limit) {
		s.printf("  %-12s -> %-12s %s\n", s.ds.ID(e.Row), s.ds.ID(e.Col), edges.Exponential(float64(e.Value), 4))
	}
	if len(sel.Edges) > limit {
		s.printf("  ... %d more\n", len(sel.Edges)-limit)
	}
	return nil
}

func (s *Shell) cmdClick(args []string) error {
	col, err := index("column", args[0], s.ds.Dims().L+1)
	if err != nil {
		return err
	}
	r, err := s.row(args[1])
	if err != nil {
		return err
	}
	s.dispatch(view.NodeClicked(col, r))
	return s.cmdChain(nil)
}

func (s *Shell) cmdChain([]string) error {
	nodes := s.engine.State().Chain
	if len(nodes) == 0 {
		s.printf("Chain is empty.\n")
		return nil
	}
	path := lo.Map(nodes, func(n chain.Node, _ int) string {
		return fmt.Sprintf("%d:%s", n.Column, s.ds.ID(n.Row))
	})
	s.printf("chain: %s\n", strings.Join(path, " -> "))
	for i, seg := range s.engine.Segments() {
		s.printf("  [%d] %s -> %s  %s\n", i, s.ds.ID(seg.FromRow), s.ds.ID(seg.ToRow), seg.Label)
	}
	return nil
}

func (s *Shell) cmdPin(args []string) error {
	r, err := s.row(args[0])
	if err != nil {
		return err
	}
	s.dispatch(view.NameBarClicked(r))
	if pinned := s.engine.State().Pinned; pinned >= 0 {
		s.printf("pinned %s\n", s.ds.ID(pinned))
	} else {
		s.printf("unpinned\n")
	}
	return nil
}

func (s *Shell) cmdSearch(args []string) error {
	s.engine.Dispatch(view.SearchQueryChanged(strings.Join(args, " ")))
	if len(s.engine.Matches()) == 0 {
		s.printf("No matches.\n")
		return nil
	}
	s.printResults()
	return nil
}

func (s *Shell) searchKey(key string) func([]string) error {
	return func([]string) error {
		before := s.engine.State().Pinned
		s.engine.Dispatch(view.SearchKey(key))
		if pinned := s.engine.State().Pinned; pinned != before && pinned >= 0 {
			s.printf("pinned %s\n", s.ds.ID(pinned))
			return nil
		}
		s.printResults()
		return nil
	}
}

func (s *Shell) printResults() {
	active, visible := s.engine.SearchCursor()
	if !visible {
		return
	}
	for i, m := range s.engine.Matches() {
		cursor := " "
		if i == active {
			cursor = ">"
		}
		s.printf("%s %-12s %s\n", cursor, m.ID, m.Name)
	}
}

func (s *Shell) cmdClear([]string) error {
	s.dispatch(view.SearchCleared())
	return nil
}

// confirmOverwrite asks before replacing an existing file. It reports
// false when the user declines.
func (s *Shell) confirmOverwrite(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return true, nil
	}
	ok, err := s.prompter.Confirm(fmt.Sprintf("%s exists. Overwrite?", path))
	if err != nil {
		return false, err
	}
	if !ok {
		s.printf("Cancelled.\n")
	}
	return ok, nil
}

// writeFile creates path and passes it to write. The close error counts:
// a failed flush on close means the file is incomplete.
func (s *Shell) writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to create file").WithContext("path", path)
	}
	return closeWritten(f, path, write(f))
}

// closeWritten closes c and returns err, or the close error when err is nil.
func closeWritten(c io.Closer, path string, err error) error {
	if cerr := c.Close(); cerr != nil && err == nil {
		return errors.IOWrap(cerr, errors.ErrIOWriteFailed, "failed to close file").WithContext("path", path)
	}
	return err
}

func (s *Shell) cmdRender(args []string) error {
	path := args[0]
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".svg" && ext != ".html" && ext != ".htm" {
		return errors.Commandf(errors.ErrCommandInvalidArg, "unsupported render format %q", ext).
			WithSuggestion("Use a .html or .svg file name")
	}
	if ok, err := s.confirmOverwrite(path); !ok || err != nil {
		return err
	}

	scene, geo := s.engine.Scene(), s.engine.Geometry()
	err := s.writeFile(path, func(w io.Writer) error {
		if ext == ".svg" {
			_, err := markup.NewSVGBuilder(scene, geo, markup.DefaultSVGConfig()).WriteTo(w)
			return err
		}
		return markup.WritePage(w, scene, geo, markup.PageOptions{
			Title:          s.name,
			ViewportHeight: s.engine.Settings().ViewportHeight,
		})
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrIOWriteFailed) {
			return err
		}
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to render view").WithContext("path", path)
	}
	s.printf("Wrote %s (%d elements)\n", path, scene.Count())
	return nil
}

func (s *Shell) cmdCSV(args []string) error {
	l, err := index("layer", args[0], s.ds.Dims().L)
	if err != nil {
		return err
	}
	path := args[1]
	if ok, err := s.confirmOverwrite(path); !ok || err != nil {
		return err
	}

	st := s.engine.State()
	var n int
	err = s.writeFile(path, func(w io.Writer) error {
		var err error
		n, err = export.ExportEdgesToCSV(w, s.ds, l, st.Heads[l], st.Batch, st.Thresholds[l], nil)
		return err
	})
	if err != nil {
		return err
	}
	s.printf("Wrote %d edges to %s\n", n, path)
	return nil
}

func (s *Shell) cmdExport(args []string) error {
	dir := args[0]
	fp16 := false
	chunk := 0
	for _, opt := range args[1:] {
		switch {
		case opt == "fp16":
			fp16 = true
		case opt == "chunk":
			chunk = s.cfg.ChunkSize
		case strings.HasPrefix(opt, "chunk="):
			n, err := strconv.Atoi(strings.TrimPrefix(opt, "chunk="))
			if err != nil || n <= 0 {
				return errors.Commandf(errors.ErrCommandInvalidArg, "chunk size must be a positive integer, got %q", opt)
			}
			chunk = n
		default:
			return errors.Commandf(errors.ErrCommandInvalidArg, "unknown export option %q", opt).
				WithSuggestion("Options are fp16 and chunk=<n>")
		}
	}

	if chunk <= 0 {
		name := s.name + ".attnbin"
		if ok, err := s.confirmOverwrite(filepath.Join(dir, name)); !ok || err != nil {
			return err
		}
		path, err := export.NewWriter(dir, export.WithLogger(s.cfg.Logger)).Export(name, s.ds, fp16)
		if err != nil {
			return err
		}
		s.printf("Wrote %s\n", path)
		return nil
	}

	if ok, err := s.confirmOverwrite(filepath.Join(dir, export.ManifestName)); !ok || err != nil {
		return err
	}
	b := s.ds.Dims().B
	bar := spinner.NewProgressWithConfig(spinner.ProgressConfig{
		Total:   (b + chunk - 1) / chunk,
		Message: "Exporting chunks",
		Writer:  s.out,
	})
	bar.Start()
	w := export.NewWriter(dir, export.WithLogger(s.cfg.Logger), export.WithProgress(bar.Func()))
	m, err := w.ExportChunked(s.ds, chunk, fp16)
	if err != nil {
		bar.Fail("Export failed")
		return err
	}
	bar.Complete(fmt.Sprintf("Wrote %d chunks to %s (manifest %s)", len(m.Chunks), dir, m.ShortHash()))
	return nil
}

func (s *Shell) cmdHelp(args []string) error {
	r := help.NewPlainRenderer(s.out)
	if s.cfg.Color {
		r = help.NewRenderer(s.out)
	}
	if len(args) == 0 {
		r.RenderFull()
		return nil
	}
	if !r.RenderCommand(args[0]) {
		return errors.Commandf(errors.ErrCommandNotFound, "unknown command %s", args[0])
	}
	return nil
}
