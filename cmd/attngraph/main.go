// attngraph - Interactive attention graph visualizer
//
// attngraph serves multi-layer attention datasets as live, scrollable node
// graphs and drives the same views from a terminal shell.
//
// Commands:
//   - serve:    HTTP + WebSocket server for live views and slice endpoints
//   - shell:    interactive REPL over one view
//   - export:   write attnbin files, subsets or chunk directories
//   - estimate: print export size estimates
//   - render:   write a static SVG or HTML snapshot
//   - inspect:  print an attnbin header and section layout
//   - init:     write a default config file
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/r3d91ll/attngraph/pkg/api"
	"github.com/r3d91ll/attngraph/pkg/attnbin"
	"github.com/r3d91ll/attngraph/pkg/config"
	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
	"github.com/r3d91ll/attngraph/pkg/export"
	"github.com/r3d91ll/attngraph/pkg/markup"
	"github.com/r3d91ll/attngraph/pkg/shell"
	"github.com/r3d91ll/attngraph/pkg/view"
)

const version = "0.3.0"

const usage = `Usage: attngraph <command> [flags]

Commands:
  serve      Serve live views and dataset endpoints
  shell      Start the interactive shell
  export     Write a dataset as attnbin (full, subset or chunked)
  estimate   Print export size estimates
  render     Write an SVG or HTML snapshot of a view
  inspect    Print an attnbin header and section layout
  init       Write a default config file
  version    Show version

Run 'attngraph <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		err = runServe(args)
	case "shell":
		err = runShell(args)
	case "export":
		err = runExport(args)
	case "estimate":
		err = runEstimate(args)
	case "render":
		err = runRender(args)
	case "inspect":
		err = runInspect(args)
	case "init":
		err = runInit(args)
	case "version", "-version", "--version":
		fmt.Printf("attngraph %s\n", version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		errors.Display(err)
		os.Exit(1)
	}
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "Config file path (default: ./attngraph.yaml)")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	return cfg, path, err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// openDataset resolves a configured name or a file path and decodes it.
func openDataset(cfg *config.Config, target string) (*dataset.Dataset, error) {
	if target == "" {
		return nil, errors.Command(errors.ErrCommandMissingArgs, "no dataset given").
			WithSuggestion("Pass a configured dataset name or an .attnbin path")
	}
	path := target
	if p, ok := cfg.Datasets[target]; ok {
		path = p
	}
	f, err := attnbin.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Dataset()
}

func apiConfig(c config.ServerConfig) *api.ServerConfig {
	return &api.ServerConfig{
		Host:          c.Host,
		Port:          c.Port,
		ReadTimeout:   c.ReadTimeout,
		WriteTimeout:  c.WriteTimeout,
		IdleTimeout:   c.IdleTimeout,
		CORSOrigins:   c.CORSOrigins,
		EnableLogging: c.EnableLogging,
		EnableMetrics: c.EnableMetrics,
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := configFlag(fs)
	host := fs.String("host", "", "Interface to bind (overrides config)")
	port := fs.Int("port", 0, "Port to listen on (overrides config)")
	fs.Parse(args)

	cfg, path, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	catalog := api.NewCatalog(cfg.Datasets)
	server := api.NewServer(apiConfig(cfg.Server), catalog, view.Options{Layout: cfg.Layout, Settings: cfg.View})

	fmt.Printf("Config:   %s\n", describeConfig(path))
	fmt.Printf("Datasets: %s\n", strings.Join(cfg.DatasetNames(), ", "))
	if err := server.Start(); err != nil {
		return err
	}
	fmt.Printf("Listening on http://%s (views at /view/<dataset>)\n", server.Address())

	ctx, cancel := signalContext()
	defer cancel()
	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return server.Shutdown(shutdownCtx)
}

func describeConfig(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return "(using defaults, run 'attngraph init' to create)"
}

func runShell(args []string) error {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(args)

	cfg, path, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	fmt.Println("attngraph shell")
	fmt.Printf("Config: %s\n\n", describeConfig(path))

	homeDir, _ := os.UserHomeDir()
	sh := shell.New(shell.Config{
		HistoryFile: filepath.Join(homeDir, ".attngraph_history"),
		Datasets:    cfg.Datasets,
		Layout:      cfg.Layout,
		View:        cfg.View,
		ChunkSize:   cfg.Export.ChunkSize,
		Color:       errors.IsTTY(os.Stdout),
	})

	if fs.NArg() > 0 {
		if err := sh.Load(fs.Arg(0)); err != nil {
			errors.Display(err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := sh.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	fmt.Println("Goodbye!")
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := configFlag(fs)
	out := fs.String("out", "", "Output directory (default: export.output_dir)")
	fp16 := fs.Bool("fp16", false, "Store layers as float16")
	chunk := fs.Int("chunk", 0, "Write chunk files of this many batches plus a manifest")
	batches := fs.String("batches", "", "Comma-separated batch indices for a subset export")
	fs.Parse(args)

	cfg, _, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	d, err := openDataset(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	dir := *out
	if dir == "" {
		dir = cfg.Export.OutputDir
	}
	name := strings.TrimSuffix(filepath.Base(fs.Arg(0)), ".attnbin")
	w := export.NewWriter(dir)

	switch {
	case *chunk > 0:
		m, err := w.ExportChunked(d, *chunk, *fp16 || cfg.Export.FP16)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d chunks to %s (manifest %s)\n", len(m.Chunks), dir, m.ShortHash())
	case *batches != "":
		idx, err := parseBatches(*batches)
		if err != nil {
			return err
		}
		path, err := w.ExportSubset(name+"_subset.attnbin", d, idx, *fp16)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
	default:
		path, err := w.Export(name+".attnbin", d, *fp16)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

func parseBatches(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Validationf(errors.ErrInvalidValue, "bad batch index %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func runEstimate(args []string) error {
	fs := flag.NewFlagSet("estimate", flag.ExitOnError)
	n := fs.Int("n", 0, "Entities")
	b := fs.Int("b", 0, "Batches")
	h := fs.Int("h", 0, "Heads per layer")
	l := fs.Int("l", 0, "Layers")
	fp16 := fs.Bool("fp16", true, "Estimate float16 layers")
	fs.Parse(args)

	if *n == 0 && *b == 0 && *h == 0 && *l == 0 {
		return export.WriteEstimates(os.Stdout, export.DefaultScenarios())
	}
	if *n <= 0 || *b <= 0 || *h <= 0 || *l <= 0 {
		return errors.Validation(errors.ErrInvalidValue, "n, b, h and l must all be positive")
	}
	_, err := export.WriteEstimate(os.Stdout, export.Scenario{N: *n, B: *b, H: *h, L: *l, FP16: *fp16})
	return err
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	cfgPath := configFlag(fs)
	out := fs.String("out", "view.html", "Output file (.html or .svg)")
	batch := fs.Int("batch", 0, "Batch to show")
	slider := fs.Int("threshold", -1, "Threshold slider for every layer (0-1000)")
	fs.Parse(args)

	cfg, _, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	d, err := openDataset(cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	e, err := view.New(d, view.Options{Layout: cfg.Layout, Settings: cfg.View})
	if err != nil {
		return err
	}
	e.Dispatch(view.BatchChanged(*batch))
	if *slider >= 0 {
		for l := 0; l < d.Dims().L; l++ {
			e.Dispatch(view.ThresholdChanged(l, *slider))
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to create file").WithContext("path", *out)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(*out), ".svg") {
		_, err = markup.NewSVGBuilder(e.Scene(), e.Geometry(), markup.DefaultSVGConfig()).WriteTo(f)
	} else {
		err = markup.WritePage(f, e.Scene(), e.Geometry(), markup.PageOptions{
			Title:          strings.TrimSuffix(filepath.Base(fs.Arg(0)), ".attnbin"),
			ViewportHeight: e.Settings().ViewportHeight,
		})
	}
	if err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to render view").WithContext("path", *out)
	}
	fmt.Printf("Wrote %s\n", *out)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.Command(errors.ErrCommandMissingArgs, "usage: attngraph inspect <file.attnbin>")
	}

	f, err := attnbin.OpenFile(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	h := f.Header()
	fmt.Printf("File:    %s (%d bytes)\n", fs.Arg(0), f.Size())
	fmt.Printf("Format:  %s, dtype %s\n", h.Format, h.Dtype.Normalize())
	fmt.Println(f.Layout().Summary())
	if h.N > 0 {
		fmt.Printf("  First entity: %s (%s)\n", h.ReactionIDs[0], h.FullNames[0])
	}
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(args)

	path := *cfgPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.InitConfig(path); err != nil {
		return err
	}
	fmt.Printf("Config initialized at: %s\n", path)
	fmt.Println("Add datasets under 'datasets:' to serve or load them by name.")
	return nil
}
