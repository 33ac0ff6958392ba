package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/orizon-verify/internal/cli"
	"github.com/orizon-lang/orizon-verify/internal/config"
	"github.com/orizon-lang/orizon-verify/internal/diagnostic"
	"github.com/orizon-lang/orizon-verify/internal/loader"
	"github.com/orizon-lang/orizon-verify/internal/prelude"
	"github.com/orizon-lang/orizon-verify/internal/translator"
	"github.com/orizon-lang/orizon-verify/internal/watch"
)

const toolName = "orizon-verify"

// orizon-verify translates resolved programs into Boogie.
// Flags:
//
//	-config      options file (.yaml, .yml or .json)
//	-o           write <name>.bpl files into this directory instead of stdout
//	-watch       re-translate inputs when they change
//	-json-diags  print diagnostics (and -version) as JSON
//	-version     print version information
//
// The exit code is 1 when a declaration failed to translate or an input
// could not be loaded, and 2 on usage errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type driver struct {
	opts      config.Options
	outDir    string
	jsonDiags bool
	log       *cli.Logger
	stdout    io.Writer
	stderr    io.Writer
}

// result is the outcome for one input file.
type result struct {
	path  string
	text  string
	diags *diagnostic.DiagnosticEngine
	err   error
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "options file (.yaml, .yml or .json)")
	outDir := fs.String("o", "", "write <name>.bpl files into this directory")
	watchMode := fs.Bool("watch", false, "re-translate inputs when they change")
	jsonDiags := fs.Bool("json-diags", false, "print diagnostics as JSON")
	showVersion := fs.Bool("version", false, "print version information")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [-config file] [-o dir] [-watch] [-json-diags] [-version] file...\n", toolName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		info := cli.GetVersionInfo()
		if v, err := prelude.Version(); err == nil {
			info.Prelude = v.String()
		}
		cli.PrintVersion(stdout, toolName, info, *jsonDiags)
		return 0
	}

	opts := config.Default()
	if *configPath != "" {
		var err error
		if opts, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	d := &driver{
		opts:      opts,
		outDir:    *outDir,
		jsonDiags: *jsonDiags,
		log:       cli.NewLogger(stderr, opts.Level()),
		stdout:    stdout,
		stderr:    stderr,
	}
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	failed := d.runAll(ctx, fs.Args())
	if *watchMode {
		if err := d.watch(ctx, fs.Args()); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if failed {
		return 1
	}
	return 0
}

// runAll translates files in parallel and reports them in argument order.
// It reports whether any of them failed.
func (d *driver) runAll(ctx context.Context, files []string) bool {
	results := make([]*result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = d.translate(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return true
	}

	failed := false
	for _, r := range results {
		if d.report(r) {
			failed = true
		}
	}
	return failed
}

// translate runs a fresh translator over one input.
func (d *driver) translate(path string) *result {
	r := &result{path: path}
	log := d.log.With(filepath.Base(path))
	prog, err := loader.Load(path)
	if err != nil {
		r.err = err
		return r
	}
	log.Debug("loaded %s: %d modules", prog.Name, len(prog.Modules))

	cfg := diagnostic.DefaultConfig()
	cfg.WarningsAsErrors = d.opts.WarningsAsErrors
	r.diags = diagnostic.NewDiagnosticEngine(cfg)
	out, err := translator.New(prog, d.opts, r.diags, log).Translate()
	r.err = err
	if out != nil {
		r.text = out.String()
	}
	return r
}

// report writes the output and diagnostics of r and reports whether r
// failed.
func (d *driver) report(r *result) bool {
	if r.diags == nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", r.err)
		return true
	}

	if r.text != "" {
		if err := d.write(r); err != nil {
			fmt.Fprintf(d.stderr, "Error: %v\n", err)
			return true
		}
	}
	if d.jsonDiags {
		data, err := r.diags.FormatJSON()
		if err == nil {
			fmt.Fprintln(d.stderr, string(data))
		}
	} else if text := r.diags.FormatDiagnostics(); text != "" {
		fmt.Fprint(d.stderr, text)
	}
	if r.err != nil {
		fmt.Fprintf(d.stderr, "Error: %s: %v\n", r.path, r.err)
		return true
	}
	return r.diags.HasErrors()
}

func (d *driver) write(r *result) error {
	if d.outDir == "" {
		_, err := io.WriteString(d.stdout, r.text)
		return err
	}
	base := strings.TrimSuffix(filepath.Base(r.path), filepath.Ext(r.path))
	target := filepath.Join(d.outDir, base+".bpl")
	if err := os.WriteFile(target, []byte(r.text), 0o644); err != nil {
		return err
	}
	d.log.Info("wrote %s", target)
	return nil
}

// watch re-translates a file whenever it is written.
func (d *driver) watch(ctx context.Context, files []string) error {
	w, err := watch.New(files)
	if err != nil {
		return err
	}
	defer w.Close()
	d.log.Info("watching %d files", w.Len())

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Changes():
			if !ok {
				return nil
			}
			d.log.Info("%s changed", path)
			d.runAll(ctx, []string{path})
		case err := <-w.Errors():
			d.log.Warn("watch: %v", err)
		}
	}
}
