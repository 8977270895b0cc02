// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/buffos/go-bitfield/bitfield"
)

// Version is set at build time.
var Version = "dev"

var supportedFormats = map[string]bool{"svg": true, "html": true, "png": true, "jpg": true, "jpeg": true}

// options holds the render command flags.
type options struct {
	output     string
	configPath string
	lanes      int
	bits       int
	compact    bool
	hflip      bool
	vflip      bool
	uneven     bool
	beautify   bool
	trim       float64
	raster     string
	verbose    bool
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		os.Exit(runServe(os.Args[2:]))
	}
	os.Exit(run(os.Args[1:], os.Stdout))
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("bitfield", flag.ContinueOnError)
	fs.StringVar(&opts.output, "o", "", "Output file path (default: stdout)")
	fs.StringVar(&opts.configPath, "config", "", "Config file (YAML, JSON or JSON5)")
	fs.IntVar(&opts.lanes, "lanes", 1, "Number of lanes")
	fs.IntVar(&opts.bits, "bits", 0, "Total bit count override, must be > 4 (default: sum of field widths)")
	fs.BoolVar(&opts.compact, "compact", false, "Compact layout")
	fs.BoolVar(&opts.hflip, "hflip", false, "Draw bit 0 on the left")
	fs.BoolVar(&opts.vflip, "vflip", false, "Draw lane 0 at the top")
	fs.BoolVar(&opts.uneven, "uneven", false, "Shorten the last lane to the bits it holds")
	fs.BoolVar(&opts.beautify, "beautify", false, "Indent the SVG output")
	fs.Float64Var(&opts.trim, "trim", 0, "Estimated character width used to trim long names (0: off)")
	fs.StringVar(&opts.raster, "raster", rasterChrome, "Rasterizer for png/jpg: chrome or native")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose (debug) logging")
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [flags] <fields.json|json5|yaml> <format>\n", fs.Name())
		fmt.Fprintf(out, "       %s serve [-addr :8080] [-v]\n", fs.Name())
		fmt.Fprintln(out, "\nArguments:")
		fmt.Fprintln(out, "  <fields>          Path to the field list.")
		fmt.Fprintln(out, "  <format>          Output format (svg, html, png, jpg/jpeg).")
		fmt.Fprintln(out, "\nFlags:")
		fs.PrintDefaults()
	}
	return fs
}

// applyFlags overrides config values with the flags that were set
// explicitly, so a config file keeps its values otherwise.
func applyFlags(fs *flag.FlagSet, opts *options, cfg *bitfield.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lanes":
			cfg.Lanes = opts.lanes
		case "bits":
			bits := opts.bits
			cfg.Bits = &bits
		case "compact":
			cfg.Compact = opts.compact
		case "hflip":
			cfg.HFlip = opts.hflip
		case "vflip":
			cfg.VFlip = opts.vflip
		case "uneven":
			cfg.Uneven = opts.uneven
		case "beautify":
			cfg.Beautify = opts.beautify
		case "trim":
			cfg.TrimCharWidth = opts.trim
		}
	})
}

// run executes the render command and returns the process exit code.
func run(args []string, stdout io.Writer) int {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	fieldsFile := fs.Arg(0)
	format := strings.ToLower(fs.Arg(1))

	log := newLogger(opts.verbose)
	defer log.Sync() //nolint:errcheck
	bitfield.SetLogger(log.Named("bitfield"))

	if err := render(context.Background(), log, fs, &opts, fieldsFile, format, stdout); err != nil {
		log.Error("render failed", zap.String("format", format), zap.Error(err))
		return 1
	}
	return 0
}

func render(ctx context.Context, log *zap.Logger, fs *flag.FlagSet, opts *options, fieldsFile, format string, stdout io.Writer) (err error) {
	if !supportedFormats[format] {
		return fmt.Errorf("unsupported export format '%s'; supported formats: svg, html, png, jpg/jpeg", format)
	}
	binary := format != "svg" && format != "html"
	if binary && opts.output == "" && isTerminal(stdout) {
		return fmt.Errorf("refusing to write %s data to a terminal; use -o or redirect stdout", strings.ToUpper(format))
	}

	log.Info("reading fields file", zap.String("path", fieldsFile))
	fields, err := loadFields(fieldsFile)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(fs, opts, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Debug("inputs validated",
		zap.Int("fields", len(fields)),
		zap.Int("lanes", cfg.Lanes),
		zap.Bool("compact", cfg.Compact))

	out := stdout
	if opts.output != "" {
		f, createErr := os.Create(opts.output)
		if createErr != nil {
			return fmt.Errorf("creating output file '%s': %w", opts.output, createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("closing output file '%s': %w", opts.output, closeErr)
			}
			if err != nil {
				log.Warn("removing incomplete output file", zap.String("path", opts.output))
				if removeErr := os.Remove(opts.output); removeErr != nil {
					log.Warn("could not remove output file", zap.String("path", opts.output), zap.Error(removeErr))
				}
			}
		}()
		out = f
	}

	svg, err := bitfield.Render(fields, cfg)
	if err != nil {
		return fmt.Errorf("SVG generation failed: %w", err)
	}

	switch format {
	case "svg":
		_, err = io.WriteString(out, svg)
	case "html":
		title := strings.TrimSuffix(filepath.Base(fieldsFile), filepath.Ext(fieldsFile))
		_, err = io.WriteString(out, generateHTML(title, svg, cfg))
	default:
		err = generateImage(ctx, log, svg, format, opts.raster, out)
	}
	if err != nil {
		return fmt.Errorf("writing %s output: %w", format, err)
	}

	log.Info("generated output", zap.String("format", strings.ToUpper(format)), zap.String("output", outputName(opts.output)))
	return nil
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
