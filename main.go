package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/mcncl/jsonsieve/internal/analyzer"
	"github.com/mcncl/jsonsieve/internal/config"
	"github.com/mcncl/jsonsieve/internal/errors"
	"github.com/mcncl/jsonsieve/internal/extract"
	"github.com/mcncl/jsonsieve/internal/formatter"
	"github.com/mcncl/jsonsieve/internal/generator"
	"github.com/mcncl/jsonsieve/internal/models"
	"github.com/mcncl/jsonsieve/internal/parser"
	"github.com/mcncl/jsonsieve/internal/policy"
	"github.com/mcncl/jsonsieve/internal/source"
)

// CLI defines the command-line interface
var CLI struct {
	Input          string   `help:"Input JSON: a file path, an http(s) URL, or - for stdin." short:"i" default:"-"`
	Output         string   `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Config         string   `help:"Path to config file. Defaults to the nearest .jsonsieve.yml." short:"c" type:"path"`
	Selector       string   `help:"Key of the entity to keep under each trigger container." short:"s"`
	SelectorFormat string   `help:"How entity keys are compared: raw or uuid." name:"selector-format"`
	Preset         string   `help:"Built-in skip configuration to start from."`
	Blacklist      []string `help:"Member name to drop everywhere. Repeatable."`
	Trigger        string   `help:"Path pattern of the collection container for an extra scoped rule."`
	Allow          []string `help:"Path kept inside non-selected entities of --trigger. Repeatable."`
	Compression    string   `help:"Input compression: auto, none, gzip, zstd or lz4."`
	Format         string   `help:"Output format: paths or summary."`
	Digest         bool     `help:"Include the xxhash digest of the extracted tree."`
	Debug          bool     `help:"Enable debug logging." short:"d"`
	Version        bool     `help:"Show version information." short:"v"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
	Logger *slog.Logger
	Ctx    context.Context // cancelled on interrupt
	Stdin  io.Reader
	Stdout io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	cli := kong.Must(&CLI,
		kong.Name("jsonsieve"),
		kong.Description("Extract a selected subset of a large JSON document in one streaming pass"),
		kong.UsageOnError(),
	)

	if _, err := cli.Parse(os.Args[1:]); err != nil {
		// usage is already shown by kong.UsageOnError()
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("jsonsieve version %s\n", Version)
		return
	}

	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, config.CLIOverrides{
		Selector:       CLI.Selector,
		SelectorFormat: CLI.SelectorFormat,
		Preset:         CLI.Preset,
		Blacklist:      CLI.Blacklist,
		Trigger:        CLI.Trigger,
		Allow:          CLI.Allow,
		Compression:    CLI.Compression,
		Format:         CLI.Format,
		Digest:         CLI.Digest,
		Debug:          CLI.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, cfg.Dev.Debug)
	if configPath != "" {
		logger.Debug("loaded config", "path", configPath)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(&Context{
		Debug:  cfg.Dev.Debug,
		Config: cfg,
		Logger: logger,
		Ctx:    sigCtx,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonsieve --help\n")
		stop()
		os.Exit(1)
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// run executes the main program logic
func run(ctx *Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if ctx.Logger == nil {
		ctx.Logger = newLogger(io.Discard, false)
	}
	logger := ctx.Logger
	base := ctx.Ctx
	if base == nil {
		base = context.Background()
	}

	// 1. Resolve the selector, falling back to the URL's uuid parameter
	if cfg.Selector == "" {
		if sel, ok := source.SelectorFromURL(CLI.Input); ok {
			logger.Debug("selector taken from URL", "selector", sel)
			cfg.Selector = sel
		}
	}

	// 2. Compile the skip policy
	pol, err := policy.Compile(cfg.PolicyConfig(), cfg.PolicySelector())
	if err != nil {
		return errors.NewConfigError("invalid skip configuration", err)
	}

	// 3. Open the input
	compression, err := source.ParseCompression(cfg.Input.Compression)
	if err != nil {
		return err
	}
	rc, err := source.Open(base, CLI.Input, source.Options{
		Compression: compression,
		Timeout:     cfg.Input.Timeout,
		MaxBytes:    cfg.Input.MaxBytes,
		Limiter:     source.NewLimiter(cfg.Input.RateLimit),
		Stdin:       ctx.Stdin,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	// 4. Extract
	res, err := parser.Parse(rc, extract.New(pol, extract.WithLogger(logger)))
	if err != nil {
		return err
	}
	logger.Debug("skipped values",
		"blacklist", res.Stats.SkippedBy[policy.ReasonBlacklist],
		"scope", res.Stats.SkippedBy[policy.ReasonScope],
		"drop", res.Stats.SkippedBy[policy.ReasonDrop],
	)

	// 5. Render the whole output before writing so failures leave nothing behind
	return writeOutput(ctx, render(cfg, res.Value))
}

func render(cfg *config.Config, v models.Value) string {
	f := formatter.NewFormatter()
	if cfg.Output.Format == "summary" {
		return f.FormatSummary(analyzer.Analyze(v), cfg.Output.Digest)
	}

	out := f.Format(generator.NewGenerator().Generate(v))
	if cfg.Output.Digest {
		out += fmt.Sprintf("# digest %s\n", analyzer.Analyze(v).DigestHex())
	}
	return out
}

// writeOutput writes the result to file or stdout
func writeOutput(ctx *Context, out string) error {
	if CLI.Output != "" {
		if err := os.WriteFile(CLI.Output, []byte(out), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		ctx.Logger.Debug("output written", "path", CLI.Output, "bytes", len(out))
		return nil
	}

	stdout := ctx.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if _, err := io.WriteString(stdout, out); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
