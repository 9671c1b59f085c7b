// Package main is the pipellm command: it sends one prompt to a language
// model, streams the answer to stdout and grades it into an exit code.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"pipellm/config"
	"pipellm/internal/httpclient"
	"pipellm/internal/logging"
	"pipellm/internal/observability"
	"pipellm/internal/providers"
	"pipellm/internal/step"
	"pipellm/internal/version"

	// Import provider packages to trigger their init() registration
	_ "pipellm/internal/providers/anthropic"
	_ "pipellm/internal/providers/openai"
)

// Exit codes
const (
	exitPass  = 0
	exitFail  = 1
	exitError = 2
	exitUsage = 64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	model       string
	schema      string
	endpoint    string
	system      []string
	pass        string
	configPath  string
	maxTokens   int
	metricsFile string
	logLevel    string
	logFormat   string
	version     bool
}

func newFlagSet(stderr io.Writer, opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pipellm", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.model, "model", "m", config.DefaultModel, `model id; a "anthropic/", "bedrock/" or "openai/" prefix selects the provider`)
	fs.StringVarP(&opts.schema, "schema", "s", "", "provider schema: openai, anthropic or bedrock")
	fs.StringVarP(&opts.endpoint, "endpoint", "e", "", "provider base URL")
	fs.StringArrayVarP(&opts.system, "system", "S", nil, "system prompt (repeatable, order kept)")
	fs.StringVarP(&opts.pass, "pass", "p", "", "JSONata expression over the response; false exits 1")
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	fs.IntVar(&opts.maxTokens, "max-tokens", 0, "response length limit (0 uses the provider default)")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	fs.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", config.DefaultLogFormat, "pretty or json")
	fs.BoolVarP(&opts.version, "version", "v", false, "print version information")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pipellm [flags] [prompt]\n\nReads the prompt from stdin when it is omitted or \"-\".\n\nFlags:\n")
		fs.PrintDefaults()
	}
	return fs
}

// applyFlags overlays the flags the user set on cfg.
func applyFlags(fs *pflag.FlagSet, opts *options, cfg *config.Config) {
	if fs.Changed("model") {
		cfg.Model = opts.model
	}
	if fs.Changed("schema") {
		cfg.Schema = opts.schema
	}
	if fs.Changed("endpoint") {
		cfg.Endpoint = opts.endpoint
	}
	if fs.Changed("system") {
		cfg.System = opts.system
	}
	if fs.Changed("pass") {
		cfg.Pass = opts.pass
	}
	if fs.Changed("max-tokens") {
		cfg.MaxTokens = opts.maxTokens
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(stderr, &opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitPass
		}
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, version.Info())
		return exitPass
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "pipellm: expected at most one prompt argument, got %d\n", fs.NArg())
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "pipellm: %v\n", err)
		return exitUsage
	}
	applyFlags(fs, &opts, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "pipellm: invalid configuration: %v\n", err)
		return exitUsage
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger, err := logging.New(stderr, level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(stderr, "pipellm: %v\n", err)
		return exitUsage
	}
	slog.SetDefault(logger)

	prompt, err := readPrompt(fs.Arg(0), stdin)
	if err != nil {
		logger.Error("failed to read prompt", "error", err)
		return exitError
	}

	metrics := observability.NewMetrics()
	if opts.metricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
				logger.Error("failed to write metrics", "path", opts.metricsFile, "error", err)
			}
		}()
	}

	out := &trackingWriter{w: stdout}
	code := invoke(ctx, cfg, prompt, out, logger, metrics)
	if out.n > 0 && isTerminal(stdout) {
		fmt.Fprintln(stdout)
	}
	return code
}

func invoke(ctx context.Context, cfg *config.Config, prompt string, out io.Writer, logger *slog.Logger, metrics *observability.Metrics) int {
	schema, _ := providers.Resolve(cfg.Schema, cfg.Model)
	logger.Debug("configuration resolved",
		"schema", schema,
		"model", cfg.Model,
		"timeout", time.Duration(cfg.Timeout),
		"system_prompts", len(cfg.System),
	)

	s, err := step.NewBuilder().
		Model(cfg.Model).
		Schema(cfg.Schema).
		Endpoint(cfg.EndpointFor(schema)).
		APIKey(cfg.APIKeyFor(schema)).
		System(cfg.System...).
		Pass(cfg.Pass).
		MaxTokens(cfg.MaxTokens).
		HTTPClient(httpclient.NewWithTimeout(time.Duration(cfg.Timeout))).
		Output(out).
		Logger(logger).
		Recorder(metrics).
		Build(ctx)
	if err != nil {
		logger.Error("failed to set up step", "error", err)
		return exitError
	}

	result, err := s.Exec(ctx, prompt)
	if err != nil {
		logger.Error("invocation failed", "error", err)
		return exitError
	}
	if !result.Pass {
		logger.Info("response did not pass", "expression", cfg.Pass)
		return exitFail
	}
	return exitPass
}

// readPrompt returns arg, or all of stdin when arg is empty or "-".
func readPrompt(arg string, stdin io.Reader) (string, error) {
	if arg != "" && arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// trackingWriter counts bytes written through it.
type trackingWriter struct {
	w io.Writer
	n int64
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	t.n += int64(n)
	return n, err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
