package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/protogen/internal/config"
	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
	"git.home.luguber.info/inful/protogen/internal/metrics"
	"git.home.luguber.info/inful/protogen/internal/pipeline"
	"git.home.luguber.info/inful/protogen/internal/toolchain"
	"git.home.luguber.info/inful/protogen/internal/version"
)

// Global carries shared state into every command. Compiler and Formatter are nil in
// production and replaced by fakes in tests.
type Global struct {
	Logger    *slog.Logger
	Compiler  toolchain.Compiler
	Formatter toolchain.Formatter
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path (default: protogen.yaml when present)" env:"PROTOGEN_CONFIG" placeholder:"PATH"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Generate GenerateCmd `cmd:"" help:"Generate code and replace the committed tree when it differs"`
	Validate ValidateCmd `cmd:"" help:"Generate code and fail when it differs from the committed tree"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate whenever schema files change"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads --config, or protogen.yaml from the working directory when it exists.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.Config != "" {
		return config.LoadOrDefault(c.Config, true)
	}
	return config.LoadOrDefault(config.DefaultFile, false)
}

// GenerationFlags are shared by every command that runs the pipeline. Zero values fall back
// to the configuration file.
type GenerationFlags struct {
	Format            string `help:"Format generated code with rustfmt using this edition" placeholder:"EDITION"`
	NoFormat          bool   `name:"no-format" help:"Skip formatting even when the configuration enables it"`
	PrependHeader     bool   `name:"prepend-header" help:"Prepend a @generated header to every file"`
	Header            string `help:"Custom header text prepended to every file"`
	ToplevelAttribute string `name:"toplevel-attribute" help:"Extra inner attribute for the top-level module file" placeholder:"ATTR"`
	CheckDocs         bool   `name:"check-docs" help:"Report doc comment examples rustdoc would still compile"`
	Atomic            bool   `help:"Commit through a staging directory and rename"`

	TypeAttributes  []string `name:"type-attribute" sep:"none" help:"PATH:ATTRIBUTE added to matching messages and enums (repeatable)"`
	EnumAttributes  []string `name:"enum-attribute" sep:"none" help:"PATH:ATTRIBUTE added to matching enums (repeatable)"`
	FieldAttributes []string `name:"field-attribute" sep:"none" help:"PATH:ATTRIBUTE added to matching fields (repeatable)"`
	DisableComments []string `name:"disable-comments" sep:"none" help:"Schema path whose comments are not emitted (repeatable)"`
	PluginOpts      []string `name:"plugin-opt" sep:"none" help:"Raw plugin parameter (repeatable)"`

	BuildServer       bool     `name:"build-server" help:"Generate gRPC server code"`
	BuildClient       bool     `name:"build-client" help:"Generate gRPC client code"`
	GenerateTransport bool     `name:"generate-transport" help:"Generate connect helpers for the gRPC transport"`
	ClientAttributes  []string `name:"client-attribute" sep:"none" help:"PATH:ATTRIBUTE added to matching client modules (repeatable)"`
	ServerAttributes  []string `name:"server-attribute" sep:"none" help:"PATH:ATTRIBUTE added to matching server modules (repeatable)"`
	ServicePlugin     string   `name:"service-plugin" help:"gRPC service plugin name"`
	ServicePluginPath string   `name:"service-plugin-path" help:"Service plugin binary when it is not on PATH" placeholder:"PATH"`

	Protoc     string `help:"Compiler binary" placeholder:"PATH"`
	Plugin     string `help:"Code plugin name"`
	PluginPath string `name:"plugin-path" help:"Plugin binary when it is not on PATH" placeholder:"PATH"`
	Rustfmt    string `help:"Formatter binary" placeholder:"PATH"`

	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after the run" placeholder:"PATH"`
}

// Options merges the flags over cfg.
func (f *GenerationFlags) Options(cfg *config.Config, commit bool) pipeline.Options {
	gen := cfg.Generation
	opts := pipeline.Options{
		Commit:            commit,
		Format:            firstNonEmpty(f.Format, gen.Format),
		ToplevelAttribute: firstNonEmpty(f.ToplevelAttribute, gen.ToplevelAttribute),
		CheckDocs:         f.CheckDocs || gen.CheckDocs,
		Atomic:            f.Atomic || gen.Atomic,
	}
	if f.NoFormat {
		opts.Format = ""
	}
	switch header := firstNonEmpty(f.Header, gen.Header); {
	case header != "":
		if !strings.HasSuffix(header, "\n") {
			header += "\n"
		}
		opts.Header = header
	case f.PrependHeader || gen.PrependHeader:
		opts.Header = version.GeneratedHeader()
	}
	return opts
}

// PluginOptions appends the flag attributes to the configured ones.
func (f *GenerationFlags) PluginOptions(cfg *config.Config) (toolchain.PluginOptions, error) {
	opts, err := cfg.PluginOptions()
	if err != nil {
		return opts, err
	}
	for _, p := range []struct {
		flag string
		raw  []string
		dst  *[]toolchain.KeyValue
	}{
		{"type-attribute", f.TypeAttributes, &opts.TypeAttributes},
		{"enum-attribute", f.EnumAttributes, &opts.EnumAttributes},
		{"field-attribute", f.FieldAttributes, &opts.FieldAttributes},
	} {
		kvs, err := toolchain.ParseKeyValues(p.flag, p.raw)
		if err != nil {
			return opts, err
		}
		*p.dst = append(*p.dst, kvs...)
	}
	opts.DisableComments = append(opts.DisableComments, f.DisableComments...)
	opts.Raw = append(opts.Raw, f.PluginOpts...)
	return opts, nil
}

// ServiceOptions merges the service flags over the configured ones.
func (f *GenerationFlags) ServiceOptions(cfg *config.Config) (toolchain.ServiceOptions, error) {
	opts, err := cfg.ServiceOptions()
	if err != nil {
		return opts, err
	}
	opts.BuildServer = opts.BuildServer || f.BuildServer
	opts.BuildClient = opts.BuildClient || f.BuildClient
	opts.GenerateTransport = opts.GenerateTransport || f.GenerateTransport
	opts.Plugin = firstNonEmpty(f.ServicePlugin, opts.Plugin)
	opts.PluginPath = firstNonEmpty(f.ServicePluginPath, opts.PluginPath)

	client, err := toolchain.ParseKeyValues("client-attribute", f.ClientAttributes)
	if err != nil {
		return opts, err
	}
	server, err := toolchain.ParseKeyValues("server-attribute", f.ServerAttributes)
	if err != nil {
		return opts, err
	}
	opts.ClientAttributes = append(opts.ClientAttributes, client...)
	opts.ServerAttributes = append(opts.ServerAttributes, server...)
	return opts, nil
}

// session is everything one invocation needs to run the pipeline.
type session struct {
	runner      *pipeline.Runner
	prom        *metrics.PrometheusRecorder
	metricsFile string
}

// newSession validates every key:value flag before any tool runs, then wires the runner.
func (f *GenerationFlags) newSession(g *Global, cfg *config.Config) (*session, error) {
	pluginOpts, err := f.PluginOptions(cfg)
	if err != nil {
		return nil, err
	}
	serviceOpts, err := f.ServiceOptions(cfg)
	if err != nil {
		return nil, err
	}

	compiler := g.Compiler
	if compiler == nil {
		compiler = &toolchain.ProtocCompiler{
			Binary:     firstNonEmpty(f.Protoc, cfg.Compiler.Binary),
			Plugin:     firstNonEmpty(f.Plugin, cfg.Compiler.Plugin),
			PluginPath: cfg.Resolve(firstNonEmpty(f.PluginPath, cfg.Compiler.PluginPath)),
			Options:    pluginOpts,
			Services:   serviceOpts,
		}
	}
	formatter := g.Formatter
	if formatter == nil {
		formatter = &toolchain.RustfmtFormatter{Binary: firstNonEmpty(f.Rustfmt, cfg.Formatter.Binary)}
	}

	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &session{
		runner:      pipeline.NewRunner(compiler, formatter).WithLogger(logger),
		metricsFile: firstNonEmpty(f.MetricsFile, cfg.Resolve(cfg.Metrics.File)),
	}
	if s.metricsFile != "" {
		s.prom = metrics.NewPrometheusRecorder(nil)
		s.runner.WithRecorder(s.prom)
	}
	return s, nil
}

// flushMetrics writes the textfile when one is configured. Failures only warn.
func (s *session) flushMetrics() {
	if s.prom == nil {
		return
	}
	if err := s.prom.WriteTextfile(s.metricsFile); err != nil {
		slog.Warn("Failed to write metrics file", logfields.Path(s.metricsFile), logfields.Error(err))
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func errNoWorkspace() error {
	return derrors.ValidationError("no workspace given: pass --proto-files and --output-dir, or configure workspaces in " + config.DefaultFile).Build()
}
