package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/toolchain"
	"git.home.luguber.info/inful/protogen/internal/workspace"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "protogen.yaml"

// CurrentVersion is the only accepted value of the version field.
const CurrentVersion = "1"

// Config is the project file. Every field has a CLI flag that overrides it.
type Config struct {
	Version    string            `yaml:"version"`
	Generation GenerationConfig  `yaml:"generation"`
	Compiler   CompilerConfig    `yaml:"compiler"`
	Formatter  FormatterConfig   `yaml:"formatter"`
	Workspaces []WorkspaceConfig `yaml:"workspaces,omitempty"`
	Recursive  *RecursiveConfig  `yaml:"recursive,omitempty"`
	Metrics    MetricsConfig     `yaml:"metrics,omitempty"`

	// dir is the directory the file was loaded from; relative paths resolve against it.
	dir string
}

// GenerationConfig controls how generated code is shaped.
type GenerationConfig struct {
	Format            string `yaml:"format,omitempty"` // rustfmt edition, empty disables formatting
	PrependHeader     bool   `yaml:"prepend_header,omitempty"`
	Header            string `yaml:"header,omitempty"`
	ToplevelAttribute string `yaml:"toplevel_attribute,omitempty"`
	CheckDocs         bool   `yaml:"check_docs,omitempty"`
	Atomic            bool   `yaml:"atomic,omitempty"`
}

// CompilerConfig selects protoc and the code plugin.
type CompilerConfig struct {
	Binary          string         `yaml:"binary"`
	Plugin          string         `yaml:"plugin"`
	PluginPath      string         `yaml:"plugin_path,omitempty"`
	TypeAttributes  []string       `yaml:"type_attributes,omitempty"`
	EnumAttributes  []string       `yaml:"enum_attributes,omitempty"`
	FieldAttributes []string       `yaml:"field_attributes,omitempty"`
	DisableComments []string       `yaml:"disable_comments,omitempty"`
	PluginOpts      []string       `yaml:"plugin_opts,omitempty"`
	Services        ServicesConfig `yaml:"services,omitempty"`
}

// ServicesConfig enables gRPC client and server generation.
type ServicesConfig struct {
	Plugin            string   `yaml:"plugin,omitempty"`
	PluginPath        string   `yaml:"plugin_path,omitempty"`
	BuildServer       bool     `yaml:"build_server,omitempty"`
	BuildClient       bool     `yaml:"build_client,omitempty"`
	GenerateTransport bool     `yaml:"generate_transport,omitempty"`
	ClientAttributes  []string `yaml:"client_attributes,omitempty"`
	ServerAttributes  []string `yaml:"server_attributes,omitempty"`
}

// FormatterConfig selects the rustfmt binary.
type FormatterConfig struct {
	Binary string `yaml:"binary"`
}

// WorkspaceConfig is an explicit workspace.
type WorkspaceConfig struct {
	ProtoDirs  []string `yaml:"proto_dirs,omitempty"`
	ProtoFiles []string `yaml:"proto_files"`
	TmpDir     string   `yaml:"tmp_dir,omitempty"`
	OutputDir  string   `yaml:"output_dir"`
}

// RecursiveConfig enables discovery below Base.
type RecursiveConfig struct {
	Base string `yaml:"base"`
}

// MetricsConfig names a Prometheus textfile written after each invocation.
type MetricsConfig struct {
	File string `yaml:"file,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

// Load reads path, expanding ${VAR} references after loading .env and .env.local from the
// file's directory. Existing environment variables win over .env entries.
func Load(path string) (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to resolve configuration directory").
			Fatal().WithPath(path).Build()
	}
	if err := loadEnvFiles(dir); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, derrors.ConfigError("configuration file not found").WithPath(path).Build()
	}
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to read configuration file").
			Fatal().WithPath(path).Build()
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to parse configuration file").
			Fatal().WithPath(path).Build()
	}
	if cfg.Version != CurrentVersion {
		return nil, derrors.ConfigError("unsupported configuration version").
			WithPath(path).
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}
	cfg.dir = dir
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it exists. A missing file is only an error when explicit.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	return Load(path)
}

func loadEnvFiles(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return derrors.WrapError(err, derrors.CategoryConfig, "failed to load environment file").
				Fatal().WithPath(path).Build()
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Compiler.Binary == "" {
		cfg.Compiler.Binary = toolchain.DefaultCompilerBinary
	}
	if cfg.Compiler.Plugin == "" {
		cfg.Compiler.Plugin = toolchain.DefaultPlugin
	}
	if cfg.Formatter.Binary == "" {
		cfg.Formatter.Binary = toolchain.DefaultFormatterBinary
	}
}

// Validate checks the attribute lists and the explicit workspaces.
func (c *Config) Validate() error {
	if _, err := c.PluginOptions(); err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "invalid compiler attribute").Fatal().Build()
	}
	if _, err := c.ServiceOptions(); err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "invalid service attribute").Fatal().Build()
	}
	for i, ws := range c.Workspaces {
		if len(ws.ProtoFiles) == 0 {
			return derrors.ConfigError("workspace has no proto_files").WithContext("workspace", i).Build()
		}
		if ws.OutputDir == "" {
			return derrors.ConfigError("workspace has no output_dir").WithContext("workspace", i).Build()
		}
	}
	if c.Recursive != nil && c.Recursive.Base == "" {
		return derrors.ConfigError("recursive.base must be set when recursive is present").Build()
	}
	return nil
}

// PluginOptions converts the compiler section into plugin parameters.
func (c *Config) PluginOptions() (toolchain.PluginOptions, error) {
	var opts toolchain.PluginOptions
	var err error
	if opts.TypeAttributes, err = toolchain.ParseKeyValues("type_attributes", c.Compiler.TypeAttributes); err != nil {
		return opts, err
	}
	if opts.EnumAttributes, err = toolchain.ParseKeyValues("enum_attributes", c.Compiler.EnumAttributes); err != nil {
		return opts, err
	}
	if opts.FieldAttributes, err = toolchain.ParseKeyValues("field_attributes", c.Compiler.FieldAttributes); err != nil {
		return opts, err
	}
	opts.DisableComments = append(opts.DisableComments, c.Compiler.DisableComments...)
	opts.Raw = append(opts.Raw, c.Compiler.PluginOpts...)
	return opts, nil
}

// ServiceOptions converts the compiler.services section.
func (c *Config) ServiceOptions() (toolchain.ServiceOptions, error) {
	svc := c.Compiler.Services
	opts := toolchain.ServiceOptions{
		Plugin:            svc.Plugin,
		PluginPath:        c.Resolve(svc.PluginPath),
		BuildServer:       svc.BuildServer,
		BuildClient:       svc.BuildClient,
		GenerateTransport: svc.GenerateTransport,
	}
	var err error
	if opts.ClientAttributes, err = toolchain.ParseKeyValues("client_attributes", svc.ClientAttributes); err != nil {
		return opts, err
	}
	if opts.ServerAttributes, err = toolchain.ParseKeyValues("server_attributes", svc.ServerAttributes); err != nil {
		return opts, err
	}
	return opts, nil
}

// Resolve makes p absolute relative to the configuration file's directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// ExplicitWorkspaces converts the workspaces section with paths resolved.
func (c *Config) ExplicitWorkspaces() []workspace.Workspace {
	out := make([]workspace.Workspace, 0, len(c.Workspaces))
	for _, ws := range c.Workspaces {
		out = append(out, workspace.Workspace{
			ProtoDirs:  c.resolveAll(ws.ProtoDirs),
			ProtoFiles: c.resolveAll(ws.ProtoFiles),
			TempDir:    c.Resolve(ws.TmpDir),
			OutputDir:  c.Resolve(ws.OutputDir),
		})
	}
	return out
}

func (c *Config) resolveAll(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = c.Resolve(p)
	}
	return out
}
