package toolchain

import (
	"context"
	"strings"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
)

const (
	DefaultCompilerBinary = "protoc"
	DefaultPlugin         = "prost"
)

// Compiler turns schema files into generated sources inside outDir.
type Compiler interface {
	Compile(ctx context.Context, outDir string, files, includeDirs []string) error
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(ctx context.Context, outDir string, files, includeDirs []string) error

func (f CompilerFunc) Compile(ctx context.Context, outDir string, files, includeDirs []string) error {
	return f(ctx, outDir, files, includeDirs)
}

// KeyValue is a `path:value` pair handed to the code plugin, such as an attribute to put on
// every type matching path.
type KeyValue struct {
	Key   string
	Value string
}

// PluginOptions are translated into plugin parameters.
type PluginOptions struct {
	TypeAttributes  []KeyValue
	EnumAttributes  []KeyValue
	FieldAttributes []KeyValue
	DisableComments []string
	// Raw parameters passed through untouched.
	Raw []string
}

// ProtocCompiler runs protoc with a Rust code plugin writing straight into the output
// directory.
type ProtocCompiler struct {
	Binary string
	Plugin string
	// PluginPath points protoc at a plugin binary that is not on PATH.
	PluginPath string
	Options    PluginOptions
	// Services adds the gRPC service plugin to the same protoc run when enabled.
	Services ServiceOptions
}

func (c *ProtocCompiler) binary() string {
	if c.Binary == "" {
		return DefaultCompilerBinary
	}
	return c.Binary
}

func (c *ProtocCompiler) plugin() string {
	if c.Plugin == "" {
		return DefaultPlugin
	}
	return c.Plugin
}

// Args builds the protoc command line.
func (c *ProtocCompiler) Args(outDir string, files, includeDirs []string) []string {
	plugin := c.plugin()
	args := make([]string, 0, len(files)+len(includeDirs)+4)
	if c.PluginPath != "" {
		args = append(args, "--plugin=protoc-gen-"+plugin+"="+c.PluginPath)
	}
	for _, dir := range includeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, "--"+plugin+"_out="+outDir)
	for _, opt := range c.Options.parameters() {
		args = append(args, "--"+plugin+"_opt="+opt)
	}
	if c.Services.Enabled() {
		args = append(args, c.Services.args(outDir)...)
	}
	return append(args, files...)
}

func (o PluginOptions) parameters() []string {
	var out []string
	for _, kv := range o.TypeAttributes {
		out = append(out, "type_attribute="+kv.Key+"="+escapeParam(kv.Value))
	}
	for _, kv := range o.EnumAttributes {
		out = append(out, "enum_attribute="+kv.Key+"="+escapeParam(kv.Value))
	}
	for _, kv := range o.FieldAttributes {
		out = append(out, "field_attribute="+kv.Key+"="+escapeParam(kv.Value))
	}
	for _, path := range o.DisableComments {
		out = append(out, "disable_comments="+path)
	}
	return append(out, o.Raw...)
}

// protoc joins repeated plugin options with commas; the plugin accepts `\,` for a literal one.
func escapeParam(v string) string {
	return strings.ReplaceAll(v, ",", `\,`)
}

// Compile implements Compiler.
func (c *ProtocCompiler) Compile(ctx context.Context, outDir string, files, includeDirs []string) error {
	bin, err := lookPath(c.binary(), ErrCompilerNotFound)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryCompiler, "protobuf compiler is not installed").
			Fatal().WithContext(logfields.KeyTool, c.binary()).Build()
	}
	if _, err := run(ctx, bin, c.Args(outDir, files, includeDirs), nil, ErrCompilerFailed); err != nil {
		return derrors.WrapError(err, derrors.CategoryCompiler, "failed to compile schema files").
			Fatal().
			WithContext(logfields.KeyTool, c.binary()).
			WithContext(logfields.KeyOutput, outDir).
			Build()
	}
	if c.Services.Enabled() {
		return FoldServiceFiles(outDir, c.Services.plugin())
	}
	return nil
}
