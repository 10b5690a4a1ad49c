package toolchain

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
)

// DefaultServicePlugin generates gRPC client and server modules next to the message code.
const DefaultServicePlugin = "tonic"

// ServiceOptions configures the gRPC service plugin. Nothing is generated for services unless
// BuildServer or BuildClient is set.
type ServiceOptions struct {
	Plugin string
	// PluginPath points protoc at a plugin binary that is not on PATH.
	PluginPath        string
	BuildServer       bool
	BuildClient       bool
	GenerateTransport bool
	// ClientAttributes and ServerAttributes are put on the generated client and server modules
	// of every service matching the key.
	ClientAttributes []KeyValue
	ServerAttributes []KeyValue
}

// Enabled reports whether the service plugin runs at all.
func (o ServiceOptions) Enabled() bool {
	return o.BuildServer || o.BuildClient
}

func (o ServiceOptions) plugin() string {
	if o.Plugin == "" {
		return DefaultServicePlugin
	}
	return o.Plugin
}

// parameters keeps service code in its own file so FoldServiceFiles can merge it into the
// package file instead of the message file pulling it in with include!.
func (o ServiceOptions) parameters() []string {
	out := []string{"no_include"}
	if !o.BuildServer {
		out = append(out, "no_server")
	}
	if !o.BuildClient {
		out = append(out, "no_client")
	}
	if !o.GenerateTransport {
		out = append(out, "no_transport")
	}
	for _, kv := range o.ClientAttributes {
		out = append(out, "client_mod_attribute="+kv.Key+"="+escapeParam(kv.Value))
	}
	for _, kv := range o.ServerAttributes {
		out = append(out, "server_mod_attribute="+kv.Key+"="+escapeParam(kv.Value))
	}
	return out
}

func (o ServiceOptions) args(outDir string) []string {
	plugin := o.plugin()
	var args []string
	if o.PluginPath != "" {
		args = append(args, "--plugin=protoc-gen-"+plugin+"="+o.PluginPath)
	}
	args = append(args, "--"+plugin+"_out="+outDir)
	for _, opt := range o.parameters() {
		args = append(args, "--"+plugin+"_opt="+opt)
	}
	return args
}

// FoldServiceFiles appends every <pkg>.<plugin>.rs in dir to <pkg>.rs and removes it, leaving
// one file per package. A package with services but no messages gets a new <pkg>.rs.
func FoldServiceFiles(dir, plugin string) error {
	if plugin == "" {
		plugin = DefaultServicePlugin
	}
	suffix := "." + plugin + ".rs"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to list generated files").
			Fatal().WithPath(dir).Build()
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), suffix) && len(e.Name()) > len(suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		src := filepath.Join(dir, name)
		dst := filepath.Join(dir, strings.TrimSuffix(name, suffix)+".rs")
		if err := appendServiceFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func appendServiceFile(src, dst string) error {
	// #nosec G304 - src comes from listing the compiler's output directory
	service, err := os.ReadFile(src)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read service file").
			Fatal().WithPath(src).Build()
	}

	// #nosec G304 - dst is derived from src's name
	messages, err := os.ReadFile(dst)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read package file").
			Fatal().WithPath(dst).Build()
	}

	merged := make([]byte, 0, len(messages)+len(service)+1)
	merged = append(merged, messages...)
	if len(messages) > 0 && messages[len(messages)-1] != '\n' {
		merged = append(merged, '\n')
	}
	merged = append(merged, service...)

	// #nosec G306 - generated sources are world-readable like the rest of the tree
	if err := os.WriteFile(dst, merged, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write package file").
			Fatal().WithPath(dst).Build()
	}
	if err := os.Remove(src); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to remove folded service file").
			Fatal().WithPath(src).Build()
	}
	return nil
}
