package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
)

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return derrors.ConfigError("configuration file already exists (use --force to overwrite)").WithPath(path).Build()
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return derrors.WrapError(err, derrors.CategoryConfig, "failed to stat configuration file").
			Fatal().WithPath(path).Build()
	}

	example := Config{
		Version: CurrentVersion,
		Generation: GenerationConfig{
			Format:        "2021",
			PrependHeader: true,
		},
		Compiler: CompilerConfig{
			Binary:         "protoc",
			Plugin:         "prost",
			TypeAttributes: []string{".:#[derive(serde::Serialize, serde::Deserialize)]"},
		},
		Formatter: FormatterConfig{Binary: "rustfmt"},
		Workspaces: []WorkspaceConfig{
			{
				ProtoDirs:  []string{"proto"},
				ProtoFiles: []string{"proto/my_proto.proto"},
				OutputDir:  "src/proto_types",
			},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to marshal example configuration").Fatal().Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write configuration file").
			Fatal().WithPath(path).Build()
	}
	return nil
}
