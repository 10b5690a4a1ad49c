// Package discovery finds schema workspaces below a project directory.
//
// A directory holding `*.proto` files is a schema directory. Its parent is taken as the
// project root and the generated code goes to `<root>/src/proto_types`. Directories below a
// schema directory are not searched once its first schema file has been seen.
package discovery

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
	"git.home.luguber.info/inful/protogen/internal/workspace"
)

const (
	// SchemaExt marks schema files.
	SchemaExt = ".proto"
	// SourceDir is the project directory the output tree is placed in.
	SourceDir = "src"
	// OutputBaseName is the name of the generated output directory.
	OutputBaseName = "proto_types"
)

// Find walks base and returns one workspace per schema directory, sorted by schema directory.
// Every workspace gets an ephemeral temp directory.
func Find(base string) ([]workspace.Workspace, error) {
	found, err := find(base)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].ProtoDirs[0] < found[j].ProtoDirs[0]
	})
	return found, nil
}

func find(dir string) ([]workspace.Workspace, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read directory while searching for schema files").
			Fatal().WithPath(dir).Build()
	}

	// ReadDir returns entries sorted by name.
	var out []workspace.Workspace
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !utf8.ValidString(path) {
			return nil, derrors.FileSystemError("found a path that is not valid UTF-8").WithPath(path).Build()
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to stat path while searching for schema files").
				Fatal().WithPath(path).Build()
		}
		if info.IsDir() {
			nested, err := find(path)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		if !strings.HasSuffix(entry.Name(), SchemaExt) {
			continue
		}

		ws, err := schemaWorkspace(dir)
		if err != nil {
			return nil, err
		}
		slog.Debug("Found schema directory", logfields.Path(dir), logfields.Output(ws.OutputDir), slog.Int("files", len(ws.ProtoFiles)))
		out = append(out, ws)
		break
	}
	return out, nil
}

func schemaWorkspace(dir string) (workspace.Workspace, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return workspace.Workspace{}, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read schema directory").
			Fatal().WithPath(dir).Build()
	}
	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), SchemaExt) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	root := filepath.Dir(dir)
	if root == dir {
		return workspace.Workspace{}, derrors.FileSystemError("schema directory has no parent").WithPath(dir).Build()
	}
	return workspace.Workspace{
		ProtoDirs:  []string{dir},
		ProtoFiles: files,
		OutputDir:  filepath.Join(root, SourceDir, OutputBaseName),
	}, nil
}
