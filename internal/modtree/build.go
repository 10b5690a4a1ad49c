package modtree

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
)

// Build reshapes the flat compiler output in dir into a module tree in place and returns the
// top-level index text. Zero-byte files are deleted first; sub-directories are ignored.
func Build(dir string, opts Options) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read compiler output directory").
			Fatal().WithPath(dir).Build()
	}

	log := opts.logger()
	tree := New()
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return "", derrors.WrapError(err, derrors.CategoryFileSystem, "failed to stat generated file").
				Fatal().WithPath(path).Build()
		}
		if info.Size() == 0 {
			if err := os.Remove(path); err != nil {
				return "", derrors.WrapError(err, derrors.CategoryFileSystem, "failed to delete empty generated file").
					Fatal().WithPath(path).Build()
			}
			log.Debug("Removed empty generated file", logfields.Path(path))
			continue
		}
		if err := tree.Push(dir, path); err != nil {
			return "", err
		}
	}

	log.Debug("Synthesized module tree", logfields.Temp(dir), slog.Int("packages", tree.Packages()))
	return tree.Materialize(opts)
}

// IndexPath is where the top-level index for root lives: a sibling file named after the
// directory.
func IndexPath(root, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	root = filepath.Clean(root)
	return filepath.Join(filepath.Dir(root), filepath.Base(root)+"."+strings.TrimPrefix(ext, "."))
}
