package pipeline

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
	"git.home.luguber.info/inful/protogen/internal/sanitize"
)

// checkDocs logs every doc comment code block under root that rustdoc would still compile
// and returns how many there were.
func checkDocs(log *slog.Logger, root string) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to walk generated tree").
				Fatal().WithPath(path).Build()
		}
		if !d.Type().IsRegular() || filepath.Ext(path) != ".rs" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read generated file").
				Fatal().WithPath(path).Build()
		}
		for _, f := range sanitize.Residual(string(data)) {
			total++
			log.Warn("Doc comment still contains a runnable example",
				logfields.File(path),
				slog.Int("line", f.Line),
				slog.String("kind", f.Kind),
				slog.String("info", f.Info))
		}
		return nil
	})
	return total, err
}
