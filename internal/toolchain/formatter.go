package toolchain

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
)

const DefaultFormatterBinary = "rustfmt"

// Formatter rewrites Rust sources in canonical style for a language edition.
type Formatter interface {
	FormatFile(ctx context.Context, path, edition string) error
	FormatText(ctx context.Context, text, edition string) (string, error)
}

// RustfmtFormatter invokes rustfmt, by path for files and over stdin for text.
type RustfmtFormatter struct {
	Binary string
}

func (r *RustfmtFormatter) binary() string {
	if r.Binary == "" {
		return DefaultFormatterBinary
	}
	return r.Binary
}

func (r *RustfmtFormatter) FormatFile(ctx context.Context, path, edition string) error {
	bin, err := lookPath(r.binary(), ErrFormatterNotFound)
	if err != nil {
		return r.notFound(err)
	}
	if _, err := run(ctx, bin, []string{path, "--edition", edition}, nil, ErrFormatterFailed); err != nil {
		return derrors.WrapError(err, derrors.CategoryFormatter, "failed to format generated file").
			Fatal().WithPath(path).WithContext(logfields.KeyTool, r.binary()).Build()
	}
	return nil
}

func (r *RustfmtFormatter) FormatText(ctx context.Context, text, edition string) (string, error) {
	bin, err := lookPath(r.binary(), ErrFormatterNotFound)
	if err != nil {
		return "", r.notFound(err)
	}
	res, err := run(ctx, bin, []string{"--edition", edition}, strings.NewReader(text), ErrFormatterFailed)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFormatter, "failed to format top-level index").
			Fatal().WithContext(logfields.KeyTool, r.binary()).Build()
	}
	return res.stdout, nil
}

func (r *RustfmtFormatter) notFound(err error) error {
	return derrors.WrapError(err, derrors.CategoryFormatter, "formatter is not installed").
		Fatal().WithContext(logfields.KeyTool, r.binary()).Build()
}

// NoopFormatter leaves everything as it is.
type NoopFormatter struct{}

func (NoopFormatter) FormatFile(_ context.Context, path, _ string) error {
	slog.Debug("NoopFormatter skipping file", logfields.Path(path))
	return nil
}

func (NoopFormatter) FormatText(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

// FormatTree formats every .rs file below root, one formatter invocation per file.
func FormatTree(ctx context.Context, f Formatter, root, edition string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to walk generated tree").
				Fatal().WithPath(path).Build()
		}
		if !d.Type().IsRegular() || filepath.Ext(path) != ".rs" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return f.FormatFile(ctx, path, edition)
	})
}
