package modtree

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
	"git.home.luguber.info/inful/protogen/internal/sanitize"
)

// LintPreamble opens every top-level index file.
const LintPreamble = "#![allow(clippy::doc_markdown, clippy::use_self)]\n"

// DefaultExtension is the suffix of generated and materialized source files.
const DefaultExtension = "rs"

// Options controls the text written during materialization.
type Options struct {
	// Header is prepended verbatim to every written file and to the top-level index.
	Header string
	// ToplevelAttribute is an extra line placed after the lint preamble of the top-level index.
	ToplevelAttribute string
	// Extension defaults to DefaultExtension.
	Extension string
	// Logger receives per-module debug records; nil uses slog.Default.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) ext() string {
	if o.Extension == "" {
		return DefaultExtension
	}
	return strings.TrimPrefix(o.Extension, ".")
}

// Materialize writes the tree to disk depth-first and returns the top-level index text. The
// caller decides where that text ends up.
func (t *Tree) Materialize(opts Options) (string, error) {
	var b strings.Builder
	b.WriteString(opts.Header)
	b.WriteString(LintPreamble)
	if opts.ToplevelAttribute != "" {
		b.WriteString(opts.ToplevelAttribute)
		b.WriteByte('\n')
	}
	for _, child := range t.sortedChildren(rootIndex) {
		if err := t.materialize(child, opts); err != nil {
			return "", err
		}
		writeExport(&b, t.nodes[child].name)
	}
	return b.String(), nil
}

func (t *Tree) materialize(idx int, opts Options) error {
	n := t.nodes[idx]
	target := filepath.Join(n.location, n.name+"."+opts.ext())

	var index strings.Builder
	if len(n.children) > 0 {
		dir := filepath.Join(n.location, n.name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create module directory").
				Fatal().WithPath(dir).Build()
		}
		for _, child := range t.sortedChildren(idx) {
			writeExport(&index, t.nodes[child].name)
			if err := t.materialize(child, opts); err != nil {
				return err
			}
		}
	}

	switch n.kind() {
	case MergedBranchWithFile:
		content, err := readGenerated(n.file)
		if err != nil {
			return err
		}
		body := opts.Header + index.String() + "\n" + sanitize.Content(content)
		if err := writeModule(target, body); err != nil {
			return err
		}
		if n.file != target {
			if err := removeGenerated(n.file); err != nil {
				return err
			}
		}
	case PureLeaf:
		content, err := readGenerated(n.file)
		if err != nil {
			return err
		}
		if err := removeGenerated(n.file); err != nil {
			return err
		}
		if err := writeModule(target, opts.Header+sanitize.Content(content)); err != nil {
			return err
		}
	case PureBranch:
		if err := writeModule(target, opts.Header+index.String()); err != nil {
			return err
		}
	}
	opts.logger().Debug("Materialized module", logfields.Package(n.name), slog.String("kind", n.kind().String()), logfields.Path(target))
	return nil
}

func writeExport(b *strings.Builder, name string) {
	b.WriteString("pub mod ")
	b.WriteString(exportName(name))
	b.WriteString(";\n")
}

func readGenerated(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read generated file").
			Fatal().WithPath(path).Build()
	}
	return string(data), nil
}

func removeGenerated(path string) error {
	if err := os.Remove(path); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to remove original generated file").
			Fatal().WithPath(path).Build()
	}
	return nil
}

func writeModule(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write module file").
			Fatal().WithPath(path).Build()
	}
	return nil
}
