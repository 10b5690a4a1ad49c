package modtree

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/protogen/internal/logfields"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuild_NestedPackages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"my_proto.rs":           "pub struct TestMessage;\n",
		"imports.dependency.rs": "pub struct Dependency;\n",
		"imports.nested.rs":     "pub struct Nested;\n",
		"empty.rs":              "",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ignored"), 0o755))

	index, err := Build(dir, Options{})
	require.NoError(t, err)
	require.Equal(t, LintPreamble+"pub mod imports;\npub mod my_proto;\n", index)

	require.Equal(t, "pub struct TestMessage;\n", readFile(t, filepath.Join(dir, "my_proto.rs")))
	require.Equal(t, "pub mod dependency;\npub mod nested;\n", readFile(t, filepath.Join(dir, "imports.rs")))
	require.Equal(t, "pub struct Dependency;\n", readFile(t, filepath.Join(dir, "imports", "dependency.rs")))
	require.Equal(t, "pub struct Nested;\n", readFile(t, filepath.Join(dir, "imports", "nested.rs")))

	for _, gone := range []string{"imports.dependency.rs", "imports.nested.rs", "empty.rs"} {
		_, err := os.Stat(filepath.Join(dir, gone))
		require.True(t, os.IsNotExist(err), gone)
	}
}

func TestBuild_MergedBranchWithHeader(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"p.rs":   "pub struct P;\n",
		"p.q.rs": "pub struct Q;\n",
	})
	header := "// hdr\n\n"

	index, err := Build(dir, Options{Header: header, ToplevelAttribute: "#![allow(missing_docs)]"})
	require.NoError(t, err)
	require.Equal(t, header+LintPreamble+"#![allow(missing_docs)]\npub mod p;\n", index)
	require.Equal(t, header+"pub mod q;\n\npub struct P;\n", readFile(t, filepath.Join(dir, "p.rs")))
	require.Equal(t, header+"pub struct Q;\n", readFile(t, filepath.Join(dir, "p", "q.rs")))
}

func TestBuild_DeepMergeRelocatesOriginal(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.b.rs":   "pub struct B;\n",
		"a.b.c.rs": "pub struct C;\n",
	})

	index, err := Build(dir, Options{})
	require.NoError(t, err)
	require.Equal(t, LintPreamble+"pub mod a;\n", index)
	require.Equal(t, "pub mod b;\n", readFile(t, filepath.Join(dir, "a.rs")))
	require.Equal(t, "pub mod c;\n\npub struct B;\n", readFile(t, filepath.Join(dir, "a", "b.rs")))
	require.Equal(t, "pub struct C;\n", readFile(t, filepath.Join(dir, "a", "b", "c.rs")))

	_, err = os.Stat(filepath.Join(dir, "a.b.rs"))
	require.True(t, os.IsNotExist(err))
}

func TestBuild_KeywordSegments(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"foo.type.rs": "pub struct T;\n",
	})

	_, err := Build(dir, Options{})
	require.NoError(t, err)
	require.Equal(t, "pub mod r#type;\n", readFile(t, filepath.Join(dir, "foo.rs")))
	require.FileExists(t, filepath.Join(dir, "foo", "type.rs"))
}

func TestBuild_SanitizesRelocatedContent(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"doc.rs": "/// Example:\n///     let a = 1;\npub struct A;\n",
	})

	_, err := Build(dir, Options{})
	require.NoError(t, err)
	require.Equal(t, "/// Example:\n///```ignore\n///     let a = 1;\n///```\npub struct A;\n", readFile(t, filepath.Join(dir, "doc.rs")))
}

func TestBuild_EmptyDirectory(t *testing.T) {
	index, err := Build(t.TempDir(), Options{})
	require.NoError(t, err)
	require.Equal(t, LintPreamble, index)
}

func TestBuild_MissingDirectory(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "missing"), Options{})
	require.Error(t, err)
}

func TestIndexPath(t *testing.T) {
	require.Equal(t, filepath.Join("src", "proto_types.rs"), IndexPath(filepath.Join("src", "proto_types"), ""))
	require.Equal(t, filepath.Join("src", "proto_types.rs"), IndexPath(filepath.Join("src", "proto_types")+"/", ".rs"))
}

func TestBuild_LogsThroughGivenLogger(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.b.rs": "pub struct B;\n"})

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).
		With(logfields.RunID("run-7"))

	_, err := Build(dir, Options{Logger: log})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "Materialized module")
	require.Contains(t, out, "Synthesized module tree")
	require.Contains(t, out, "run_id=run-7")
}
