package commit

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/protogen/internal/diff"
	"git.home.luguber.info/inful/protogen/internal/logfields"
)

const index = "#![allow(clippy::doc_markdown, clippy::use_self)]\npub mod a;\npub mod my_proto;\n"

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func candidate(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "gen")
	writeTree(t, root, map[string]string{
		"a.rs":        "pub mod b;\n",
		"a/b.rs":      "pub struct B;\n",
		"my_proto.rs": "pub struct M;\n",
	})
	return root
}

func TestReplace(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		name := "in place"
		if atomic {
			name = "atomic"
		}
		t.Run(name, func(t *testing.T) {
			newRoot := candidate(t)
			oldRoot := filepath.Join(t.TempDir(), "src", "proto_types")
			writeTree(t, oldRoot, map[string]string{
				"stale.rs": "pub struct Stale;\n",
				"old/x.rs": "pub struct X;\n",
				"a/b.rs":   "pub struct Old;\n",
			})

			require.NoError(t, Replace(newRoot, oldRoot, index, Options{Atomic: atomic}))

			require.Equal(t, "pub struct B;\n", readFile(t, filepath.Join(oldRoot, "a", "b.rs")))
			require.Equal(t, "pub struct M;\n", readFile(t, filepath.Join(oldRoot, "my_proto.rs")))
			require.Equal(t, index, readFile(t, oldRoot+".rs"))
			require.NoFileExists(t, filepath.Join(oldRoot, "stale.rs"))
			require.NoDirExists(t, filepath.Join(oldRoot, "old"))
			require.NoDirExists(t, oldRoot+stageSuffix)
			require.NoDirExists(t, oldRoot+backupSuffix)
			require.NoFileExists(t, oldRoot+".rs.tmp")

			res, err := diff.Run(nil, oldRoot, newRoot, index)
			require.NoError(t, err)
			require.Equal(t, 0, res.Count)
		})
	}
}

func TestReplace_CreatesMissingOutput(t *testing.T) {
	newRoot := candidate(t)
	oldRoot := filepath.Join(t.TempDir(), "nested", "src", "proto_types")

	before, err := diff.Run(nil, oldRoot, newRoot, index)
	require.NoError(t, err)
	require.Equal(t, 4, before.Count)

	require.NoError(t, Replace(newRoot, oldRoot, index, Options{}))

	after, err := diff.Run(nil, oldRoot, newRoot, index)
	require.NoError(t, err)
	require.Equal(t, 0, after.Count)
}

func TestReplace_OutputIsFile(t *testing.T) {
	newRoot := candidate(t)
	oldRoot := filepath.Join(t.TempDir(), "proto_types")
	require.NoError(t, os.WriteFile(oldRoot, []byte("x"), 0o644))

	require.Error(t, Replace(newRoot, oldRoot, index, Options{}))
}

func TestReplace_MissingSourceAbortsStage(t *testing.T) {
	oldRoot := filepath.Join(t.TempDir(), "proto_types")
	writeTree(t, oldRoot, map[string]string{"keep.rs": "pub struct Keep;\n"})

	err := Replace(filepath.Join(t.TempDir(), "missing"), oldRoot, index, Options{Atomic: true})
	require.Error(t, err)
	require.Equal(t, "pub struct Keep;\n", readFile(t, filepath.Join(oldRoot, "keep.rs")))
	require.NoDirExists(t, oldRoot+stageSuffix)
}

func TestReplace_LogsThroughGivenLogger(t *testing.T) {
	newRoot := candidate(t)
	oldRoot := filepath.Join(t.TempDir(), "proto_types")

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).
		With(logfields.RunID("run-3"))

	require.NoError(t, Replace(newRoot, oldRoot, index, Options{Atomic: true, Logger: log}))
	require.Contains(t, buf.String(), "Promoted staging directory")
	require.Contains(t, buf.String(), "Committed generated code")
	require.Contains(t, buf.String(), "run_id=run-3")
}

func TestCopyDir(t *testing.T) {
	src := candidate(t)
	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, CopyDir(src, dst))
	require.Equal(t, "pub struct B;\n", readFile(t, filepath.Join(dst, "a", "b.rs")))
}
