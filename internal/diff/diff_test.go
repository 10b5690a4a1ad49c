package diff

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/protogen/internal/logfields"
)

const index = "#![allow(clippy::doc_markdown, clippy::use_self)]\npub mod a;\n"

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// committed builds <tmp>/src/proto_types with its sibling index and returns the tree root.
func committed(t *testing.T, files map[string]string, indexText string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "src", "proto_types")
	writeTree(t, root, files)
	require.NoError(t, os.WriteFile(root+".rs", []byte(indexText), 0o644))
	return root
}

func generated(t *testing.T, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "gen-out")
	require.NoError(t, os.MkdirAll(root, 0o755))
	writeTree(t, root, files)
	return root
}

func TestRun_EmptyTreesWithoutIndex(t *testing.T) {
	oldRoot := filepath.Join(t.TempDir(), "src", "proto_types")
	newRoot := generated(t, nil)

	res, err := Run(nil, oldRoot, newRoot, index)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, []Entry{{Kind: KindIndex, Path: "proto_types.rs"}}, res.Entries)
}

func TestRun_Identical(t *testing.T) {
	files := map[string]string{
		"a.rs":        "pub mod b;\n",
		"a/b.rs":      "pub struct B;\n",
		"my_proto.rs": "pub struct M;\n",
	}
	res, err := Run(nil, committed(t, files, index), generated(t, files), index)
	require.NoError(t, err)
	require.True(t, res.Empty())
	require.Empty(t, res.Entries)
}

func TestRun_AddRemoveChange(t *testing.T) {
	oldRoot := committed(t, map[string]string{
		"a.rs":    "pub mod b;\n",
		"a/b.rs":  "pub struct B;\n",
		"gone.rs": "pub struct Gone;\n",
	}, index)
	newRoot := generated(t, map[string]string{
		"a.rs":     "pub mod b;\n",
		"a/b.rs":   "pub struct B2;\n",
		"fresh.rs": "pub struct Fresh;\n",
	})

	res, err := Run(nil, oldRoot, newRoot, index)
	require.NoError(t, err)
	require.Equal(t, 3, res.Count)
	require.ElementsMatch(t, []Entry{
		{Kind: KindChanged, Path: filepath.Join("a", "b.rs")},
		{Kind: KindNew, Path: "fresh.rs"},
		{Kind: KindRemoved, Path: "gone.rs"},
	}, res.Entries)
}

func TestRun_IndexChanged(t *testing.T) {
	files := map[string]string{"a.rs": "pub struct A;\n"}
	res, err := Run(nil, committed(t, files, index), generated(t, files), index+"pub mod b;\n")
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, KindIndex, res.Entries[0].Kind)
}

func TestRun_RootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proto_types")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := Run(nil, path, generated(t, nil), index)
	require.Error(t, err)
}

func TestRun_SegmentNamedLikeRoot(t *testing.T) {
	files := map[string]string{
		"proto_types.rs":             "pub mod inner;\n",
		"proto_types/inner.rs":       "pub struct Inner;\n",
		"foo.rs":                     "pub mod proto_types;\n",
		"foo/proto_types.rs":         "pub mod bar;\n",
		"foo/proto_types/bar.rs":     "pub struct Bar;\n",
		"proto_types/proto_types.rs": "pub struct Twice;\n",
	}
	res, err := Run(nil, committed(t, files, index), generated(t, files), index)
	require.NoError(t, err)
	require.Empty(t, res.Entries)
}

func TestRun_LogsThroughGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil)).With(logfields.RunID("run-1"))
	oldRoot := filepath.Join(t.TempDir(), "src", "proto_types")
	newRoot := generated(t, map[string]string{"fresh.rs": "pub struct Fresh;\n"})

	res, err := Run(log, oldRoot, newRoot, index)
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	require.Contains(t, buf.String(), "run_id=run-1")
	require.Contains(t, buf.String(), "diff_kind=new")
	require.Contains(t, buf.String(), "file=fresh.rs")
}

func TestRelativeToRoot(t *testing.T) {
	root := filepath.Join("/", "work", "proto_types")

	rel, err := relativeToRoot(root, filepath.Join(root, "a", "b.rs"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join("a", "b.rs"), rel)

	rel, err = relativeToRoot(root, filepath.Join(root, "proto_types", "inner.rs"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join("proto_types", "inner.rs"), rel)

	_, err = relativeToRoot(root, filepath.Join("/", "work", "other", "b.rs"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrRootMarkerNotFound))
}
