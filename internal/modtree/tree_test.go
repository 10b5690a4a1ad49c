package modtree

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
)

func TestPush_Kinds(t *testing.T) {
	base := "/tmp/out"
	tree := New()
	for _, name := range []string{"my_proto.rs", "imports.dependency.rs", "imports.nested.rs", "p.rs", "p.q.rs"} {
		require.NoError(t, tree.Push(base, filepath.Join(base, name)))
	}

	tests := []struct {
		path []string
		want Kind
	}{
		{[]string{"my_proto"}, PureLeaf},
		{[]string{"imports"}, PureBranch},
		{[]string{"imports", "nested"}, PureLeaf},
		{[]string{"p"}, MergedBranchWithFile},
		{[]string{"p", "q"}, PureLeaf},
	}
	for _, tt := range tests {
		kind, ok := tree.KindOf(tt.path...)
		require.True(t, ok, tt.path)
		require.Equal(t, tt.want, kind, tt.path)
	}

	_, ok := tree.KindOf("missing")
	require.False(t, ok)
	require.Equal(t, 6, tree.Packages())
}

func TestPush_MergeIsOrderIndependent(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Push("out", "out/p.q.rs"))
	require.NoError(t, tree.Push("out", "out/p.rs"))
	kind, ok := tree.KindOf("p")
	require.True(t, ok)
	require.Equal(t, MergedBranchWithFile, kind)
}

func TestPush_DuplicateLeaf(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Push("out", "out/a.b.rs"))
	err := tree.Push("out", "other/a.b.rs")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDuplicateLeaf))
	require.Equal(t, derrors.CategoryInternal, derrors.GetCategory(err))
}

func TestPush_BadNames(t *testing.T) {
	for _, name := range []string{"README", ".rs", "a..b.rs", "\xff\xfe.rs"} {
		err := New().Push("out", filepath.Join("out", name))
		require.Error(t, err, name)
		require.Equal(t, derrors.CategoryFileSystem, derrors.GetCategory(err), name)
	}
}

func TestPush_RawPrefixIsStripped(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Push("out", "out/a.r#type.rs"))
	kind, ok := tree.KindOf("a", "type")
	require.True(t, ok)
	require.Equal(t, PureLeaf, kind)
}

func TestExportName(t *testing.T) {
	require.Equal(t, "r#type", exportName("type"))
	require.Equal(t, "r#match", exportName("match"))
	require.Equal(t, "self", exportName("self"))
	require.Equal(t, "types", exportName("types"))
}
