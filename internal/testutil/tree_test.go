package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadTree(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.rs":       "pub mod b;\n",
		"a/b.rs":     "pub struct B;\n",
		"a/c/d/e.rs": "",
	}
	WriteTree(t, root, files)
	require.Equal(t, files, ReadTree(t, root))
	require.Empty(t, ReadTree(t, filepath.Join(root, "missing")))
}
