package workspace

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
)

func TestManager_EphemeralMode(t *testing.T) {
	tempBase := t.TempDir()
	mgr := NewManager(tempBase)
	require.NoError(t, mgr.Create())

	wsPath := mgr.GetPath()
	require.NotEmpty(t, wsPath)
	require.True(t, strings.HasPrefix(filepath.Base(wsPath), "protogen-"), wsPath)
	require.Equal(t, tempBase, filepath.Dir(wsPath))
	require.DirExists(t, wsPath)
	require.False(t, mgr.Persistent())

	require.NoError(t, mgr.Cleanup())
	require.NoDirExists(t, wsPath)
	require.Empty(t, mgr.GetPath())

	// A second cleanup is a no-op.
	require.NoError(t, mgr.Cleanup())
}

func TestManager_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).
		With(slog.String("run_id", "run-5"))

	mgr := NewManager(t.TempDir()).WithLogger(log)
	require.NoError(t, mgr.Create())
	require.NoError(t, mgr.Cleanup())

	out := buf.String()
	require.Contains(t, out, "Created temp directory")
	require.Contains(t, out, "Removed temp directory")
	require.Equal(t, 2, strings.Count(out, "run_id=run-5"))
}

func TestManager_EphemeralDirectoriesAreUnique(t *testing.T) {
	base := t.TempDir()
	a, b := NewManager(base), NewManager(base)
	require.NoError(t, a.Create())
	require.NoError(t, b.Create())
	require.NotEqual(t, a.GetPath(), b.GetPath())
}

func TestManager_PersistentMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gen")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stale"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.rs"), []byte("x"), 0o644))

	mgr := NewPersistentManager(dir)
	require.NoError(t, mgr.Create())
	require.Equal(t, dir, mgr.GetPath())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "my_proto.rs"), []byte("x"), 0o644))
	require.NoError(t, mgr.Cleanup())
	require.FileExists(t, filepath.Join(dir, "my_proto.rs"))
}

func TestForWorkspace(t *testing.T) {
	require.False(t, ForWorkspace(Workspace{}).Persistent())
	require.True(t, ForWorkspace(Workspace{TempDir: "gen"}).Persistent())
}

func TestWorkspace_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ws      Workspace
		wantErr bool
	}{
		{"valid", Workspace{ProtoFiles: []string{"a.proto"}, OutputDir: "src/proto_types"}, false},
		{"no files", Workspace{OutputDir: "src/proto_types"}, true},
		{"no output", Workspace{ProtoFiles: []string{"a.proto"}}, true},
		{"root output", Workspace{ProtoFiles: []string{"a.proto"}, OutputDir: "/"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ws.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, derrors.CategoryValidation, derrors.GetCategory(err))
		})
	}
}
