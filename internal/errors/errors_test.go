package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := FileSystemError("failed to create directory").
			WithPath("/tmp/out").
			Build()

		require.Equal(t, CategoryFileSystem, err.Category())
		require.True(t, err.IsFatal())
		path, ok := err.Context().GetString("path")
		require.True(t, ok)
		require.Equal(t, "/tmp/out", path)
		require.Equal(t, "[filesystem:fatal] failed to create directory (path=/tmp/out)", err.Error())
	})

	t.Run("Cause is part of the chain", func(t *testing.T) {
		cause := stderrors.New("permission denied")
		err := WrapError(cause, CategoryCompiler, "protoc failed").Build()

		require.ErrorIs(t, err, cause)
		require.Contains(t, err.Error(), "permission denied")
	})

	t.Run("Wrapped classified errors are found", func(t *testing.T) {
		inner := InternalError("duplicate leaf").Build()
		wrapped := fmt.Errorf("workspace proto: %w", inner)

		_, ok := AsClassified(wrapped)
		require.True(t, ok)
		require.True(t, HasCategory(wrapped, CategoryInternal))
		require.Equal(t, CategoryInternal, GetCategory(wrapped))
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := ValidationError("bad flag").Build()
		extended := base.WithContext("flag", "--type-attribute")

		_, ok := base.Context().Get("flag")
		require.False(t, ok)
		flag, _ := extended.Context().GetString("flag")
		require.Equal(t, "--type-attribute", flag)

		again := extended.WithContext("flag", "--enum-attribute")
		flag, _ = extended.Context().GetString("flag")
		require.Equal(t, "--type-attribute", flag)
		flag, _ = again.Context().GetString("flag")
		require.Equal(t, "--enum-attribute", flag)
	})

	t.Run("Unclassified errors default to internal", func(t *testing.T) {
		require.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	})
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: ExitOK},
		{name: "usage", err: ValidationError("missing files").Build(), expected: ExitUsage},
		{name: "config", err: ConfigError("bad yaml").Build(), expected: ExitConfig},
		{name: "diff found", err: DiffFoundError(3).Build(), expected: ExitDiffFound},
		{name: "compiler", err: CompilerError("protoc failed").Build(), expected: ExitExternal},
		{name: "formatter", err: FormatterError("rustfmt failed").Build(), expected: ExitExternal},
		{name: "filesystem", err: FileSystemError("write failed").Build(), expected: ExitIO},
		{name: "internal", err: InternalError("logic error").Build(), expected: ExitInternal},
		{name: "wrapped diff", err: fmt.Errorf("workspace: %w", DiffFoundError(1).Build()), expected: ExitDiffFound},
		{name: "unclassified", err: stderrors.New("boom"), expected: ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	diffErr := DiffFoundError(2).Build()
	require.Equal(t, "Found 2 difference(s); run generate to update the committed code", quiet.FormatError(diffErr))
	require.Contains(t, verbose.FormatError(diffErr), "diff_count=2")

	fsErr := FileSystemError("failed to read generated file").WithPath("/x").Build()
	require.Equal(t, "filesystem: failed to read generated file (use -v for details)", quiet.FormatError(fsErr))
	require.Equal(t, "", quiet.FormatError(nil))
	require.Equal(t, "Error: boom", quiet.FormatError(stderrors.New("boom")))
}
