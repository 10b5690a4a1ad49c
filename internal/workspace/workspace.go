package workspace

import (
	"log/slog"
	"os"
	"path/filepath"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
)

// Workspace is one set of schema inputs and the directory their generated code is committed to.
type Workspace struct {
	// ProtoDirs are include directories handed to the compiler, in order.
	ProtoDirs []string
	// ProtoFiles are the schema files to compile, in order.
	ProtoFiles []string
	// TempDir is a caller-supplied scratch directory; empty means create and remove one.
	TempDir string
	// OutputDir is the committed destination.
	OutputDir string
}

// Validate checks the workspace can be generated.
func (w Workspace) Validate() error {
	if len(w.ProtoFiles) == 0 {
		return derrors.ValidationError("no schema files to compile").
			WithContext(logfields.KeyOutput, w.OutputDir).Build()
	}
	if w.OutputDir == "" {
		return derrors.ValidationError("output directory is required").Build()
	}
	if filepath.Dir(filepath.Clean(w.OutputDir)) == filepath.Clean(w.OutputDir) {
		return derrors.ValidationError("output directory must have a parent for the top-level index").
			WithPath(w.OutputDir).Build()
	}
	return nil
}

// Manager handles the scratch directory lifecycle (both temporary and persistent)
type Manager struct {
	baseDir    string
	tempDir    string
	persistent bool
	logger     *slog.Logger
}

// NewManager creates a manager for an ephemeral directory below baseDir.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager uses dir as is. It is emptied by Create and kept by Cleanup.
func NewPersistentManager(dir string) *Manager {
	return &Manager{tempDir: dir, persistent: true}
}

// ForWorkspace picks persistent mode when the workspace names its own temp directory.
func ForWorkspace(w Workspace) *Manager {
	if w.TempDir != "" {
		return NewPersistentManager(w.TempDir)
	}
	return NewManager("")
}

// WithLogger sets the logger used for lifecycle records. Nil restores slog.Default.
func (m *Manager) WithLogger(l *slog.Logger) *Manager {
	m.logger = l
	return m
}

func (m *Manager) log() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Create makes the directory ready for the compiler.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.tempDir, 0o750); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create temp directory").
				Fatal().WithPath(m.tempDir).Build()
		}
		if err := emptyDir(m.tempDir); err != nil {
			return err
		}
		m.log().Debug("Using caller-supplied temp directory", logfields.Temp(m.tempDir))
		return nil
	}

	tempDir, err := os.MkdirTemp(m.baseDir, "protogen-")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create temp directory").
			Fatal().WithPath(m.baseDir).Build()
	}
	m.tempDir = tempDir
	m.log().Debug("Created temp directory", logfields.Temp(tempDir))
	return nil
}

// GetPath returns the path to the scratch directory
func (m *Manager) GetPath() string {
	return m.tempDir
}

// Persistent reports whether Cleanup keeps the directory.
func (m *Manager) Persistent() bool {
	return m.persistent
}

// Cleanup removes an ephemeral directory. Persistent directories are retained.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}
	if m.persistent {
		m.log().Debug("Retaining temp directory", logfields.Temp(m.tempDir))
		return nil
	}
	if err := os.RemoveAll(m.tempDir); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to remove temp directory").
			Fatal().WithPath(m.tempDir).Build()
	}
	m.log().Debug("Removed temp directory", logfields.Temp(m.tempDir))
	m.tempDir = ""
	return nil
}

func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read temp directory").
			Fatal().WithPath(dir).Build()
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to clear temp directory").
				Fatal().WithPath(path).Build()
		}
	}
	return nil
}
