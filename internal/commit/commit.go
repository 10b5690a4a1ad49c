// Package commit replaces a committed module tree with a freshly generated one.
package commit

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
	"git.home.luguber.info/inful/protogen/internal/modtree"
)

const (
	stageSuffix  = "_stage"
	backupSuffix = ".prev"
)

// Options selects the replacement policy.
type Options struct {
	// Atomic builds the new tree in a sibling staging directory and swaps it in by rename.
	Atomic bool
	// Extension of the top-level index file, modtree.DefaultExtension when empty.
	Extension string
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Replace makes oldRoot a copy of newRoot and writes indexText to the index file beside
// oldRoot. Without Atomic the destination is emptied first and a failure part way leaves a
// partial tree behind.
func Replace(newRoot, oldRoot, indexText string, opts Options) error {
	oldRoot = filepath.Clean(oldRoot)
	if filepath.Dir(oldRoot) == oldRoot {
		return derrors.InternalError("output directory has no parent for the top-level index").
			WithPath(oldRoot).Build()
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	var err error
	if opts.Atomic {
		err = replaceStaged(log, newRoot, oldRoot)
	} else {
		err = replaceInPlace(newRoot, oldRoot)
	}
	if err != nil {
		return err
	}

	indexPath := modtree.IndexPath(oldRoot, opts.Extension)
	if err := writeIndex(indexPath, indexText, opts.Atomic); err != nil {
		return err
	}
	log.Info("Committed generated code", logfields.Output(oldRoot), logfields.Path(indexPath))
	return nil
}

func replaceInPlace(newRoot, oldRoot string) error {
	info, err := os.Stat(oldRoot)
	switch {
	case err == nil:
		if !info.IsDir() {
			return derrors.FileSystemError("output path exists but is not a directory").WithPath(oldRoot).Build()
		}
		if err := os.RemoveAll(oldRoot); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to clean output directory").
				Fatal().WithPath(oldRoot).Build()
		}
		if err := os.Mkdir(oldRoot, 0o755); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to recreate output directory").
				Fatal().WithPath(oldRoot).Build()
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(oldRoot, 0o755); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create output directory").
				Fatal().WithPath(oldRoot).Build()
		}
	default:
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to stat output directory").
			Fatal().WithPath(oldRoot).Build()
	}
	return CopyDir(newRoot, oldRoot)
}

// replaceStaged copies into <out>_stage, moves the current tree to <out>.prev, renames the
// stage into place and drops the backup.
func replaceStaged(log *slog.Logger, newRoot, oldRoot string) error {
	stage := oldRoot + stageSuffix
	if err := os.RemoveAll(stage); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to clear stale staging directory").
			Fatal().WithPath(stage).Build()
	}
	if err := CopyDir(newRoot, stage); err != nil {
		abortStaging(log, stage)
		return err
	}

	prev := oldRoot + backupSuffix
	if err := os.RemoveAll(prev); err != nil {
		abortStaging(log, stage)
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to remove previous backup").
			Fatal().WithPath(prev).Build()
	}
	backedUp := false
	if _, err := os.Stat(oldRoot); err == nil {
		if err := os.Rename(oldRoot, prev); err != nil {
			abortStaging(log, stage)
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to back up output directory").
				Fatal().WithPath(oldRoot).Build()
		}
		backedUp = true
	}
	if err := os.Rename(stage, oldRoot); err != nil {
		if backedUp {
			if rerr := os.Rename(prev, oldRoot); rerr != nil {
				log.Error("Failed to restore output directory from backup", logfields.Path(prev), logfields.Error(rerr))
			}
		}
		abortStaging(log, stage)
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to promote staging directory").
			Fatal().WithPath(stage).Build()
	}
	if backedUp {
		if err := os.RemoveAll(prev); err != nil {
			log.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
		}
	}
	log.Debug("Promoted staging directory", logfields.Output(oldRoot))
	return nil
}

func abortStaging(log *slog.Logger, stage string) {
	if err := os.RemoveAll(stage); err != nil {
		log.Warn("Failed to remove staging directory after abort", logfields.Path(stage), logfields.Error(err))
	}
}

func writeIndex(path, text string, atomic bool) error {
	target := path
	if atomic {
		target = path + ".tmp"
	}
	if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write top-level index").
			Fatal().WithPath(target).Build()
	}
	if atomic {
		if err := os.Rename(target, path); err != nil {
			_ = os.Remove(target)
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to move top-level index into place").
				Fatal().WithPath(path).Build()
		}
	}
	return nil
}

// CopyDir recursively copies the regular files and directories under src into dst.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to stat copy source").
			Fatal().WithPath(src).Build()
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create directory").
			Fatal().WithPath(dst).Build()
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read directory").
			Fatal().WithPath(src).Build()
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		switch {
		case entry.IsDir():
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		default:
			return derrors.FileSystemError("found an entry that is neither a file nor a directory").
				WithPath(srcPath).Build()
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to open generated file").
			Fatal().WithPath(src).Build()
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.Create(dst)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create file").
			Fatal().WithPath(dst).Build()
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to copy file").
			Fatal().WithPath(dst).Build()
	}
	if err := dstFile.Close(); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to flush file").
			Fatal().WithPath(dst).Build()
	}
	return nil
}
