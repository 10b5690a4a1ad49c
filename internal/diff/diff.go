// Package diff compares a committed module tree with a freshly generated one.
package diff

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
	"git.home.luguber.info/inful/protogen/internal/modtree"
)

// ErrRootMarkerNotFound is returned when a collected file does not resolve to a path below its
// tree root.
var ErrRootMarkerNotFound = errors.New("root marker not found above file")

// Kind describes one difference.
type Kind string

const (
	KindNew     Kind = "new"
	KindChanged Kind = "changed"
	KindRemoved Kind = "removed"
	KindIndex   Kind = "index"
)

// Entry is a single difference, Path relative to the tree roots.
type Entry struct {
	Kind Kind
	Path string
}

// Result holds the number of differing units and what they were.
type Result struct {
	Count   int
	Entries []Entry
}

// Empty reports whether the trees matched.
func (r Result) Empty() bool { return r.Count == 0 }

func (r *Result) add(log *slog.Logger, kind Kind, path string) {
	r.Count++
	r.Entries = append(r.Entries, Entry{Kind: kind, Path: path})
	log.Warn("Found difference", logfields.DiffKind(string(kind)), logfields.File(path))
}

// Run counts the differences between the committed tree at oldRoot and the candidate tree at
// newRoot, plus the committed top-level index beside oldRoot against newIndexText. A missing
// oldRoot is treated as an empty tree. A nil log uses slog.Default.
func Run(log *slog.Logger, oldRoot, newRoot, newIndexText string) (Result, error) {
	if log == nil {
		log = slog.Default()
	}
	oldRoot = filepath.Clean(oldRoot)
	newRoot = filepath.Clean(newRoot)
	if filepath.Dir(oldRoot) == oldRoot {
		return Result{}, derrors.InternalError("output directory has no parent for the top-level index").
			WithPath(oldRoot).Build()
	}

	oldFiles, err := collect(oldRoot)
	if err != nil {
		return Result{}, err
	}
	newFiles, err := collect(newRoot)
	if err != nil {
		return Result{}, err
	}

	remaining := make(map[string]struct{}, len(oldFiles))
	for _, rel := range oldFiles {
		remaining[rel] = struct{}{}
	}

	var res Result
	for _, rel := range newFiles {
		if _, ok := remaining[rel]; !ok {
			res.add(log, KindNew, rel)
			continue
		}
		delete(remaining, rel)
		same, err := sameContent(filepath.Join(oldRoot, rel), filepath.Join(newRoot, rel))
		if err != nil {
			return Result{}, err
		}
		if !same {
			res.add(log, KindChanged, rel)
		}
	}

	indexPath := modtree.IndexPath(oldRoot, modtree.DefaultExtension)
	oldIndex, err := os.ReadFile(indexPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.add(log, KindIndex, filepath.Base(indexPath))
	case err != nil:
		return Result{}, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read committed index").
			Fatal().WithPath(indexPath).Build()
	case !bytes.Equal(oldIndex, []byte(newIndexText)):
		res.add(log, KindIndex, filepath.Base(indexPath))
	}

	removed := make([]string, 0, len(remaining))
	for rel := range remaining {
		removed = append(removed, rel)
	}
	sort.Strings(removed)
	for _, rel := range removed {
		res.add(log, KindRemoved, rel)
	}

	log.Debug("Diff complete", logfields.Output(oldRoot), logfields.Temp(newRoot), logfields.DiffCount(res.Count))
	return res, nil
}

// collect lists every regular file below root, relative to root.
func collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to stat tree root").
			Fatal().WithPath(root).Build()
	}
	if !info.IsDir() {
		return nil, derrors.FileSystemError("tree root is not a directory").WithPath(root).Build()
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return derrors.WrapError(werr, derrors.CategoryFileSystem, "failed to walk tree").
				Fatal().WithPath(path).Build()
		}
		switch {
		case d.IsDir():
			return nil
		case d.Type().IsRegular():
			rel, err := relativeToRoot(root, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
			return nil
		default:
			return derrors.FileSystemError("found an entry that is neither a file nor a directory").
				WithPath(path).Build()
		}
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// relativeToRoot returns path relative to root. Package segments may repeat the root's own
// name, so the root is matched by position rather than by name.
func relativeToRoot(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", derrors.WrapError(ErrRootMarkerNotFound, derrors.CategoryInternal, "failed to locate tree root for file").
			Fatal().
			WithPath(path).
			WithContext("root", root).
			Build()
	}
	return rel, nil
}

func sameContent(a, b string) (bool, error) {
	left, err := os.ReadFile(a)
	if err != nil {
		return false, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read committed file").
			Fatal().WithPath(a).Build()
	}
	right, err := os.ReadFile(b)
	if err != nil {
		return false, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read generated file").
			Fatal().WithPath(b).Build()
	}
	return bytes.Equal(left, right), nil
}
