// Package gitinfo answers the few questions a run asks about the surrounding git repository.
package gitinfo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	ggit "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when no repository encloses the given path.
var ErrNotRepository = errors.New("not inside a git repository")

// RepoRoot returns the worktree root of the repository containing start.
func RepoRoot(start string) (string, error) {
	wt, err := worktree(start)
	if err != nil {
		return "", err
	}
	return wt.Filesystem.Root(), nil
}

// Dirty reports whether any file at or below path has uncommitted or untracked changes.
func Dirty(path string) (bool, error) {
	wt, err := worktree(path)
	if err != nil {
		return false, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", path, err)
	}
	root := wt.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false, fmt.Errorf("relate %s to %s: %w", abs, root, err)
	}
	prefix := filepath.ToSlash(rel)

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	for file, st := range status {
		if st.Worktree == ggit.Unmodified && st.Staging == ggit.Unmodified {
			continue
		}
		if prefix == "." || file == prefix || strings.HasPrefix(file, prefix+"/") {
			return true, nil
		}
	}
	return false, nil
}

func worktree(start string) (*ggit.Worktree, error) {
	repo, err := ggit.PlainOpenWithOptions(start, &ggit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, ggit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, start)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", start, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree at %s: %w", start, err)
	}
	return wt, nil
}
