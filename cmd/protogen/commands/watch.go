package commands

import (
	"context"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/protogen/internal/config"
	"git.home.luguber.info/inful/protogen/internal/discovery"
	"git.home.luguber.info/inful/protogen/internal/watch"
	"git.home.luguber.info/inful/protogen/internal/workspace"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	WorkspaceFlags  `embed:""`
	GenerationFlags `embed:""`

	Recursive bool          `help:"Discover workspaces below --base instead of using an explicit one"`
	Base      string        `help:"Directory to search in recursive mode" placeholder:"DIR"`
	Debounce  time.Duration `help:"Quiet period after the last change before regenerating" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	s, err := w.newSession(g, cfg)
	if err != nil {
		return err
	}
	wss, err := w.workspaces(cfg)
	if err != nil {
		return err
	}
	if len(wss) == 0 {
		return errNoWorkspace()
	}

	opts := w.Options(cfg, true)
	watcher, err := watch.New(watchDirs(wss), discovery.SchemaExt, func(ctx context.Context) error {
		defer s.flushMetrics()
		_, err := s.runner.RunAll(ctx, wss, opts)
		return err
	})
	if err != nil {
		return err
	}
	if g.Logger != nil {
		watcher.WithLogger(g.Logger)
	}

	ctx, cancel := signalContext()
	defer cancel()
	return watcher.WithDebounce(w.Debounce).Run(ctx)
}

func (w *WatchCmd) workspaces(cfg *config.Config) ([]workspace.Workspace, error) {
	if w.Recursive || (cfg.Recursive != nil && len(cfg.Workspaces) == 0 && len(w.ProtoFiles) == 0) {
		rf := RecursiveFlags{Base: w.Base}
		return rf.Workspaces(cfg)
	}
	return w.WorkspaceFlags.Workspaces(cfg)
}

// watchDirs returns the include directories of every workspace, falling back to the
// directories of its schema files.
func watchDirs(wss []workspace.Workspace) []string {
	var dirs []string
	for _, ws := range wss {
		if len(ws.ProtoDirs) > 0 {
			dirs = append(dirs, ws.ProtoDirs...)
			continue
		}
		for _, f := range ws.ProtoFiles {
			dirs = append(dirs, filepath.Dir(f))
		}
	}
	return dirs
}
