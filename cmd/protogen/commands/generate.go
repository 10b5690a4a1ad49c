package commands

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/protogen/internal/config"
	"git.home.luguber.info/inful/protogen/internal/discovery"
	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/gitinfo"
	"git.home.luguber.info/inful/protogen/internal/logfields"
	"git.home.luguber.info/inful/protogen/internal/workspace"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Workspace generateWorkspaceCmd `cmd:"" default:"withargs" help:"Generate one explicit workspace (the default)"`
	Recursive generateRecursiveCmd `cmd:"" help:"Generate every schema directory found below a base directory"`
}

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Workspace validateWorkspaceCmd `cmd:"" default:"withargs" help:"Validate one explicit workspace (the default)"`
	Recursive validateRecursiveCmd `cmd:"" help:"Validate every schema directory found below a base directory"`
}

// WorkspaceFlags select an explicit workspace. Without them the configured workspaces run.
type WorkspaceFlags struct {
	ProtoDirs  []string `name:"proto-dirs" help:"Include directories handed to the compiler" placeholder:"DIR"`
	ProtoFiles []string `name:"proto-files" help:"Schema files to compile" placeholder:"FILE"`
	TmpDir     string   `name:"tmp-dir" help:"Keep generated code in this directory instead of a temporary one" placeholder:"DIR"`
	OutputDir  string   `name:"output-dir" short:"o" help:"Committed output directory" placeholder:"DIR"`
}

// Workspaces returns the flag workspace, or the configured ones when no flag is set.
func (w *WorkspaceFlags) Workspaces(cfg *config.Config) ([]workspace.Workspace, error) {
	if len(w.ProtoFiles) > 0 || w.OutputDir != "" || len(w.ProtoDirs) > 0 {
		return []workspace.Workspace{{
			ProtoDirs:  w.ProtoDirs,
			ProtoFiles: w.ProtoFiles,
			TempDir:    w.TmpDir,
			OutputDir:  w.OutputDir,
		}}, nil
	}
	wss := cfg.ExplicitWorkspaces()
	if len(wss) == 0 {
		return nil, errNoWorkspace()
	}
	if w.TmpDir != "" && len(wss) == 1 {
		wss[0].TempDir = w.TmpDir
	}
	return wss, nil
}

// RecursiveFlags select discovery mode.
type RecursiveFlags struct {
	Base string `help:"Directory to search (default: configured base, else the git repository root, else the working directory)" placeholder:"DIR"`
}

// Workspaces discovers the schema directories below the resolved base.
func (r *RecursiveFlags) Workspaces(cfg *config.Config) ([]workspace.Workspace, error) {
	base, err := r.resolveBase(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Searching for schema directories", logfields.Path(base))
	wss, err := discovery.Find(base)
	if err != nil {
		return nil, err
	}
	if len(wss) == 0 {
		slog.Warn("No schema directories found", logfields.Path(base))
	}
	return wss, nil
}

func (r *RecursiveFlags) resolveBase(cfg *config.Config) (string, error) {
	if r.Base != "" {
		return r.Base, nil
	}
	if cfg.Recursive != nil && cfg.Recursive.Base != "" {
		return cfg.Resolve(cfg.Recursive.Base), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "failed to determine working directory").Fatal().Build()
	}
	root, err := gitinfo.RepoRoot(wd)
	if err != nil {
		slog.Debug("Not inside a git repository, searching the working directory", logfields.Error(err))
		return wd, nil
	}
	return root, nil
}

type workspaceSource interface {
	Workspaces(cfg *config.Config) ([]workspace.Workspace, error)
}

// execute loads configuration, resolves workspaces and runs them in order.
func execute(g *Global, root *CLI, flags *GenerationFlags, src workspaceSource, commit bool) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	s, err := flags.newSession(g, cfg)
	if err != nil {
		return err
	}
	wss, err := src.Workspaces(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	defer s.flushMetrics()

	reports, err := s.runner.RunAll(ctx, wss, flags.Options(cfg, commit))
	for _, rep := range reports {
		slog.Info("Workspace finished",
			logfields.Output(rep.OutputDir),
			slog.String("outcome", string(rep.Outcome)),
			logfields.DiffCount(rep.Diff.Count),
			logfields.DurationMS(float64(rep.Duration.Milliseconds())))
	}
	return err
}

type generateWorkspaceCmd struct {
	WorkspaceFlags  `embed:""`
	GenerationFlags `embed:""`
}

func (c *generateWorkspaceCmd) Run(g *Global, root *CLI) error {
	return execute(g, root, &c.GenerationFlags, &c.WorkspaceFlags, true)
}

type generateRecursiveCmd struct {
	RecursiveFlags  `embed:""`
	GenerationFlags `embed:""`
}

func (c *generateRecursiveCmd) Run(g *Global, root *CLI) error {
	return execute(g, root, &c.GenerationFlags, &c.RecursiveFlags, true)
}

type validateWorkspaceCmd struct {
	WorkspaceFlags  `embed:""`
	GenerationFlags `embed:""`
}

func (c *validateWorkspaceCmd) Run(g *Global, root *CLI) error {
	return execute(g, root, &c.GenerationFlags, &c.WorkspaceFlags, false)
}

type validateRecursiveCmd struct {
	RecursiveFlags  `embed:""`
	GenerationFlags `embed:""`
}

func (c *validateRecursiveCmd) Run(g *Global, root *CLI) error {
	return execute(g, root, &c.GenerationFlags, &c.RecursiveFlags, false)
}
