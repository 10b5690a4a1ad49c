package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/protogen/internal/commit"
	"git.home.luguber.info/inful/protogen/internal/diff"
	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/gitinfo"
	"git.home.luguber.info/inful/protogen/internal/logfields"
	"git.home.luguber.info/inful/protogen/internal/metrics"
	"git.home.luguber.info/inful/protogen/internal/modtree"
	"git.home.luguber.info/inful/protogen/internal/toolchain"
	"git.home.luguber.info/inful/protogen/internal/workspace"
)

// Runner wires the external tools to the tree, diff and commit engines.
type Runner struct {
	compiler         toolchain.Compiler
	formatter        toolchain.Formatter
	recorder         metrics.Recorder
	logger           *slog.Logger
	workspaceFactory func(workspace.Workspace) *workspace.Manager
}

// NewRunner creates a Runner. A nil formatter disables formatting even when an edition is set.
func NewRunner(compiler toolchain.Compiler, formatter toolchain.Formatter) *Runner {
	if formatter == nil {
		formatter = toolchain.NoopFormatter{}
	}
	return &Runner{
		compiler:         compiler,
		formatter:        formatter,
		recorder:         metrics.NoopRecorder{},
		logger:           slog.Default(),
		workspaceFactory: workspace.ForWorkspace,
	}
}

// WithRecorder sets the metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithLogger sets the base logger; each run adds its run_id.
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	if l != nil {
		r.logger = l
	}
	return r
}

// WithWorkspaceFactory allows injecting a custom scratch directory manager (for testing).
func (r *Runner) WithWorkspaceFactory(factory func(workspace.Workspace) *workspace.Manager) *Runner {
	if factory != nil {
		r.workspaceFactory = factory
	}
	return r
}

// RunAll runs every workspace in order, stopping at the first error or cancellation.
func (r *Runner) RunAll(ctx context.Context, wss []workspace.Workspace, opts Options) ([]*Report, error) {
	reports := make([]*Report, 0, len(wss))
	for _, ws := range wss {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := r.Run(ctx, ws, opts)
		if rep != nil {
			reports = append(reports, rep)
		}
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// Run generates one workspace. In validate mode a nonzero diff is returned as a diff-category
// error together with the report.
func (r *Runner) Run(ctx context.Context, ws workspace.Workspace, opts Options) (*Report, error) {
	if err := ws.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	rep := &Report{
		RunID:          uuid.New().String(),
		OutputDir:      ws.OutputDir,
		StageDurations: map[string]time.Duration{},
	}
	log := r.logger.With(logfields.RunID(rep.RunID), logfields.Output(ws.OutputDir))
	log.Info("Generating workspace", slog.Int("files", len(ws.ProtoFiles)), slog.Bool("commit", opts.Commit))

	err := r.run(ctx, log, ws, opts, rep)
	rep.Duration = time.Since(start)
	r.recorder.ObserveRunDuration(rep.Duration)
	if err != nil && rep.Outcome == "" {
		rep.Outcome = metrics.OutcomeFailed
	}
	r.recorder.IncRunOutcome(rep.Outcome)
	log.Debug("Run finished", slog.String("outcome", string(rep.Outcome)), logfields.DurationMS(float64(rep.Duration.Milliseconds())))
	return rep, err
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, ws workspace.Workspace, opts Options, rep *Report) error {
	mgr := r.workspaceFactory(ws).WithLogger(log)
	if err := r.stage(log, rep, StagePrepare, mgr.Create); err != nil {
		return err
	}
	defer func() {
		if err := mgr.Cleanup(); err != nil {
			log.Warn("Failed to clean up temp directory", logfields.Error(err))
		}
	}()
	temp := mgr.GetPath()
	rep.TempDir = temp

	if err := r.stage(log, rep, StageCompile, func() error {
		return r.compiler.Compile(ctx, temp, ws.ProtoFiles, ws.ProtoDirs)
	}); err != nil {
		return err
	}

	var index string
	if err := r.stage(log, rep, StageMaterialize, func() error {
		var err error
		index, err = modtree.Build(temp, modtree.Options{
			Header:            opts.Header,
			ToplevelAttribute: opts.ToplevelAttribute,
			Logger:            log,
		})
		return err
	}); err != nil {
		return err
	}

	if opts.CheckDocs {
		if err := r.stage(log, rep, StageCheckDocs, func() error {
			n, err := checkDocs(log, temp)
			rep.Residuals = n
			return err
		}); err != nil {
			return err
		}
	}

	if opts.Format != "" {
		if err := r.stage(log, rep, StageFormat, func() error {
			if err := toolchain.FormatTree(ctx, r.formatter, temp, opts.Format); err != nil {
				return err
			}
			formatted, err := r.formatter.FormatText(ctx, index, opts.Format)
			if err != nil {
				return err
			}
			index = formatted
			return nil
		}); err != nil {
			return err
		}
	}

	if err := r.stage(log, rep, StageDiff, func() error {
		var err error
		rep.Diff, err = diff.Run(log, ws.OutputDir, temp, index)
		return err
	}); err != nil {
		return err
	}
	r.recorder.SetDiffCount(ws.OutputDir, rep.Diff.Count)

	if rep.Diff.Empty() {
		log.Info("Found no diff")
		rep.Outcome = metrics.OutcomeUnchanged
		return nil
	}
	log.Info("Found diff", logfields.DiffCount(rep.Diff.Count))

	if !opts.Commit {
		rep.Outcome = metrics.OutcomeDiffFound
		return derrors.DiffFoundError(rep.Diff.Count).WithContext(logfields.KeyOutput, ws.OutputDir).Build()
	}

	warnIfDirty(log, ws.OutputDir)
	if err := r.stage(log, rep, StageCommit, func() error {
		return commit.Replace(temp, ws.OutputDir, index, commit.Options{Atomic: opts.Atomic, Logger: log})
	}); err != nil {
		return err
	}
	rep.Outcome = metrics.OutcomeCommitted
	return nil
}

// stage times fn and records its result.
func (r *Runner) stage(log *slog.Logger, rep *Report, name string, fn func() error) error {
	t0 := time.Now()
	err := fn()
	d := time.Since(t0)
	rep.StageDurations[name] = d
	r.recorder.ObserveStageDuration(name, d)
	if err != nil {
		r.recorder.IncStageResult(name, metrics.ResultFatal)
		log.Debug("Stage failed", logfields.Stage(name), logfields.Error(err))
		return err
	}
	r.recorder.IncStageResult(name, metrics.ResultSuccess)
	log.Debug("Stage complete", logfields.Stage(name), logfields.DurationMS(float64(d.Milliseconds())))
	return nil
}

func warnIfDirty(log *slog.Logger, outputDir string) {
	if _, err := os.Stat(outputDir); err != nil {
		return
	}
	dirty, err := gitinfo.Dirty(outputDir)
	if err != nil {
		log.Debug("Skipping uncommitted change check", logfields.Error(err))
		return
	}
	if dirty {
		log.Warn("Output directory has uncommitted changes that will be overwritten")
	}
}
