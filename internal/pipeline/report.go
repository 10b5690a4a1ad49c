package pipeline

import (
	"time"

	"git.home.luguber.info/inful/protogen/internal/diff"
	"git.home.luguber.info/inful/protogen/internal/metrics"
)

// Stage names used for logging and metrics.
const (
	StagePrepare     = "prepare"
	StageCompile     = "compile"
	StageMaterialize = "materialize"
	StageCheckDocs   = "check_docs"
	StageFormat      = "format"
	StageDiff        = "diff"
	StageCommit      = "commit"
)

// Options are the per-invocation generation settings shared by every workspace.
type Options struct {
	// Commit replaces the committed tree when differences are found; otherwise the run fails.
	Commit bool
	// Format is the rustfmt edition; empty skips formatting.
	Format string
	// Header is prepended to every written file.
	Header string
	// ToplevelAttribute is added to the top-level index after the lint preamble.
	ToplevelAttribute string
	// CheckDocs scans the generated tree for doc comments rustdoc would still compile.
	CheckDocs bool
	// Atomic commits through a staging directory.
	Atomic bool
}

// Report describes one finished workspace run.
type Report struct {
	RunID          string
	OutputDir      string
	TempDir        string
	Outcome        metrics.RunOutcomeLabel
	Diff           diff.Result
	Residuals      int
	Duration       time.Duration
	StageDurations map[string]time.Duration
}
