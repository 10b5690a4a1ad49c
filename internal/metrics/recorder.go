package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFatal   ResultLabel = "fatal"
	ResultSkipped ResultLabel = "skipped"
)

// RunOutcomeLabel is the terminal state of one workspace run.
type RunOutcomeLabel string

const (
	OutcomeUnchanged RunOutcomeLabel = "unchanged"
	OutcomeCommitted RunOutcomeLabel = "committed"
	OutcomeDiffFound RunOutcomeLabel = "diff_found"
	OutcomeFailed    RunOutcomeLabel = "failed"
)

// Recorder defines observability hooks for generation runs and their stages. All methods
// must be safe to call on the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome RunOutcomeLabel)
	SetDiffCount(output string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)              {}
func (NoopRecorder) SetDiffCount(string, int)                   {}
