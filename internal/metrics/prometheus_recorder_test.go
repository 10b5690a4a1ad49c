package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("compile", 150*time.Millisecond)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncStageResult("compile", ResultSuccess)
	pr.IncRunOutcome(OutcomeCommitted)
	pr.SetDiffCount("src/proto_types", 3)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 5)
	require.Same(t, reg, pr.Registry())
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome(OutcomeDiffFound)
	pr.SetDiffCount("src/proto_types", 2)

	path := filepath.Join(t.TempDir(), "protogen.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.Contains(text, `protogen_run_outcomes_total{outcome="diff_found"} 1`), text)
	require.True(t, strings.Contains(text, `protogen_last_diff_count{output="src/proto_types"} 2`), text)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("compile", time.Second)
	pr.IncRunOutcome(OutcomeFailed)
	pr.SetDiffCount("x", 1)
}

func TestTestRecorder(t *testing.T) {
	rec := newTestRecorder()
	rec.IncStageResult("diff", ResultSuccess)
	rec.IncStageResult("diff", ResultSuccess)
	rec.IncRunOutcome(OutcomeUnchanged)
	require.Equal(t, 2, rec.stageResults["diff"][ResultSuccess])
	require.Equal(t, 1, rec.runOutcomes[OutcomeUnchanged])
}
