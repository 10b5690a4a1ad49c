// Package metrics provides observability hooks for generation runs.
//
// Components receive a Recorder and default to NoopRecorder, so callers never check for
// nil. When a metrics file is requested the CLI swaps in a PrometheusRecorder and writes its
// registry with WriteTextfile once all workspaces have run:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	runner := pipeline.NewRunner(compiler, formatter).WithRecorder(rec)
//	// ... run workspaces ...
//	_ = rec.WriteTextfile("/var/lib/node_exporter/protogen.prom")
package metrics
