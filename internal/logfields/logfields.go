package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID     = "run_id"
	KeyStage     = "stage"
	KeyDuration  = "duration_ms"
	KeyWorkspace = "workspace"
	KeyPath      = "path"
	KeyFile      = "file"
	KeyPackage   = "package"
	KeyOutput    = "output"
	KeyTemp      = "temp"
	KeyDiffCount = "diff_count"
	KeyDiffKind  = "diff_kind"
	KeyTool      = "tool"
	KeyError     = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }
func Workspace(dir string) slog.Attr  { return slog.String(KeyWorkspace, dir) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(name string) slog.Attr      { return slog.String(KeyFile, name) }
func Package(name string) slog.Attr   { return slog.String(KeyPackage, name) }
func Output(dir string) slog.Attr     { return slog.String(KeyOutput, dir) }
func Temp(dir string) slog.Attr       { return slog.String(KeyTemp, dir) }
func DiffCount(n int) slog.Attr       { return slog.Int(KeyDiffCount, n) }
func DiffKind(kind string) slog.Attr  { return slog.String(KeyDiffKind, kind) }
func Tool(name string) slog.Attr      { return slog.String(KeyTool, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
