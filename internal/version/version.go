package version

import "runtime/debug"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/protogen/internal/version.Version=v0.4.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns Version, falling back to the module version recorded by `go install`.
func String() string {
	if Version != "unknown" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// GeneratedHeader is the comment block prepended to generated files by --prepend-header.
func GeneratedHeader() string {
	return "// @generated by protogen " + String() + "\n\n"
}
