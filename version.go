package basecamp

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is the library release. Release builds may override it with
// -ldflags "-X github.com/freeform/basecamp-api.Version=...".
var Version = "v0.4.0"

// GetVersion describes the running build: the library version plus the VCS
// revision and toolchain the Go linker recorded, when available.
func GetVersion() string {
	parts := []string{"basecamp-api " + Version}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return strings.Join(append(parts, runtime.Version()), ", ")
	}

	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		if modified {
			revision += "-dirty"
		}
		parts = append(parts, "commit "+revision)
	}

	return strings.Join(append(parts, info.GoVersion), ", ")
}
