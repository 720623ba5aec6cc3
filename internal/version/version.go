// Package version identifies the running build.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via -ldflags "-X github.com/example/stalker/internal/version.Commit=...".
var (
	Commit    = ""
	BuildTime = "unknown"
)

// String returns "stalker dev (commit: abc1234, built: ...)". Without ldflags the
// commit comes from the VCS stamp the go command embeds.
func String() string {
	return fmt.Sprintf("stalker dev (commit: %s, built: %s)", short(commit()), BuildTime)
}

func commit() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

func short(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
