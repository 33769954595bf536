// Package buildinfo reports the version gitlanes was built as.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const shortRevision = 12

// Version returns the module version or "dev" when unset.
func Version() string {
	info, _ := debug.ReadBuildInfo()
	return version(info)
}

// Revision returns the abbreviated VCS revision, suffixed with "-dirty" for
// builds from a modified worktree. Empty when the build carries no VCS
// stamp.
func Revision() string {
	info, _ := debug.ReadBuildInfo()
	return revision(info)
}

// String is the one line printed by -version and /healthz.
func String() string {
	info, _ := debug.ReadBuildInfo()
	return describe(info)
}

func version(info *debug.BuildInfo) string {
	if info == nil {
		return "dev"
	}
	v := info.Main.Version
	if v == "" || v == "(devel)" {
		return "dev"
	}
	return v
}

func setting(info *debug.BuildInfo, key string) string {
	if info == nil {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func revision(info *debug.BuildInfo) string {
	rev := setting(info, "vcs.revision")
	if rev == "" {
		return ""
	}
	if len(rev) > shortRevision {
		rev = rev[:shortRevision]
	}
	if setting(info, "vcs.modified") == "true" {
		rev += "-dirty"
	}
	return rev
}

func describe(info *debug.BuildInfo) string {
	var extra []string
	if rev := revision(info); rev != "" {
		extra = append(extra, "rev: "+rev)
	}
	if tags := setting(info, "-tags"); tags != "" {
		extra = append(extra, "tags: "+tags)
	}
	v := version(info)
	if len(extra) == 0 {
		return v
	}
	return fmt.Sprintf("%s (%s)", v, strings.Join(extra, ", "))
}
