// Package version reports build metadata for the mes binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Module is the import path of the mes module.
const Module = "github.com/example/mes"

// Set with -ldflags "-X github.com/example/mes/internal/version.Version=..." etc.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info is the resolved build metadata.
type Info struct {
	Module    string
	Version   string
	Commit    string
	BuildTime string
	Modified  bool
}

var readBuildInfo = debug.ReadBuildInfo

// Get resolves build metadata. Values injected by ldflags win; otherwise the
// VCS stamp embedded by the go tool is used.
func Get() Info {
	info := Info{Module: Module, Version: Version, Commit: Commit, BuildTime: BuildTime}

	bi, ok := readBuildInfo()
	if !ok {
		return info.withDefaults()
	}
	if info.Version == "dev" && bi.Main.Path == Module && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info.withDefaults()
}

func (i Info) withDefaults() Info {
	if i.Commit == "" {
		i.Commit = "unknown"
	}
	if i.BuildTime == "" {
		i.BuildTime = "unknown"
	}
	return i
}

// String formats the metadata for `mes version`.
func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("mes %s (%s, commit: %s, built: %s)", i.Version, i.Module, commit, i.BuildTime)
}

// String returns the formatted build metadata.
func String() string {
	return Get().String()
}
