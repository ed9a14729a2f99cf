package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags for release builds.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info describes the running build.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Package string `json:"package"`
}

// GetVersion returns the stamped version, else the module version from the
// build info, else "development".
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "development"
}

// GetCommit returns the stamped commit, else the VCS revision Go embedded.
func GetCommit() string {
	return stamped(Commit, "vcs.revision")
}

// GetBuildDate returns the stamped build date, else the VCS commit time.
func GetBuildDate() string {
	return stamped(Date, "vcs.time")
}

func stamped(value, setting string) string {
	if value != "unknown" && value != "" {
		return value
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == setting {
				return s.Value
			}
		}
	}
	return "unknown"
}

// GetInfo returns complete version information.
func GetInfo() Info {
	return Info{
		Version: GetVersion(),
		Commit:  GetCommit(),
		Date:    GetBuildDate(),
		Package: "filecoder",
	}
}

// GetFullVersion returns the version with a short commit and build date when known.
func GetFullVersion() string {
	return GetInfo().String()
}

func (i Info) String() string {
	if i.Commit == "unknown" || len(i.Commit) <= 7 {
		return i.Version
	}
	if i.Date != "unknown" {
		return fmt.Sprintf("%s (%s, built %s)", i.Version, i.Commit[:7], i.Date)
	}
	return fmt.Sprintf("%s (%s)", i.Version, i.Commit[:7])
}
