package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time via -ldflags; see doc.go.
var (
	Version   = "dev"
	Commit    = ""
	Branch    = ""
	BuildTime = ""
)

// Info is the resolved build identity of a guardkit binary.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	Branch    string    `json:"branch"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date"`
	Release   bool      `json:"release"`
	Modified  bool      `json:"modified"`
}

// Get resolves the build identity. Fields not supplied through -ldflags fall
// back to the VCS metadata the toolchain embeds via debug.ReadBuildInfo.
func Get() Info {
	info := Info{
		Version: Version,
		Commit:  Commit,
		Branch:  Branch,
		Release: Version != "dev" && !strings.Contains(Version, "dirty"),
	}

	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = shortCommit(s.Value)
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			case "vcs.time":
				if info.BuildDate.IsZero() {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						info.BuildDate = t
					}
				}
			}
		}
	}

	return info
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Short returns "version" or "version-commit", with a "-modified" suffix for
// builds from an unclean tree. Suitable as a telemetry service version.
func Short() string {
	info := Get()
	if info.Commit == "" {
		return info.Version
	}
	s := info.Version + "-" + info.Commit
	if info.Modified {
		s += "-modified"
	}
	return s
}

// Full returns a human-readable version line including branch and build date.
func Full() string {
	info := Get()
	parts := []string{info.Version}
	if info.Commit != "" {
		parts = append(parts, info.Commit)
	}
	if info.Branch != "" && info.Branch != "main" {
		parts = append(parts, info.Branch)
	}
	if info.Modified {
		parts = append(parts, "modified")
	}
	s := strings.Join(parts, "-")
	if !info.BuildDate.IsZero() {
		s += fmt.Sprintf(" (built %s)", info.BuildDate.Format(time.RFC3339))
	}
	return s
}
