package version

import (
	"fmt"
	"regexp"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// Version is a parsed build version
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string // e.g., "dev", "beta", "rc1"
	Metadata   string // e.g., "abc1234" from "dev-abc1234"
}

var semverRe = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:-([a-zA-Z0-9.-]+))?(?:\+([a-zA-Z0-9.-]+))?$`)

// Parse parses a version string like "v1.2.3", "1.2.3", "dev", "dev-abc1234"
func Parse(s string) Version {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")

	if s == "" || s == "dev" || strings.HasPrefix(s, "dev-") {
		v := Version{Prerelease: "dev"}
		if _, meta, ok := strings.Cut(s, "-"); ok {
			v.Metadata = meta
		}
		return v
	}

	m := semverRe.FindStringSubmatch(s)
	if m == nil {
		return Version{Prerelease: "unknown"}
	}

	var v Version
	v.Major, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		v.Minor, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	v.Prerelease = m[4]
	v.Metadata = m[5]
	return v
}

// IsDev reports whether this is a local or unparseable build
func (v Version) IsDev() bool {
	return v.Prerelease == "dev" || v.Prerelease == "unknown"
}

func (v Version) String() string {
	if v.IsDev() {
		if v.Metadata != "" {
			return "dev-" + v.Metadata
		}
		return "dev"
	}

	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Resolve picks the version stamped via -ldflags, falling back to the
// module version recorded by `go install` and then to the VCS revision.
func Resolve(stamped string) Version {
	v := Parse(stamped)
	if !v.IsDev() || v.Metadata != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	if mv := info.Main.Version; mv != "" && mv != "(devel)" {
		if parsed := Parse(mv); !parsed.IsDev() {
			return parsed
		}
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return Version{Prerelease: "dev", Metadata: s.Value[:7]}
		}
	}
	return v
}

// Banner is the line printed for -version
func Banner(name string, v Version) string {
	return fmt.Sprintf("%s %s (%s, %s/%s)", name, v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
