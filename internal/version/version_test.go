package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Version
	}{
		{"v1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"1.0", Version{Major: 1}},
		{"v2.0.0-beta", Version{Major: 2, Prerelease: "beta"}},
		{"1.0.0-rc1+abc", Version{Major: 1, Prerelease: "rc1", Metadata: "abc"}},
		{"dev", Version{Prerelease: "dev"}},
		{"", Version{Prerelease: "dev"}},
		{"dev-abc1234", Version{Prerelease: "dev", Metadata: "abc1234"}},
		{"dev-abc1234-dirty", Version{Prerelease: "dev", Metadata: "abc1234-dirty"}},
		{"nightly", Version{Prerelease: "unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if v := Parse(tt.input); v != tt.expected {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, v, tt.expected)
			}
		})
	}
}

func TestIsDev(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"dev", true},
		{"dev-abc1234", true},
		{"garbage", true},
		{"1.0.0", false},
		{"1.0.0-beta", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Parse(tt.input).IsDev(); got != tt.expected {
				t.Errorf("Parse(%q).IsDev() = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"v1.2.3", "1.2.3"},
		{"1.0.0-beta", "1.0.0-beta"},
		{"dev", "dev"},
		{"dev-abc1234", "dev-abc1234"},
		{"garbage", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Parse(tt.input).String(); got != tt.expected {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolve_StampedWins(t *testing.T) {
	if got := Resolve("v0.3.1").String(); got != "0.3.1" {
		t.Errorf("Resolve(v0.3.1) = %q", got)
	}
	if got := Resolve("dev-1234567").String(); got != "dev-1234567" {
		t.Errorf("Resolve(dev-1234567) = %q", got)
	}
}

func TestResolve_Unstamped(t *testing.T) {
	v := Resolve("")
	if v.IsDev() {
		return
	}
	// Only a module version recorded in the build info may replace dev
	info, ok := debug.ReadBuildInfo()
	if !ok || Parse(info.Main.Version) != v {
		t.Errorf("Resolve(\"\") = %s, want dev or the module version", v)
	}
}

func TestBanner(t *testing.T) {
	b := Banner("nfc-diag", Parse("1.2.3"))
	if !strings.HasPrefix(b, "nfc-diag 1.2.3 (") {
		t.Errorf("unexpected banner %q", b)
	}
	if !strings.Contains(b, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("banner %q missing platform", b)
	}
}
