// Package appversion reports the mofox-ui build version.
package appversion

import "runtime/debug"

// version is set at build time via -ldflags "-X mofox-ui/internal/appversion.version=...".
var version = "dev" //nolint:gochecknoglobals // ldflags requires package-level var

// String returns the version. A dev build reports the VCS revision when the
// toolchain recorded one.
func String() string {
	if version != "dev" {
		return version
	}
	if rev := revision(); rev != "" {
		return "dev+" + rev
	}
	return version
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
