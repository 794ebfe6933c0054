package index

import "strings"

// systemRoots are path prefixes classified as SYSTEM_DIR on Linux-like
// filesystems.
var systemRoots = []string{"/usr/", "/lib/", "/var/", "/etc/", "/sys/", "/proc/"}

var buildDirNames = map[string]bool{
	"node_modules": true, "target": true, "build": true, "dist": true,
	"out": true, ".next": true, ".git": true, ".hg": true, ".svn": true,
	".venv": true, "venv": true, "site-packages": true, ".tox": true,
	"vendor": true, ".cargo": true,
}

var cacheDirNames = map[string]bool{
	".cache": true, "cache": true, ".gradle": true, ".m2": true,
	".npm": true, ".pip": true, "caches": true, "__pycache__": true,
}

var logDirNames = map[string]bool{
	"logs": true, "log": true, "debug": true, "sessionstore-logs": true,
	"crash-reports": true, "crashreporter": true, "telemetry": true,
	"diagnostics": true,
}

const veryDeepThreshold = 15

// ClassifyNoise runs the noise classifier over an absolute path,
// returning the OR-combined NoiseFlags and the path's component depth
// (saturating at 255).
func ClassifyNoise(absPath string) (NoiseFlags, uint8) {
	var flags NoiseFlags

	lower := strings.ToLower(absPath)
	for _, root := range systemRoots {
		if strings.HasPrefix(lower, root) {
			flags |= NoiseSystemDir
			break
		}
	}

	comps := splitComponents(absPath)
	depth := len(comps)
	if depth > 255 {
		depth = 255
	}
	if depth > veryDeepThreshold {
		flags |= NoiseVeryDeep
	}

	hiddenAt := -1
	for i, c := range comps {
		switch {
		case buildDirNames[c]:
			flags |= NoiseBuildDir
		case cacheDirNames[c]:
			flags |= NoiseCacheDir
		case logDirNames[c]:
			flags |= NoiseLogDir
		}
		if isHashySegment(c) {
			flags |= NoiseHashySeg
		}
		if hiddenAt < 0 && isHiddenAppComponent(c) {
			hiddenAt = i
		}
	}
	if hiddenAt >= 0 && len(comps)-hiddenAt-1 >= 2 {
		flags |= NoiseAppDataDir
	}

	return flags, uint8(depth)
}

func splitComponents(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isHiddenAppComponent reports whether c is a dotfile/dotdir component,
// excluding the bare "." and ".." components.
func isHiddenAppComponent(c string) bool {
	return strings.HasPrefix(c, ".") && c != "." && c != ".."
}

// isHashySegment reports whether c looks like a UUID or a long pure-hex
// identifier, the shapes generated by content-addressed caches and
// package managers.
func isHashySegment(c string) bool {
	return isUUIDFormat(c) || isLongHexSegment(c)
}

func isUUIDFormat(c string) bool {
	if len(c) != 36 {
		return false
	}
	for i, r := range c {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if !isHexByte(byte(r)) {
				return false
			}
		}
	}
	return true
}

func isLongHexSegment(c string) bool {
	if len(c) < 16 || len(c) > 64 {
		return false
	}
	hexCount := 0
	for i := 0; i < len(c); i++ {
		if strings.ContainsRune("-_.", rune(c[i])) {
			return false
		}
		if isHexByte(c[i]) {
			hexCount++
		}
	}
	return float64(hexCount)/float64(len(c)) >= 0.85
}

func isHexByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
