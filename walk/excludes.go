package walk

import "github.com/bmatcuk/doublestar/v4"

// GlobExcluder matches a relative path against a fixed set of user-supplied
// doublestar glob patterns (e.g. "**/*.tmp", "node_modules/**"), marking
// FlagExcludedUser on match. Patterns are matched against the slash-
// separated path relative to the indexed root.
type GlobExcluder struct {
	patterns []string
}

// NewGlobExcluder validates each pattern with doublestar.Match's syntax and
// returns an Excluder. Invalid patterns are dropped rather than failing the
// whole set, since one bad pattern in a user config shouldn't block
// indexing.
func NewGlobExcluder(patterns []string) *GlobExcluder {
	g := &GlobExcluder{}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			continue
		}
		g.patterns = append(g.patterns, p)
	}
	return g
}

// Match reports whether relPath matches any configured exclude pattern.
// isDir is accepted for interface symmetry with gitignore matching but
// doublestar patterns here are matched purely on the path string.
func (g *GlobExcluder) Match(relPath string, isDir bool) bool {
	for _, p := range g.patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}
