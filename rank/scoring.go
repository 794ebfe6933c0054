package rank

import (
	"strings"

	"github.com/blaze-search/blaze/index"
)

// Filename match scores: exact beats prefix beats substring.
const (
	scoreNameExact       = 120
	scoreNamePrefix      = 80
	scoreNameContainsBase = 40
	scoreNameContainsMin  = 10
)

// Path match scores.
const (
	scorePathComponent = 30
	scorePathContains  = 15
)

const (
	secsPerDay   = 86400
	secsPerWeek  = 7 * secsPerDay
	secsPerMonth = 30 * secsPerDay
)

type recencyTier struct {
	maxAgeSecs int64
	score      int32
}

// recencyTiers must stay ordered by ascending maxAgeSecs: the first tier an
// age qualifies for wins.
var recencyTiers = []recencyTier{
	{secsPerDay, 40},
	{secsPerWeek, 25},
	{secsPerMonth, 10},
}

// Noise-location penalties, scaled to the same order of magnitude as the
// name/path/recency scores so they meaningfully demote noisy paths.
const (
	penaltySystemDir  = 60
	penaltyBuildDir   = 90
	penaltyCacheDir   = 70
	penaltyHashySeg   = 40
	penaltyVeryDeep   = 10
	penaltyAppDataDir = 50
	penaltyLogDir     = 40
)

const (
	depthPenaltyStart    = 8
	depthPenaltyPerLevel = 2
	depthPenaltyMax      = 30
)

// typeCategory returns a base score bump for known file extensions:
// documents and source files are boosted, compiled binaries are penalized.
// This is an intentionally hardcoded, opinionated table rather than a
// generic extension-weighting scheme.
func typeCategory(ext string) int32 {
	switch ext {
	case "pdf", "doc", "docx", "txt", "md", "rst", "rtf", "odt":
		return 20
	case "rs", "py", "js", "ts", "jsx", "tsx", "go", "java", "c", "cpp", "h", "hpp",
		"rb", "php", "swift", "kt", "scala", "hs", "ml", "ex", "exs", "clj", "cs",
		"fs", "lua", "sh", "bash", "zsh", "fish", "pl", "r", "sql", "zig", "nim",
		"v", "d", "cr":
		return 15
	case "json", "yaml", "yml", "toml", "ini", "cfg", "conf", "xml", "env":
		return 5
	case "exe", "dll", "so", "dylib", "o", "a", "lib", "bin", "class", "pyc", "pyo", "wasm":
		return -20
	}
	return 0
}

func sumTermScores(ctx Context, scorer func(term string) int32) int32 {
	if len(ctx.Terms) == 0 {
		return 0
	}
	var total int32
	for _, term := range ctx.Terms {
		total += scorer(term)
	}
	return total
}

// computeScore computes the full relevance score for a hit: higher is more
// relevant.
func computeScore(f *featureSet, ctx Context) int32 {
	var score int32
	score += scoreNameMatch(f, ctx)
	score += scorePathMatch(f, ctx)
	score += scoreRecency(f, ctx)
	score += scorePathDepth(f)
	score += scoreTypeCategory(f)
	score -= noisePenalty(f)
	return score
}

// computeQuickScore approximates computeScore using only cheap,
// precomputed features (no name/path string matching), for the first pass
// of the two-pass ranking strategy.
func computeQuickScore(f *featureSet, ctx Context) int32 {
	var score int32
	score += scoreRecency(f, ctx)
	score += scoreTypeCategory(f)
	score += scorePathDepth(f)
	score -= noisePenalty(f)
	return score
}

func scoreNameMatch(f *featureSet, ctx Context) int32 {
	if len(ctx.Terms) == 0 {
		return 0
	}
	name := f.nameLowerValue()
	return sumTermScores(ctx, func(term string) int32 { return scoreTermInName(name, term) })
}

func scoreTermInName(name, term string) int32 {
	switch {
	case name == term:
		return scoreNameExact
	case strings.HasPrefix(name, term):
		return scoreNamePrefix
	default:
		if pos := strings.Index(name, term); pos >= 0 {
			s := int32(scoreNameContainsBase - pos)
			if s < scoreNameContainsMin {
				return scoreNameContainsMin
			}
			return s
		}
		return 0
	}
}

func scorePathMatch(f *featureSet, ctx Context) int32 {
	if len(ctx.Terms) == 0 {
		return 0
	}
	fullPath, ok := f.fullPathLowerValue()
	if !ok {
		return 0
	}
	return sumTermScores(ctx, func(term string) int32 { return scoreTermInPath(fullPath, term) })
}

func scoreTermInPath(fullPath, term string) int32 {
	for _, component := range strings.Split(fullPath, "/") {
		if component != "" && component == term {
			return scorePathComponent
		}
	}
	if strings.Contains(fullPath, term) {
		return scorePathContains
	}
	return 0
}

// scoreRecency rewards recently modified files, except in noisy locations
// (build/cache/app-data/log dirs) where recency is not a useful signal.
func scoreRecency(f *featureSet, ctx Context) int32 {
	if f.noise&(index.NoiseBuildDir|index.NoiseCacheDir|index.NoiseAppDataDir|index.NoiseLogDir) != 0 {
		return 0
	}
	ageSecs := ctx.Now.Unix() - f.modifiedEpoch
	for _, tier := range recencyTiers {
		if ageSecs < tier.maxAgeSecs {
			return tier.score
		}
	}
	return 0
}

func scorePathDepth(f *featureSet) int32 {
	excess := int32(f.depth) - depthPenaltyStart
	if excess < 0 {
		excess = 0
	}
	penalty := excess * depthPenaltyPerLevel
	if penalty > depthPenaltyMax {
		penalty = depthPenaltyMax
	}
	return -penalty
}

// scoreTypeCategory downweights the type bonus in noisy locations so that,
// e.g., a *.rs file under target/ doesn't compete with real project
// sources.
func scoreTypeCategory(f *featureSet) int32 {
	base := typeCategory(f.ext)
	if f.noise&(index.NoiseBuildDir|index.NoiseCacheDir|index.NoiseAppDataDir|index.NoiseLogDir|index.NoiseSystemDir) != 0 {
		return base / 3
	}
	return base
}

func noisePenalty(f *featureSet) int32 {
	var penalty int32
	n := f.noise
	if n&index.NoiseSystemDir != 0 {
		penalty += penaltySystemDir
	}
	if n&index.NoiseBuildDir != 0 {
		penalty += penaltyBuildDir
	}
	if n&index.NoiseCacheDir != 0 {
		penalty += penaltyCacheDir
	}
	if n&index.NoiseHashySeg != 0 {
		penalty += penaltyHashySeg
	}
	if n&index.NoiseVeryDeep != 0 {
		penalty += penaltyVeryDeep
	}
	if n&index.NoiseAppDataDir != 0 {
		penalty += penaltyAppDataDir
	}
	if n&index.NoiseLogDir != 0 {
		penalty += penaltyLogDir
	}
	return penalty
}
