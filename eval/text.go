package eval

import (
	"sort"
	"strings"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
	"github.com/blaze-search/blaze/setalg"
	"github.com/blaze-search/blaze/trigram"
)

const (
	// smallCandidateCutoff: below this many candidates, a linear scan beats
	// the overhead of trigram filtering.
	smallCandidateCutoff = 2000
	// earlyVerifyCutoff: once trigram intersection has narrowed the set to
	// this size or smaller, stop intersecting further trigrams and verify.
	earlyVerifyCutoff = 256
	// maxTrigramGlobalShare: trigrams hitting more than this fraction of all
	// files are too common to help and are skipped.
	maxTrigramGlobalShare = 0.30
	// maxTrigramsPerQuery: only the rarest N trigrams are used; beyond that
	// the filtering power gained rarely justifies the extra intersections.
	maxTrigramsPerQuery = 3
)

// textSearchState holds the per-term values derived once before matching.
type textSearchState struct {
	needleLower string
	trigrams    []trigram.T
}

func newTextSearchState(term query.Text) textSearchState {
	search := extractSearchTerm(term.Value)
	return textSearchState{
		needleLower: strings.ToLower(search),
		trigrams:    trigram.ForString(search),
	}
}

func (s textSearchState) isTrigramCapable() bool { return len(s.trigrams) > 0 }

// containsLowercaseASCII reports whether haystack contains needleLower
// (already lowercased), case-insensitively for ASCII and via full Unicode
// folding otherwise.
func containsLowercaseASCII(haystack, needleLower string) bool {
	if needleLower == "" {
		return true
	}
	if isASCII(haystack) {
		h := haystack
		n := needleLower
		if len(n) > len(h) {
			return false
		}
	outer:
		for start := 0; start <= len(h)-len(n); start++ {
			for i := 0; i < len(n); i++ {
				if toLowerASCIIByte(h[start+i]) != n[i] {
					continue outer
				}
			}
			return true
		}
		return false
	}
	return strings.Contains(strings.ToLower(haystack), needleLower)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func toLowerASCIIByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// extractSearchTerm treats "commands/query.rs" as intending "query.rs".
func extractSearchTerm(text string) string {
	if i := strings.LastIndexByte(text, '/'); i >= 0 {
		return text[i+1:]
	}
	return text
}

// evalTextTerm evaluates a single text term against candidates, returning a
// sorted subset.
func evalTextTerm(idx IndexReader, term query.Text, candidates []index.FileId) []index.FileId {
	state := newTextSearchState(term)
	return evalTextBaseWithState(idx, state, candidates)
}

// filterCandidatesByAllTerms checks all terms in a single pass over
// candidates, trying the filename first and only reconstructing the full
// path when the filename doesn't already match.
func filterCandidatesByAllTerms(idx IndexReader, terms []query.Text, candidates []index.FileId) []index.FileId {
	if len(candidates) == 0 || len(terms) == 0 {
		return candidates
	}
	needles := make([]string, len(terms))
	for i, t := range terms {
		needles[i] = strings.ToLower(extractSearchTerm(t.Value))
	}

	out := make([]index.FileId, 0, len(candidates))
	for _, fid := range candidates {
		name := idx.Name(fid)
		if pathContainsAllTerms(name, needles) {
			out = append(out, fid)
			continue
		}
		path, err := idx.ReconstructPath(fid)
		if err != nil {
			continue
		}
		if pathContainsAllTerms(path, needles) {
			out = append(out, fid)
		}
	}
	return out
}

func pathContainsAllTerms(path string, needles []string) bool {
	for _, needle := range needles {
		if !containsLowercaseASCII(path, needle) {
			return false
		}
	}
	return true
}

func evalTextBaseWithState(idx IndexReader, state textSearchState, candidates []index.FileId) []index.FileId {
	if len(candidates) == 0 {
		return nil
	}
	if !state.isTrigramCapable() || len(candidates) <= smallCandidateCutoff {
		return evalTextLinearScanWithPaths(idx, state.needleLower, candidates)
	}

	fileCount := idx.FileCount()
	if fileCount == 0 {
		return nil
	}

	threshold := uint64(float64(fileCount) * maxTrigramGlobalShare)
	type triLen struct {
		tri trigram.T
		n   int
	}
	var items []triLen
	for _, tri := range state.trigrams {
		n := len(idx.QueryTrigram(tri))
		if n == 0 {
			// No path anywhere contains this trigram, hence not the needle.
			return nil
		}
		if uint64(n) <= threshold {
			items = append(items, triLen{tri, n})
		}
	}
	if len(items) == 0 {
		return evalTextLinearScanWithPaths(idx, state.needleLower, candidates)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].n < items[j].n })
	if len(items) > maxTrigramsPerQuery {
		items = items[:maxTrigramsPerQuery]
	}
	effective := make([]trigram.T, len(items))
	for i, it := range items {
		effective[i] = it.tri
	}

	triCandidates := getFileTrigramCandidates(idx, effective, candidates)
	if len(triCandidates) == 0 {
		return nil
	}

	out := make([]index.FileId, 0, len(triCandidates))
	for _, fid := range triCandidates {
		name := idx.Name(fid)
		if containsLowercaseASCII(name, state.needleLower) {
			out = append(out, fid)
			continue
		}
		path, err := idx.ReconstructPath(fid)
		if err != nil {
			continue
		}
		if containsLowercaseASCII(path, state.needleLower) {
			out = append(out, fid)
		}
	}
	return out
}

func evalTextLinearScanWithPaths(idx IndexReader, needleLower string, candidates []index.FileId) []index.FileId {
	if needleLower == "" {
		return candidates
	}
	out := make([]index.FileId, 0, len(candidates))
	for _, fid := range candidates {
		name := idx.Name(fid)
		if containsLowercaseASCII(name, needleLower) {
			out = append(out, fid)
			continue
		}
		path, err := idx.ReconstructPath(fid)
		if err != nil {
			continue
		}
		if containsLowercaseASCII(path, needleLower) {
			out = append(out, fid)
		}
	}
	return out
}

// getFileTrigramCandidates intersects the current candidate set with each
// trigram's posting list, rarest trigram first, bailing out early once the
// working set has shrunk to earlyVerifyCutoff or fewer entries.
func getFileTrigramCandidates(idx IndexReader, trigrams []trigram.T, candidates []index.FileId) []index.FileId {
	if len(trigrams) == 0 || len(candidates) == 0 {
		return nil
	}

	type triLen struct {
		tri trigram.T
		n   int
	}
	tris := make([]triLen, len(trigrams))
	for i, t := range trigrams {
		tris[i] = triLen{t, len(idx.QueryTrigram(t))}
	}
	sort.Slice(tris, func(i, j int) bool { return tris[i].n < tris[j].n })

	candU32 := fileIdsToU32(candidates)
	var current []uint32
	hasCurrent := false

	for _, tl := range tris {
		postings := idx.QueryTrigram(tl.tri)
		if postings == nil {
			return nil
		}
		if !hasCurrent {
			current = setalg.IntersectAdaptive(candU32, postings)
			if len(current) == 0 {
				return nil
			}
			if len(current) <= earlyVerifyCutoff {
				return u32ToFileIds(current)
			}
			hasCurrent = true
			continue
		}
		current = setalg.IntersectAdaptive(current, postings)
		if len(current) == 0 {
			return nil
		}
		if len(current) <= earlyVerifyCutoff {
			return u32ToFileIds(current)
		}
	}

	if !hasCurrent {
		return nil
	}
	return u32ToFileIds(current)
}
