// Package rank scores and orders a set of matching FileIds by relevance:
// filename/path term matches, recency, file type category, path depth, and
// noise-location penalties.
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
)

// IndexReader is the subset of *index.Reader ranking needs.
type IndexReader interface {
	Ext(id index.FileId) string
	Name(id index.FileId) string
	ModifiedEpoch(id index.FileId) uint32
	Noise(id index.FileId) index.NoiseFlags
	Depth(id index.FileId) uint8
	ReconstructPath(id index.FileId) (string, error)
}

// featureSet holds a hit's ranking inputs, computing the expensive ones
// (lowercase name, lowercase full path) lazily so predicate-only queries
// (e.g. "modified:today") never pay for string work they don't need.
type featureSet struct {
	idx IndexReader
	fid index.FileId

	ext           string
	modifiedEpoch int64
	noise         index.NoiseFlags
	depth         uint8

	nameLower     *string
	fullPathLower *string
}

func extractFeatures(idx IndexReader, fid index.FileId) *featureSet {
	return &featureSet{
		idx:           idx,
		fid:           fid,
		ext:           idx.Ext(fid),
		modifiedEpoch: int64(idx.ModifiedEpoch(fid)),
		noise:         idx.Noise(fid),
		depth:         idx.Depth(fid),
	}
}

func (f *featureSet) nameLowerValue() string {
	if f.nameLower == nil {
		s := toLower(f.idx.Name(f.fid))
		f.nameLower = &s
	}
	return *f.nameLower
}

func (f *featureSet) fullPathLowerValue() (string, bool) {
	if f.fullPathLower == nil {
		path, err := f.idx.ReconstructPath(f.fid)
		if err != nil {
			return "", false
		}
		s := toLower(path)
		f.fullPathLower = &s
	}
	return *f.fullPathLower, true
}

// Context carries the text terms and "now" timestamp a ranking pass needs.
type Context struct {
	Terms []string
	Now   time.Time
}

// NewContext builds a Context from a parsed query, collecting and
// lowercasing its bare text terms in query order.
func NewContext(q query.Query, now time.Time) Context {
	var terms []string
	collectTextTerms(q.Expr, &terms)
	return Context{Terms: terms, Now: now}
}

func collectTextTerms(expr query.Expr, out *[]string) {
	switch n := expr.(type) {
	case query.And:
		for _, c := range n.Children {
			collectTextTerms(c, out)
		}
	case query.Or:
		for _, c := range n.Children {
			collectTextTerms(c, out)
		}
	case query.Not:
		collectTextTerms(n.Inner, out)
	case query.Text:
		if n.Value != "" {
			*out = append(*out, toLower(n.Value))
		}
	case query.Pred:
		// predicates contribute no text terms
	}
}

const (
	twoPassThreshold = 1000
	twoPassRatio     = 10
)

// Rank scores hits and returns the top results in descending score order,
// breaking ties by ascending FileId for determinism. limit < 0 means "no
// limit" (rank and return every hit); limit == 0 returns nil immediately.
func Rank(idx IndexReader, q query.Query, hits []index.FileId, now time.Time, limit int) []index.FileId {
	if len(hits) == 0 {
		return nil
	}
	ctx := NewContext(q, now)

	effectiveLimit := len(hits)
	switch {
	case limit == 0:
		return nil
	case limit > 0 && limit < len(hits):
		effectiveLimit = limit
	}

	if len(hits) > twoPassThreshold && len(hits)/effectiveLimit > twoPassRatio {
		return rankTwoPass(idx, ctx, hits, effectiveLimit)
	}

	type scored struct {
		fid   index.FileId
		score int32
	}
	all := make([]scored, len(hits))
	for i, fid := range hits {
		f := extractFeatures(idx, fid)
		all[i] = scored{fid: fid, score: computeScore(f, ctx)}
	}

	less := func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].fid < all[j].fid
	}

	if effectiveLimit < len(all)/2 {
		// Partial selection: only the top effectiveLimit need to be
		// correctly ordered, so avoid a full sort.
		partialSelect(all, effectiveLimit, less)
		all = all[:effectiveLimit]
		sort.SliceStable(all, less)
	} else {
		sort.SliceStable(all, less)
		all = all[:effectiveLimit]
	}

	out := make([]index.FileId, len(all))
	for i, s := range all {
		out[i] = s.fid
	}
	return out
}

// rankTwoPass avoids extracting expensive features (name/path matching) for
// files that won't make the final cut: it quick-scores every hit with only
// cheap features, keeps a 3x-limit buffer of the best quick scores, then
// fully scores only that buffer.
func rankTwoPass(idx IndexReader, ctx Context, hits []index.FileId, limit int) []index.FileId {
	type scored struct {
		fid   index.FileId
		score int32
	}
	quick := make([]scored, len(hits))
	for i, fid := range hits {
		f := extractFeatures(idx, fid)
		quick[i] = scored{fid: fid, score: computeQuickScore(f, ctx)}
	}

	candidateLimit := limit * 3
	if candidateLimit > len(quick) {
		candidateLimit = len(quick)
	}
	less := func(i, j int) bool {
		if quick[i].score != quick[j].score {
			return quick[i].score > quick[j].score
		}
		return quick[i].fid < quick[j].fid
	}
	partialSelect(quick, candidateLimit, less)
	quick = quick[:candidateLimit]

	full := make([]scored, len(quick))
	for i, q := range quick {
		f := extractFeatures(idx, q.fid)
		full[i] = scored{fid: q.fid, score: computeScore(f, ctx)}
	}
	sort.SliceStable(full, func(i, j int) bool {
		if full[i].score != full[j].score {
			return full[i].score > full[j].score
		}
		return full[i].fid < full[j].fid
	})
	if len(full) > limit {
		full = full[:limit]
	}

	out := make([]index.FileId, len(full))
	for i, s := range full {
		out[i] = s.fid
	}
	return out
}

// partialSelect rearranges s so the first k elements (by less) are the k
// smallest under less, unordered among themselves; everything after index k
// is >= everything before it. Go's stdlib has no nth_element, so this is a
// Hoare-style quickselect grounded on the standard selection algorithm.
func partialSelect[T any](s []T, k int, less func(i, j int) bool) {
	if k <= 0 || k >= len(s) {
		return
	}
	lo, hi := 0, len(s)-1
	for lo < hi {
		p := partition(s, lo, hi, less)
		switch {
		case p == k:
			return
		case p < k:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partition[T any](s []T, lo, hi int, less func(i, j int) bool) int {
	mid := lo + (hi-lo)/2
	s[mid], s[hi] = s[hi], s[mid]
	store := lo
	for i := lo; i < hi; i++ {
		if less(i, hi) {
			s[i], s[store] = s[store], s[i]
			store++
		}
	}
	s[store], s[hi] = s[hi], s[store]
	return store
}

func toLower(s string) string { return strings.ToLower(s) }
