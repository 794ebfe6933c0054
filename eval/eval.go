// Package eval evaluates a parsed query against an index: boolean algebra
// over leaf evaluators (text and predicate), cost-based reordering of AND
// children, and a fast path for conjunctions of only text terms.
package eval

import (
	"sort"
	"time"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
	"github.com/blaze-search/blaze/setalg"
	"github.com/blaze-search/blaze/trigram"
)

// IndexReader is the subset of *index.Reader the evaluator needs. Any type
// with these methods can back an Engine; this package's tests use a real
// *index.Reader over a small on-disk index.
type IndexReader interface {
	FileCount() int
	DirCount() int
	Name(id index.FileId) string
	Ext(id index.FileId) string
	Size(id index.FileId) uint64
	ModifiedEpoch(id index.FileId) uint32
	CreatedEpoch(id index.FileId) uint32
	Depth(id index.FileId) uint8
	Noise(id index.FileId) index.NoiseFlags
	QueryTrigram(t trigram.T) []uint32
	QueryDirTrigram(t trigram.T) []uint32
	ReconstructPath(id index.FileId) (string, error)
}

// Engine evaluates queries against a single index.
type Engine struct {
	index IndexReader
}

// New returns an Engine bound to index.
func New(idx IndexReader) *Engine {
	return &Engine{index: idx}
}

// EvalQuery evaluates the whole index as the initial candidate set and
// returns a sorted slice of matching FileIds. The query's "now" (used by
// relative/macro time predicates) is captured once at the start.
func (e *Engine) EvalQuery(q query.Query) []index.FileId {
	now := time.Now()
	candidates := make([]index.FileId, e.index.FileCount())
	for i := range candidates {
		candidates[i] = index.FileId(i)
	}
	return e.evalExpr(q.Expr, candidates, now)
}

func (e *Engine) evalExpr(expr query.Expr, candidates []index.FileId, now time.Time) []index.FileId {
	switch n := expr.(type) {
	case query.Text:
		return evalTextTerm(e.index, n, candidates)
	case query.Pred:
		return evalPredicate(e.index, n.Predicate, candidates, now)
	case query.And:
		return e.evalAnd(n, candidates, now)
	case query.Or:
		return e.evalOr(n, candidates, now)
	case query.Not:
		inner := e.evalExpr(n.Inner, candidates, now)
		if len(inner) == 0 {
			return candidates
		}
		return u32ToFileIds(setalg.DiffSorted(fileIdsToU32(candidates), fileIdsToU32(inner)))
	}
	return candidates
}

func (e *Engine) evalAnd(n query.And, candidates []index.FileId, now time.Time) []index.FileId {
	if len(n.Children) == 0 {
		return candidates
	}

	textTerms := make([]query.Text, 0, len(n.Children))
	for _, c := range n.Children {
		if t, ok := c.(query.Text); ok {
			textTerms = append(textTerms, t)
		}
	}
	if len(textTerms) >= 2 && len(textTerms) == len(n.Children) {
		return e.evalPureTextConjunction(textTerms, candidates)
	}

	ordered := make([]query.Expr, len(n.Children))
	copy(ordered, n.Children)
	useIndexCosts := len(textTerms) >= 2
	if useIndexCosts {
		sort.SliceStable(ordered, func(i, j int) bool {
			return estimateCost(e.index, ordered[i]) < estimateCost(e.index, ordered[j])
		})
	} else {
		sort.SliceStable(ordered, func(i, j int) bool {
			return estimateCostSimple(ordered[i]) < estimateCostSimple(ordered[j])
		})
	}

	current := candidates
	for _, child := range ordered {
		if len(current) == 0 {
			break
		}
		current = e.evalExpr(child, current, now)
	}
	return current
}

func (e *Engine) evalOr(n query.Or, candidates []index.FileId, now time.Time) []index.FileId {
	if len(n.Children) == 0 {
		return nil
	}
	var acc []index.FileId
	for _, child := range n.Children {
		subset := e.evalExpr(child, candidates, now)
		if len(acc) == 0 {
			acc = subset
		} else if len(subset) != 0 {
			acc = u32ToFileIds(setalg.UnionSorted(fileIdsToU32(acc), fileIdsToU32(subset)))
		}
	}
	return acc
}

// evalPureTextConjunction is the optimized path for an AND of 2+ text
// terms: seed from the most selective non-broad term's trigram candidates,
// then verify every term in a single pass over the seed set.
func (e *Engine) evalPureTextConjunction(terms []query.Text, candidates []index.FileId) []index.FileId {
	if len(candidates) == 0 {
		return nil
	}
	if len(terms) == 0 {
		return candidates
	}

	fileCount := e.index.FileCount()
	if fileCount == 0 {
		return nil
	}
	broadThreshold := uint64(float64(fileCount) * 0.6)

	type termCost struct {
		cost  Cost
		term  query.Text
		broad bool
	}
	costs := make([]termCost, 0, len(terms))
	for _, term := range terms {
		cost := estimateTextTermCost(e.index, term)
		if cost == CostZero {
			return nil
		}
		broad := uint64(cost) > broadThreshold || cost == CostVeryBad || cost == CostLinearScan
		costs = append(costs, termCost{cost: cost, term: term, broad: broad})
	}
	sort.SliceStable(costs, func(i, j int) bool { return costs[i].cost < costs[j].cost })

	seed := costs[0].term
	for _, tc := range costs {
		if !tc.broad {
			seed = tc.term
			break
		}
	}

	seedCandidates := evalTextTerm(e.index, seed, candidates)
	if len(seedCandidates) == 0 {
		return nil
	}

	return filterCandidatesByAllTerms(e.index, terms, seedCandidates)
}

func fileIdsToU32(ids []index.FileId) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

func u32ToFileIds(vs []uint32) []index.FileId {
	if vs == nil {
		return nil
	}
	out := make([]index.FileId, len(vs))
	for i, v := range vs {
		out[i] = index.FileId(v)
	}
	return out
}
