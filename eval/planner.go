package eval

import (
	"math"

	"github.com/blaze-search/blaze/query"
	"github.com/blaze-search/blaze/trigram"
)

// Cost is a saturating cost estimate used to order AND children so the most
// selective (cheapest) one runs first.
type Cost uint64

const (
	// CostZero marks a perfect anchor: a leaf that cannot match anything,
	// which collapses the whole AND to the empty set.
	CostZero Cost = 0
	// CostVeryBad marks an ultra-broad leaf that should be avoided as a
	// driver whenever a cheaper alternative exists.
	CostVeryBad Cost = math.MaxUint64 / 3
	// CostLinearScan marks a leaf that requires scanning the full candidate
	// set (e.g. a text term too short to have any trigrams).
	CostLinearScan Cost = math.MaxUint64 / 2
)

// addCost saturates instead of wrapping on overflow.
func addCost(a, b Cost) Cost {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

// estimateCostSimple estimates a leaf's cost without consulting the index,
// for use when an AND has fewer than two text terms (not worth the index
// lookups).
func estimateCostSimple(expr query.Expr) Cost {
	switch n := expr.(type) {
	case query.Pred:
		return estimatePredicateCostSimple(n.Predicate)
	case query.Text:
		return estimateTextCostSimple(n)
	case query.Not:
		return addCost(estimateCostSimple(n.Inner), Cost(1))
	case query.And:
		return minChildCostSimple(n.Children)
	case query.Or:
		return minChildCostSimple(n.Children)
	}
	return Cost(5)
}

func minChildCostSimple(children []query.Expr) Cost {
	if len(children) == 0 {
		return Cost(5)
	}
	best := estimateCostSimple(children[0])
	for _, c := range children[1:] {
		if v := estimateCostSimple(c); v < best {
			best = v
		}
	}
	return best
}

func estimatePredicateCostSimple(pred query.Predicate) Cost {
	switch pred.(type) {
	case query.ExtPredicate:
		return Cost(10)
	case query.SizePredicate:
		return Cost(20)
	case query.TimePredicate:
		return Cost(25)
	}
	return Cost(25)
}

func estimateTextCostSimple(term query.Text) Cost {
	n := uint64(len([]rune(term.Value)))
	if n < 3 {
		return CostLinearScan
	}
	capped := n
	if capped > 40 {
		capped = 40
	}
	return Cost(10 + (30 - capped))
}

// estimateCost estimates a leaf's cost using real index statistics
// (trigram posting-list lengths, total file count).
func estimateCost(idx IndexReader, expr query.Expr) Cost {
	candidateCount := idx.FileCount()
	return estimateCostInternal(idx, expr, candidateCount)
}

func estimateCostInternal(idx IndexReader, expr query.Expr, candidateCount int) Cost {
	switch n := expr.(type) {
	case query.Pred:
		return estimatePredicateCost(n.Predicate, candidateCount)
	case query.Text:
		return estimateTextTermCost(idx, n)
	case query.Not:
		return addCost(estimateCostInternal(idx, n.Inner, candidateCount), Cost(1))
	case query.And:
		return minChildCost(idx, n.Children, candidateCount)
	case query.Or:
		return minChildCost(idx, n.Children, candidateCount)
	}
	return Cost(5)
}

func minChildCost(idx IndexReader, children []query.Expr, candidateCount int) Cost {
	if len(children) == 0 {
		return Cost(5)
	}
	best := estimateCostInternal(idx, children[0], candidateCount)
	for _, c := range children[1:] {
		if v := estimateCostInternal(idx, c, candidateCount); v < best {
			best = v
		}
	}
	return best
}

func estimatePredicateCost(pred query.Predicate, candidateCount int) Cost {
	n := uint64(candidateCount)
	switch pred.(type) {
	case query.ExtPredicate:
		return Cost(n)
	case query.SizePredicate:
		return Cost(2 * n)
	case query.TimePredicate:
		return Cost(3 * n)
	}
	return Cost(3 * n)
}

// estimateTextTermCost estimates the cost of a text term using trigram
// posting-list lengths from the index. A trigram with zero postings
// anywhere makes the term a perfect anchor (CostZero); trigrams that appear
// in more than 30% of files/dirs are too common to help and are excluded
// from the estimate.
func estimateTextTermCost(idx IndexReader, term query.Text) Cost {
	searchText := extractSearchTerm(term.Value)
	trigrams := trigram.ForString(searchText)
	if len(trigrams) == 0 {
		return CostLinearScan
	}

	fileCount := uint64(idx.FileCount())
	dirCount := uint64(idx.DirCount())
	if fileCount == 0 {
		return CostZero
	}

	fileThreshold := uint64(float64(fileCount) * 0.30)
	dirThreshold := uint64(float64(dirCount) * 0.30)

	var fileCost, dirCost uint64
	for _, tri := range trigrams {
		fLen := uint64(len(idx.QueryTrigram(tri)))
		dLen := uint64(len(idx.QueryDirTrigram(tri)))

		if fLen == 0 && dLen == 0 {
			return CostZero
		}
		if fLen > 0 && fLen <= fileThreshold {
			fileCost += fLen
		}
		if dLen > 0 && dLen <= dirThreshold {
			dirCost += dLen
		}
	}

	if fileCost > 0 {
		return Cost(fileCost)
	}
	if dirCost > 0 {
		return Cost(fileCount + dirCost)
	}
	return CostVeryBad
}
