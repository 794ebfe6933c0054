package eval

import (
	"math"
	"testing"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
)

func TestEstimateTextCostSimpleShortTermIsLinearScan(t *testing.T) {
	if got := estimateTextCostSimple(query.Text{Value: "ab"}); got != CostLinearScan {
		t.Errorf("estimateTextCostSimple(len 2) = %v, want CostLinearScan", got)
	}
	if got := estimateTextCostSimple(query.Text{Value: "abc"}); got == CostLinearScan {
		t.Errorf("estimateTextCostSimple(len 3) = CostLinearScan, want a finite cost")
	}
}

func TestEstimatePredicateCostSimpleOrdering(t *testing.T) {
	ext := estimatePredicateCostSimple(query.ExtPredicate{})
	size := estimatePredicateCostSimple(query.SizePredicate{})
	tm := estimatePredicateCostSimple(query.TimePredicate{})
	if !(ext < size && size < tm) {
		t.Errorf("expected ext < size < time cost ordering, got ext=%v size=%v time=%v", ext, size, tm)
	}
}

func TestEstimateTextTermCostZeroWhenTrigramNeverAppears(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{
		fileRec(root, "alpha.txt", false),
	})

	cost := estimateTextTermCost(r, query.Text{Value: "zzzNeverMatcheszzz"})
	if cost != CostZero {
		t.Errorf("estimateTextTermCost(unmatched term) = %v, want CostZero", cost)
	}
}

func TestEstimateTextTermCostFiniteForMatchingTerm(t *testing.T) {
	// Four files so that a trigram held by one file stays within the 30%
	// share (floor(0.3*4) = 1) and is not discarded as too broad.
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{
		fileRec(root, "query.rs", false),
		fileRec(root, "other.rs", false),
		fileRec(root, "alpha.txt", false),
		fileRec(root, "beta.txt", false),
	})

	cost := estimateTextTermCost(r, query.Text{Value: "query"})
	if cost == CostZero || cost == CostVeryBad || cost == CostLinearScan {
		t.Errorf("estimateTextTermCost(query) = %v, want a concrete finite cost", cost)
	}
}

func TestAddCostSaturates(t *testing.T) {
	near := Cost(math.MaxUint64)
	if got := addCost(near, Cost(10)); got != Cost(math.MaxUint64) {
		t.Errorf("addCost near max overflow = %v, want saturated max", got)
	}
}
