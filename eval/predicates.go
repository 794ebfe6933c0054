package eval

import (
	"strings"
	"time"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
)

// evalPredicate dispatches a typed field predicate to its field-specific
// evaluator.
func evalPredicate(idx IndexReader, pred query.Predicate, candidates []index.FileId, now time.Time) []index.FileId {
	switch p := pred.(type) {
	case query.ExtPredicate:
		return evalExtPredicate(idx, p, candidates)
	case query.SizePredicate:
		return evalSizePredicate(idx, p, candidates)
	case query.TimePredicate:
		return evalTimePredicate(idx, p, candidates, now)
	}
	return nil
}

func evalExtPredicate(idx IndexReader, p query.ExtPredicate, candidates []index.FileId) []index.FileId {
	out := make([]index.FileId, 0, len(candidates))
	for _, fid := range candidates {
		if cmpStrCI(idx.Ext(fid), p.Value, p.Op) {
			out = append(out, fid)
		}
	}
	return out
}

func evalSizePredicate(idx IndexReader, p query.SizePredicate, candidates []index.FileId) []index.FileId {
	out := make([]index.FileId, 0, len(candidates))
	for _, fid := range candidates {
		if cmpU64(idx.Size(fid), p.Bytes, p.Op) {
			out = append(out, fid)
		}
	}
	return out
}

func evalTimePredicate(idx IndexReader, p query.TimePredicate, candidates []index.FileId, now time.Time) []index.FileId {
	threshold := p.Spec.Resolve(now.Unix())
	out := make([]index.FileId, 0, len(candidates))
	for _, fid := range candidates {
		var epoch int64
		if p.Field == query.FieldCreated {
			epoch = int64(idx.CreatedEpoch(fid))
		} else {
			epoch = int64(idx.ModifiedEpoch(fid))
		}
		if cmpI64(epoch, threshold, p.Op) {
			out = append(out, fid)
		}
	}
	return out
}

// cmpStrCI compares two strings case-insensitively. Gt/Gte/Lt/Lte are
// always false for extensions: lexical ordering of an extension string
// isn't a meaningful comparison.
func cmpStrCI(lhs, rhs string, op query.CmpOp) bool {
	eq := strings.EqualFold(lhs, rhs)
	switch op {
	case query.OpEq:
		return eq
	case query.OpNe:
		return !eq
	}
	return false
}

func cmpU64(lhs, rhs uint64, op query.CmpOp) bool {
	switch op {
	case query.OpEq:
		return lhs == rhs
	case query.OpNe:
		return lhs != rhs
	case query.OpGt:
		return lhs > rhs
	case query.OpGte:
		return lhs >= rhs
	case query.OpLt:
		return lhs < rhs
	case query.OpLte:
		return lhs <= rhs
	}
	return false
}

func cmpI64(lhs, rhs int64, op query.CmpOp) bool {
	switch op {
	case query.OpEq:
		return lhs == rhs
	case query.OpNe:
		return lhs != rhs
	case query.OpGt:
		return lhs > rhs
	case query.OpGte:
		return lhs >= rhs
	case query.OpLt:
		return lhs < rhs
	case query.OpLte:
		return lhs <= rhs
	}
	return false
}
