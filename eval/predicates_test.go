package eval

import (
	"testing"

	"github.com/blaze-search/blaze/query"
)

func TestCmpStrCIEqualityOnly(t *testing.T) {
	cases := []struct {
		lhs, rhs string
		op       query.CmpOp
		want     bool
	}{
		{"RS", "rs", query.OpEq, true},
		{"rs", "go", query.OpEq, false},
		{"rs", "go", query.OpNe, true},
		{"rs", "rs", query.OpGt, false},
		{"rs", "rs", query.OpLt, false},
	}
	for _, c := range cases {
		if got := cmpStrCI(c.lhs, c.rhs, c.op); got != c.want {
			t.Errorf("cmpStrCI(%q, %q, %v) = %v, want %v", c.lhs, c.rhs, c.op, got, c.want)
		}
	}
}

func TestCmpU64AllOperators(t *testing.T) {
	cases := []struct {
		lhs, rhs uint64
		op       query.CmpOp
		want     bool
	}{
		{10, 10, query.OpEq, true},
		{10, 20, query.OpNe, true},
		{20, 10, query.OpGt, true},
		{10, 10, query.OpGte, true},
		{5, 10, query.OpLt, true},
		{10, 10, query.OpLte, true},
	}
	for _, c := range cases {
		if got := cmpU64(c.lhs, c.rhs, c.op); got != c.want {
			t.Errorf("cmpU64(%d, %d, %v) = %v, want %v", c.lhs, c.rhs, c.op, got, c.want)
		}
	}
}
