package query

import "testing"

// size smartcase (1Mb = bits, 1MB = bytes, 8Kb = bits).
func TestSizeSmartcaseBitsVsBytes(t *testing.T) {
	cases := []struct {
		query string
		want  uint64
	}{
		{"size:1Mb", 1024 * 1024 / 8},
		{"size:1MB", 1024 * 1024},
		{"size:8Kb", 8 * 1024 / 8},
	}
	for _, c := range cases {
		q := Parse(c.query)
		p, ok := q.Expr.(Pred)
		if !ok {
			t.Fatalf("Parse(%q) = %#v, want Pred", c.query, q.Expr)
		}
		sp, ok := p.Predicate.(SizePredicate)
		if !ok {
			t.Fatalf("Parse(%q).Predicate = %#v, want SizePredicate", c.query, p.Predicate)
		}
		if sp.Bytes != c.want {
			t.Errorf("Parse(%q).Bytes = %d, want %d", c.query, sp.Bytes, c.want)
		}
	}
}

func TestSizeComparisonOperators(t *testing.T) {
	q := Parse("size:>=100k")
	p := q.Expr.(Pred)
	sp := p.Predicate.(SizePredicate)
	if sp.Op != OpGte {
		t.Errorf("Op = %v, want OpGte", sp.Op)
	}
	if sp.Bytes != 100*1024 {
		t.Errorf("Bytes = %d, want %d", sp.Bytes, 100*1024)
	}
}

func TestSizePlainBytesNoUnit(t *testing.T) {
	q := Parse("size:512")
	sp := q.Expr.(Pred).Predicate.(SizePredicate)
	if sp.Bytes != 512 {
		t.Errorf("Bytes = %d, want 512", sp.Bytes)
	}
}

// modified:today resolves as a macro predicate.
func TestModifiedTodayMacro(t *testing.T) {
	q := Parse("modified:today")
	p, ok := q.Expr.(Pred)
	if !ok {
		t.Fatalf("Parse() = %#v, want Pred", q.Expr)
	}
	tp, ok := p.Predicate.(TimePredicate)
	if !ok {
		t.Fatalf("Predicate = %#v, want TimePredicate", p.Predicate)
	}
	if tp.Field != FieldModified {
		t.Errorf("Field = %v, want FieldModified", tp.Field)
	}
	if tp.Spec.Kind != TimeMacro || tp.Spec.Macro != MacroToday {
		t.Errorf("Spec = %#v, want TimeMacro/MacroToday", tp.Spec)
	}
	if tp.Op != OpGte {
		t.Errorf("Op = %v, want OpGte", tp.Op)
	}
}

func TestCreatedRelativeLiteral(t *testing.T) {
	q := Parse("created:-7d")
	tp := q.Expr.(Pred).Predicate.(TimePredicate)
	if tp.Field != FieldCreated {
		t.Errorf("Field = %v, want FieldCreated", tp.Field)
	}
	if tp.Spec.Kind != TimeRelative || tp.Spec.RelativeAmount != -7 || tp.Spec.RelativeUnit != 'd' {
		t.Errorf("Spec = %#v, want TimeRelative{-7, 'd'}", tp.Spec)
	}
}

// a leading '+' is accepted and treated as positive.
func TestRelativeTimeLeadingPlusAcceptedAsPositive(t *testing.T) {
	spec, ok := parseRelativeTimeLiteral("+5d")
	if !ok {
		t.Fatal("parseRelativeTimeLiteral(+5d) failed, want success")
	}
	if spec.RelativeAmount != 5 {
		t.Errorf("RelativeAmount = %d, want 5", spec.RelativeAmount)
	}
}

func TestAbsoluteDatePredicate(t *testing.T) {
	q := Parse("modified:>2024-01-15")
	tp := q.Expr.(Pred).Predicate.(TimePredicate)
	if tp.Op != OpGt {
		t.Errorf("Op = %v, want OpGt", tp.Op)
	}
	if tp.Spec.Kind != TimeAbsolute {
		t.Errorf("Spec.Kind = %v, want TimeAbsolute", tp.Spec.Kind)
	}
}

func TestExtPredicateStripsDotAndLowercases(t *testing.T) {
	q := Parse("ext:.RS")
	ep := q.Expr.(Pred).Predicate.(ExtPredicate)
	if ep.Value != "rs" {
		t.Errorf("Value = %q, want %q", ep.Value, "rs")
	}
}

func TestExtractCmpOpProbeOrder(t *testing.T) {
	cases := []struct {
		in      string
		wantOp  CmpOp
		wantRem string
	}{
		{">=10", OpGte, "10"},
		{"<=10", OpLte, "10"},
		{">10", OpGt, "10"},
		{"<10", OpLt, "10"},
		{"=10", OpEq, "10"},
		{"!=10", OpNe, "10"},
		{"10", OpEq, "10"},
	}
	for _, c := range cases {
		op, rem, ok := extractCmpOp(c.in)
		if c.in == "10" {
			if ok {
				t.Errorf("extractCmpOp(%q) matched an op, want none", c.in)
			}
			continue
		}
		if !ok || op != c.wantOp || rem != c.wantRem {
			t.Errorf("extractCmpOp(%q) = (%v,%q,%v), want (%v,%q,true)", c.in, op, rem, ok, c.wantOp, c.wantRem)
		}
	}
}
