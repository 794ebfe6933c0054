package query

// Expr is a node in the query AST. The concrete types are And, Or,
// Not, Text, and Pred.
type Expr interface{ isExpr() }

// And is a conjunction. And{} (no children) is the neutral "true"
// expression produced for degenerate parse positions and empty input.
type And struct{ Children []Expr }

// Or is a disjunction. Or{} (no children) evaluates to the empty set.
type Or struct{ Children []Expr }

// Not negates Inner.
type Not struct{ Inner Expr }

// Text is a bare text term or an unresolved field atom (preserved as
// "field:value" when the field name isn't one of the typed predicate
// fields).
type Text struct {
	Value    string
	IsPhrase bool
	IsGlob   bool
}

// Pred is a typed field predicate (ext, size, created, modified).
type Pred struct {
	Predicate Predicate
}

func (And) isExpr()  {}
func (Or) isExpr()   {}
func (Not) isExpr()  {}
func (Text) isExpr() {}
func (Pred) isExpr() {}

// CmpOp is a predicate comparison operator.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
)

// Predicate is the common interface for the three typed predicate kinds.
type Predicate interface{ isPredicate() }

// ExtPredicate matches a file's lowercase extension. Only OpEq/OpNe are
// meaningful; other operators always evaluate false.
type ExtPredicate struct {
	Op    CmpOp
	Value string
}

// SizePredicate matches a file's byte size.
type SizePredicate struct {
	Op    CmpOp
	Bytes uint64
}

// TimeField selects which on-disk timestamp a TimePredicate compares
// against.
type TimeField int

const (
	FieldModified TimeField = iota
	FieldCreated
)

// TimePredicate matches a file's modified/created time. Spec carries an
// unresolved TimeSpec because macros and relative literals are relative to
// "now", which the evaluator captures once per query.
type TimePredicate struct {
	Field TimeField
	Op    CmpOp
	Spec  TimeSpec
}

func (ExtPredicate) isPredicate()  {}
func (SizePredicate) isPredicate() {}
func (TimePredicate) isPredicate() {}

// TimeKind distinguishes the three shapes a time predicate value can take.
type TimeKind int

const (
	TimeMacro TimeKind = iota
	TimeRelative
	TimeAbsolute
)

// TimeMacroKind enumerates the named time macros.
type TimeMacroKind int

const (
	MacroToday TimeMacroKind = iota
	MacroYesterday
	MacroThisWeek
	MacroLastWeek
	MacroThisMonth
	MacroLastMonth
)

// TimeSpec is the parsed, not-yet-resolved value of a time predicate.
type TimeSpec struct {
	Kind TimeKind

	Macro TimeMacroKind // valid when Kind == TimeMacro

	RelativeAmount int64 // valid when Kind == TimeRelative; may be negative
	RelativeUnit   byte  // 'd', 'h', 'w', or 'y'

	AbsoluteEpoch int64 // valid when Kind == TimeAbsolute; UTC midnight
}

// Resolve returns the absolute epoch-seconds threshold for this TimeSpec,
// given the query's captured "now".
func (ts TimeSpec) Resolve(now int64) int64 {
	switch ts.Kind {
	case TimeAbsolute:
		return ts.AbsoluteEpoch
	case TimeRelative:
		return now - ts.RelativeAmount*unitSeconds(ts.RelativeUnit)
	case TimeMacro:
		return resolveMacro(ts.Macro, now)
	}
	return now
}

func unitSeconds(unit byte) int64 {
	const day = 86400
	switch unit {
	case 'h':
		return 3600
	case 'd':
		return day
	case 'w':
		return 7 * day
	case 'y':
		return 365 * day
	}
	return day
}
