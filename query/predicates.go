package query

import (
	"strconv"
	"strings"
	"time"
)

// parseFieldPredicate dispatches by lowercased field name to the typed
// predicate parser for ext/size/created/modified. It returns (nil, false)
// for any other field name, which the caller (resolveAtom) turns into a
// fallback text term.
func parseFieldPredicate(field string, valueTokens []Token) (Predicate, bool) {
	switch field {
	case "ext":
		return parseExtPredicate(valueTokens)
	case "size":
		return parseSizePredicate(valueTokens)
	case "created":
		return parseTimeFieldPredicate(FieldCreated, valueTokens)
	case "modified":
		return parseTimeFieldPredicate(FieldModified, valueTokens)
	}
	return nil, false
}

// joinLexemes concatenates token lexemes with no separator. The tokens
// captured for a field predicate's value are an optional comparison
// operator followed by one value token, e.g. "size:>=100k" lexes as
// Gte(">=") + Ident("100k"); any whitespace between the two in the source
// ("size:>= 100k") is dropped, so both forms join to ">=100k".
func joinLexemes(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Lexeme)
	}
	return b.String()
}

// parseExtPredicate strips a leading '.', lowercases, and rejects an empty
// value.
func parseExtPredicate(toks []Token) (Predicate, bool) {
	v := strings.ToLower(strings.TrimPrefix(joinLexemes(toks), "."))
	if v == "" {
		return nil, false
	}
	return ExtPredicate{Op: OpEq, Value: v}, true
}

// extractCmpOp probes for a leading comparison operator in s, in this
// fixed order: >=, <=, >, <, =, then !=. Because the '=' probe only checks
// a literal leading '=' byte it never intercepts a leading '!', so a
// literal "!=" prefix is reachable via the final branch, but a malformed
// value beginning with "=!" is consumed by the '=' branch first, leaving a
// "!..." remainder. The probe order is kept as-is rather than reordered
// to special-case that combination.
func extractCmpOp(s string) (CmpOp, string, bool) {
	switch {
	case strings.HasPrefix(s, ">="):
		return OpGte, s[2:], true
	case strings.HasPrefix(s, "<="):
		return OpLte, s[2:], true
	case strings.HasPrefix(s, ">"):
		return OpGt, s[1:], true
	case strings.HasPrefix(s, "<"):
		return OpLt, s[1:], true
	case strings.HasPrefix(s, "="):
		return OpEq, s[1:], true
	case strings.HasPrefix(s, "!="):
		return OpNe, s[2:], true
	}
	return OpEq, s, false
}

// parseSizePredicate parses "<op?><integer><unit?>" using smartcase
// unit rules.
func parseSizePredicate(toks []Token) (Predicate, bool) {
	s := joinLexemes(toks)
	op, rest, _ := extractCmpOp(s)

	i := len(rest)
	for i > 0 && !isASCIIDigit(rest[i-1]) {
		i--
	}
	numPart, unitPart := rest[:i], rest[i:]
	if numPart == "" {
		return nil, false
	}
	n, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return nil, false
	}
	mult, bits, ok := parseSizeUnit(unitPart)
	if !ok {
		return nil, false
	}
	bytes := n * mult
	if bits {
		bytes /= 8
	}
	return SizePredicate{Op: op, Bytes: bytes}, true
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

// parseSizeUnit parses the unit suffix of a size literal, returning the
// byte multiplier, whether the unit denotes bits rather than bytes
// (smartcase), and whether the unit was recognized.
func parseSizeUnit(unit string) (mult uint64, bits bool, ok bool) {
	if unit == "" {
		return 1, false, true
	}
	bits = isBitsUnit(unit)
	prefix := unit
	if last := unit[len(unit)-1]; last == 'b' || last == 'B' {
		prefix = unit[:len(unit)-1]
	}
	switch strings.ToLower(prefix) {
	case "":
		return 1, bits, true
	case "k", "ki":
		return 1024, bits, true
	case "m", "mi":
		return 1024 * 1024, bits, true
	case "g", "gi":
		return 1024 * 1024 * 1024, bits, true
	case "t", "ti":
		return 1024 * 1024 * 1024 * 1024, bits, true
	}
	return 0, false, false
}

// isBitsUnit reports whether unit's trailing 'b' smartcase-selects bits
// rather than bytes: it must end in lowercase 'b', have length > 1, and
// its first byte must be ASCII upper-case (e.g. "Kb", "Mb", "Gb", "Tb").
func isBitsUnit(unit string) bool {
	if len(unit) <= 1 {
		return false
	}
	if unit[len(unit)-1] != 'b' {
		return false
	}
	first := unit[0]
	return first >= 'A' && first <= 'Z'
}

// parseTimeFieldPredicate parses the created/modified value tokens: a
// single Ident tries the macro table first, then a relative literal; any
// other shape extracts an optional comparison operator then tries an
// absolute YYYY-MM-DD date before falling back to a relative literal.
func parseTimeFieldPredicate(field TimeField, toks []Token) (Predicate, bool) {
	if len(toks) == 1 && toks[0].Kind == TokIdent {
		if macro, ok := parseTimeMacro(toks[0].Lexeme); ok {
			return TimePredicate{Field: field, Op: OpGte, Spec: TimeSpec{Kind: TimeMacro, Macro: macro}}, true
		}
		if spec, ok := parseRelativeTimeLiteral(toks[0].Lexeme); ok {
			return TimePredicate{Field: field, Op: OpGte, Spec: spec}, true
		}
		return nil, false
	}

	s := joinLexemes(toks)
	op, rest, hadOp := extractCmpOp(s)
	if !hadOp {
		op = OpGte
	}
	if epoch, ok := parseYMDDate(rest); ok {
		return TimePredicate{Field: field, Op: op, Spec: TimeSpec{Kind: TimeAbsolute, AbsoluteEpoch: epoch}}, true
	}
	if spec, ok := parseRelativeTimeLiteral(rest); ok {
		spec2 := spec
		return TimePredicate{Field: field, Op: op, Spec: spec2}, true
	}
	return nil, false
}

func parseTimeMacro(s string) (TimeMacroKind, bool) {
	switch strings.ToLower(s) {
	case "today":
		return MacroToday, true
	case "yesterday":
		return MacroYesterday, true
	case "this_week", "thisweek":
		return MacroThisWeek, true
	case "last_week", "lastweek":
		return MacroLastWeek, true
	case "this_month", "thismonth":
		return MacroThisMonth, true
	case "last_month", "lastmonth":
		return MacroLastMonth, true
	}
	return 0, false
}

// parseRelativeTimeLiteral parses "[+-]?N[dhwy]". A leading '+' is
// stripped and treated the same as no sign at all, so "+5d" and "5d"
// both resolve to a positive 5-day offset.
func parseRelativeTimeLiteral(s string) (TimeSpec, bool) {
	if s == "" {
		return TimeSpec{}, false
	}
	neg := false
	body := s
	if body[0] == '-' {
		neg = true
		body = body[1:]
	} else if body[0] == '+' {
		body = body[1:]
	}
	if body == "" {
		return TimeSpec{}, false
	}
	unit := body[len(body)-1]
	switch unit {
	case 'd', 'h', 'w', 'y':
	default:
		return TimeSpec{}, false
	}
	numPart := body[:len(body)-1]
	if numPart == "" {
		return TimeSpec{}, false
	}
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return TimeSpec{}, false
	}
	if neg {
		n = -n
	}
	return TimeSpec{Kind: TimeRelative, RelativeAmount: n, RelativeUnit: unit}, true
}

// parseYMDDate parses an ISO "YYYY-MM-DD" date at 00:00 UTC.
func parseYMDDate(s string) (int64, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}

// resolveMacro resolves a time macro against now (epoch seconds, UTC).
// Time-macro overflow / invalid calendar arithmetic falls back to now.
func resolveMacro(macro TimeMacroKind, now int64) int64 {
	t := time.Unix(now, 0).UTC()
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch macro {
	case MacroToday:
		return today.Unix()
	case MacroYesterday:
		return today.AddDate(0, 0, -1).Unix()
	case MacroThisWeek:
		return mondayOf(today).Unix()
	case MacroLastWeek:
		return mondayOf(today).AddDate(0, 0, -7).Unix()
	case MacroThisMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
	case MacroLastMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0).Unix()
	}
	return now
}

// mondayOf returns 00:00 UTC of the Monday in the same week as day.
func mondayOf(day time.Time) time.Time {
	wd := int(day.Weekday())
	// time.Sunday == 0; convert to Monday-first (0 == Monday).
	offset := (wd + 6) % 7
	return day.AddDate(0, 0, -offset)
}
