package query

import "strings"

// Query is the top-level parse result.
type Query struct{ Expr Expr }

// Parse parses a query string into an AST. Degenerate input (empty,
// whitespace-only, or positions where an operand was expected but a
// closing paren / Eof / OR / AND was found instead) yields And{}, a
// neutral "true" expression that evaluates to the entire candidate set.
// The parse itself never fails; unknown fields and malformed predicate
// values degrade to text terms.
func Parse(input string) Query {
	toks := Lex(input)
	p := &parser{toks: toks}
	if p.peek().Kind == TokEof {
		return Query{Expr: trueExpr()}
	}
	return Query{Expr: p.parseOrExpr()}
}

func trueExpr() Expr { return And{} }

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// parseOrExpr := and_expr ("OR" and_expr)*
func (p *parser) parseOrExpr() Expr {
	children := []Expr{p.parseAndExpr()}
	for p.peek().Kind == TokOr {
		p.advance()
		children = append(children, p.parseAndExpr())
	}
	if len(children) == 1 {
		return children[0]
	}
	return Or{Children: children}
}

// parseAndExpr := not_expr (("AND")? not_expr)*
func (p *parser) parseAndExpr() Expr {
	children := []Expr{p.parseNotExpr()}
	for {
		switch p.peek().Kind {
		case TokOr, TokRParen, TokEof:
			if len(children) == 1 {
				return children[0]
			}
			return And{Children: children}
		case TokAnd:
			p.advance()
		}
		children = append(children, p.parseNotExpr())
	}
}

// parseNotExpr := "NOT"* primary, double NOT cancels.
func (p *parser) parseNotExpr() Expr {
	count := 0
	for p.peek().Kind == TokNot {
		p.advance()
		count++
	}
	inner := p.parsePrimary()
	if count%2 == 1 {
		return Not{Inner: inner}
	}
	return inner
}

// parsePrimary := "(" or_expr ")" | atom
func (p *parser) parsePrimary() Expr {
	switch p.peek().Kind {
	case TokLParen:
		p.advance()
		e := p.parseOrExpr()
		if p.peek().Kind == TokRParen {
			p.advance()
		}
		return e
	case TokEof, TokRParen, TokOr, TokAnd:
		return trueExpr()
	default:
		return resolveAtom(p.parseRawAtom())
	}
}

type rawAtom struct {
	isField   bool
	fieldName string
	fieldTok  Token
	valueToks []Token
	bareToks  []Token
}

func isCmpOpKind(k TokenKind) bool {
	switch k {
	case TokGt, TokGte, TokLt, TokLte, TokEq:
		return true
	}
	return false
}

func isValueTokenKind(k TokenKind) bool {
	return k == TokIdent || k == TokNumber || k == TokString
}

// parseRawAtom := IDENT ":" [CMP_OP] value_token  | IDENT | NUMBER | STRING
func (p *parser) parseRawAtom() rawAtom {
	if p.peek().Kind == TokIdent && p.peekAt(1).Kind == TokColon {
		fieldTok := p.advance()
		p.advance() // colon
		var values []Token
		if isCmpOpKind(p.peek().Kind) {
			values = append(values, p.advance())
		}
		if isValueTokenKind(p.peek().Kind) {
			values = append(values, p.advance())
		}
		return rawAtom{isField: true, fieldName: fieldTok.Lexeme, fieldTok: fieldTok, valueToks: values}
	}
	tok := p.advance()
	return rawAtom{bareToks: []Token{tok}}
}

// resolveAtom turns a rawAtom into a Text or Pred leaf.
func resolveAtom(a rawAtom) Expr {
	if a.isField {
		field := strings.ToLower(a.fieldName)
		if pred, ok := parseFieldPredicate(field, a.valueToks); ok {
			return Pred{Predicate: pred}
		}
		return textFromFieldAtom(a.fieldName, a.valueToks)
	}
	return textFromTokens(a.bareToks)
}

func textFromFieldAtom(fieldName string, valueToks []Token) Text {
	s := fieldName + ":" + joinLexemes(valueToks)
	return Text{Value: s, IsPhrase: false, IsGlob: strings.ContainsAny(s, "*?")}
}

func textFromTokens(toks []Token) Text {
	s := joinLexemes(toks)
	isPhrase := len(toks) > 0 && toks[0].Kind == TokString
	return Text{Value: s, IsPhrase: isPhrase, IsGlob: strings.ContainsAny(s, "*?")}
}
