package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dietrichf/geocss/internal/types"
)

/*
 * Attribute expression parsing.
 *
 * Recursive descent over a small comparison language:
 *
 *   expr    := and { "or" and }
 *   and     := not { "and" not }
 *   not     := "not" not | primary
 *   primary := "(" expr ")" | comparison
 *   comparison := path ("=" | "<>" | "!=" | "<" | "<=" | ">" | ">=") literal
 *               | path "in" "(" literal { "," literal } ")"
 *               | path "is" "null"
 *               | path "exists"
 *   path    := ident { "." ident | "[" (int | "*") "]" }
 *   literal := number | 'text' | "text" | true | false
 *
 * The literal fixes the comparison field type: numbers compare numerically,
 * strings textually, booleans strictly. Ordering operators require numeric
 * literals. Path depth, wildcard count, and IN list size are validated here
 * so malformed selectors fail at stylesheet compile time, not evaluation
 * time.
 */

// ParseError reports malformed expression text. It is raised at selector
// construction time and propagated to the stylesheet compiler; this core
// never defers expression failures to evaluation.
type ParseError struct {
	Text string // full expression text
	Pos  int    // byte offset of the offending token
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse expression %q at offset %d: %s", e.Text, e.Pos, e.Msg)
}

// ParseExpression parses attribute expression text into a Predicate.
// Returns *ParseError on malformed input.
func ParseExpression(text string) (Predicate, error) {
	toks, err := scanExpression(text)
	if err != nil {
		return nil, err
	}
	p := &exprParser{text: text, toks: toks}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, p.errorf(p.peek().pos, "unexpected %q after expression", p.peek().text)
	}
	return pred, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
	tokStar
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// scanExpression tokenizes the full input up front; error positions are
// byte offsets into the original text.
func scanExpression(text string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '[':
			toks = append(toks, token{tokLBracket, "[", i})
			i++
		case c == ']':
			toks = append(toks, token{tokRBracket, "]", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case c == '.':
			toks = append(toks, token{tokDot, ".", i})
			i++
		case c == '*':
			toks = append(toks, token{tokStar, "*", i})
			i++
		case c == '=':
			toks = append(toks, token{tokOp, "=", i})
			i++
		case c == '!' || c == '<' || c == '>':
			start := i
			i++
			if i < len(text) && (text[i] == '=' || (c == '<' && text[i] == '>')) {
				i++
			}
			op := text[start:i]
			if op == "!" {
				return nil, &ParseError{Text: text, Pos: start, Msg: "expected != operator"}
			}
			toks = append(toks, token{tokOp, op, start})
		case c == '\'' || c == '"':
			quote := c
			start := i
			i++
			var sb strings.Builder
			for i < len(text) {
				if text[i] == quote {
					// Doubled quotes escape the delimiter.
					if i+1 < len(text) && text[i+1] == quote {
						sb.WriteByte(quote)
						i += 2
						continue
					}
					break
				}
				sb.WriteByte(text[i])
				i++
			}
			if i >= len(text) {
				return nil, &ParseError{Text: text, Pos: start, Msg: "unterminated string literal"}
			}
			toks = append(toks, token{tokString, sb.String(), start})
			i++
		case c >= '0' && c <= '9' || c == '-':
			start := i
			i++
			for i < len(text) && (text[i] >= '0' && text[i] <= '9' || text[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, text[start:i], start})
		case isIdentStart(c):
			start := i
			for i < len(text) && isIdentPart(text[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, text[start:i], start})
		default:
			return nil, &ParseError{Text: text, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{tokEOF, "", len(text)})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

type exprParser struct {
	text string
	toks []token
	i    int
}

func (p *exprParser) peek() token { return p.toks[p.i] }

func (p *exprParser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *exprParser) keyword(word string) bool {
	t := p.peek()
	if t.kind == tokIdent && strings.EqualFold(t.text, word) {
		p.next()
		return true
	}
	return false
}

func (p *exprParser) errorf(pos int, format string, args ...any) error {
	return &ParseError{Text: p.text, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *exprParser) parseOr() (Predicate, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []Predicate{first}
	for p.keyword("or") {
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return NewOr(operands...), nil
}

func (p *exprParser) parseAnd() (Predicate, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	operands := []Predicate{first}
	for p.keyword("and") {
		next, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return NewAnd(operands...), nil
}

func (p *exprParser) parseNot() (Predicate, error) {
	if p.keyword("not") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return NewNot(operand), nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (Predicate, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, p.errorf(t.pos, "expected closing parenthesis")
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *exprParser) parseComparison() (Predicate, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	switch {
	case t.kind == tokOp:
		p.next()
		op, err := comparisonOperator(t.text)
		if err != nil {
			return nil, p.errorf(t.pos, "%v", err)
		}
		value, fieldType, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if ordering(op) && fieldType != FieldTypeNumeric {
			return nil, p.errorf(t.pos, "operator %s requires a numeric literal", op)
		}
		return NewCondition(path, op, fieldType, value, nil), nil

	case p.keyword("in"):
		return p.parseInList(path)

	case p.keyword("is"):
		if !p.keyword("null") {
			return nil, p.errorf(p.peek().pos, "expected null after is")
		}
		return NewCondition(path, OpIsNull, FieldTypeAny, nil, nil), nil

	case p.keyword("exists"):
		return NewCondition(path, OpExists, FieldTypeAny, nil, nil), nil

	default:
		return nil, p.errorf(t.pos, "expected comparison operator")
	}
}

func (p *exprParser) parseInList(path []PathSegment) (Predicate, error) {
	if t := p.next(); t.kind != tokLParen {
		return nil, p.errorf(t.pos, "expected ( after in")
	}
	var values []any
	fieldType := FieldTypeAny
	for {
		value, ft, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			fieldType = ft
		} else if ft != fieldType {
			// Mixed literal types fall back to lenient comparison
			fieldType = FieldTypeAny
		}
		values = append(values, value)
		if len(values) > types.MaxInOperatorValues {
			return nil, p.errorf(p.peek().pos, "%v", types.ErrTooManyInValues)
		}
		t := p.next()
		if t.kind == tokRParen {
			break
		}
		if t.kind != tokComma {
			return nil, p.errorf(t.pos, "expected , or ) in value list")
		}
	}
	return NewCondition(path, OpIn, fieldType, nil, values), nil
}

func (p *exprParser) parsePath() ([]PathSegment, error) {
	t := p.next()
	if t.kind != tokIdent {
		return nil, p.errorf(t.pos, "expected attribute name, got %q", t.text)
	}
	path := []PathSegment{{Key: t.text}}
	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			t := p.next()
			if t.kind != tokIdent {
				return nil, p.errorf(t.pos, "expected attribute name after .")
			}
			path = append(path, PathSegment{Key: t.text})
		case tokLBracket:
			p.next()
			t := p.next()
			switch t.kind {
			case tokStar:
				path = append(path, PathSegment{Wildcard: true})
			case tokNumber:
				idx, err := strconv.Atoi(t.text)
				if err != nil || idx < 0 {
					return nil, p.errorf(t.pos, "invalid array index %q", t.text)
				}
				path = append(path, PathSegment{Index: idx, IsIndex: true})
			default:
				return nil, p.errorf(t.pos, "expected index or * in brackets")
			}
			if t := p.next(); t.kind != tokRBracket {
				return nil, p.errorf(t.pos, "expected closing bracket")
			}
		default:
			return path, validatePath(p, path, t.pos)
		}
	}
}

// validatePath enforces the same limits at parse time that Resolve enforces
// at evaluation time, so oversized paths fail during compilation.
func validatePath(p *exprParser, path []PathSegment, pos int) error {
	if len(path) > types.MaxPathDepth {
		return p.errorf(pos, "%v", types.ErrPathTooDeep)
	}
	wildcards := 0
	for _, seg := range path {
		if seg.Wildcard {
			wildcards++
		}
	}
	if wildcards > types.MaxNestedWildcards {
		return p.errorf(pos, "%v", types.ErrTooManyWildcards)
	}
	return nil
}

func (p *exprParser) parseLiteral() (any, FieldType, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return t.text, FieldTypeText, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, FieldTypeAny, p.errorf(t.pos, "invalid number %q", t.text)
		}
		return f, FieldTypeNumeric, nil
	case tokIdent:
		switch {
		case strings.EqualFold(t.text, "true"):
			return true, FieldTypeBoolean, nil
		case strings.EqualFold(t.text, "false"):
			return false, FieldTypeBoolean, nil
		}
		return nil, FieldTypeAny, p.errorf(t.pos, "expected literal, got %q", t.text)
	default:
		return nil, FieldTypeAny, p.errorf(t.pos, "expected literal, got %q", t.text)
	}
}

func comparisonOperator(text string) (Operator, error) {
	switch text {
	case "=":
		return OpEq, nil
	case "<>", "!=":
		return OpNeq, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLte, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGte, nil
	default:
		return OpUnspecified, fmt.Errorf("unknown operator %s", text)
	}
}

func ordering(op Operator) bool {
	return op == OpLt || op == OpLte || op == OpGt || op == OpGte
}
