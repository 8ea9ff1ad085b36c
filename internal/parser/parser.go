// Package parser compiles stylesheet text into cascade rules.
//
// The dialect is CSS-shaped: comma-separated selector alternatives OR
// together, whitespace within an alternative ANDs simple selectors, and
// pseudo-class blocks nested in a rule body scope their declarations to a
// symbol context. A comment immediately preceding a rule supplies the
// rule description through @title / @abstract markers.
//
// Tokenization is delegated to the tdewolff CSS lexer; this package only
// implements the grammar above it. Expression text inside brackets is
// handed to the injected selector factory eagerly, so malformed
// expressions abort compilation with their source offset.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"github.com/dietrichf/geocss/internal/cascade"
	"github.com/dietrichf/geocss/internal/selector"
	"github.com/dietrichf/geocss/internal/types"
)

// Parser parses stylesheet text into rules.
type Parser struct {
	log     *zap.Logger
	factory selector.Factory
	stats   Stats
}

// Stats tracks compilation statistics.
type Stats struct {
	Rules        int
	Declarations int
	Contexts     int
	Comments     int
}

// NewParser creates a stylesheet parser. The factory builds predicates for
// expression selectors; a nil logger is replaced with a no-op one.
func NewParser(factory selector.Factory, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("stylesheet"), factory: factory}
}

// Stats returns compilation statistics for the last Parse call.
func (p *Parser) Stats() Stats {
	return p.stats
}

// Parse compiles stylesheet text into rules. The optional source parameter
// identifies what is being parsed, for debug logging only.
func (p *Parser) Parse(data []byte, source ...string) ([]cascade.Rule, error) {
	p.stats = Stats{}
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("parsing stylesheet", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	ts := newTokenStream(data)
	var rules []cascade.Rule
	var lastComment string

	for {
		tt, text := ts.next()
		switch tt {
		case css.ErrorToken:
			if err := ts.err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("stylesheet offset %d: %w", ts.offset(), err)
			}
			p.log.Debug("parsed stylesheet",
				zap.Int("rules", p.stats.Rules),
				zap.Int("declarations", p.stats.Declarations))
			return rules, nil
		case css.WhitespaceToken:
			continue
		case css.CommentToken:
			lastComment = text
			p.stats.Comments++
			continue
		default:
			ts.pushback(tt, text)
			rule, err := p.parseRule(ts, lastComment)
			if err != nil {
				return nil, err
			}
			lastComment = ""
			rules = append(rules, rule)
			p.stats.Rules++
		}
	}
}

// parseRule parses one "selectors { body }" rule. The preceding comment,
// if any, feeds the rule description.
func (p *Parser) parseRule(ts *tokenStream, comment string) (cascade.Rule, error) {
	alternatives, scope, err := p.parseSelectors(ts)
	if err != nil {
		return cascade.Rule{}, err
	}

	contexts, err := p.parseBody(ts, scope)
	if err != nil {
		return cascade.Rule{}, err
	}

	rule := cascade.Rule{
		Selectors: assembleSelectors(alternatives),
		Contexts:  contexts,
	}
	if comment != "" {
		rule.Description = types.Description{
			Title:    types.Extract(comment, "title"),
			Abstract: types.Extract(comment, "abstract"),
		}
	}
	return rule, nil
}

// parseSelectors consumes tokens up to the opening brace. It returns the
// comma-separated alternatives (pseudo-classes stripped) and the single
// context scope those pseudo-classes resolved to, nil when unscoped.
func (p *Parser) parseSelectors(ts *tokenStream) ([][]selector.Selector, *selector.Context, error) {
	var alternatives [][]selector.Selector
	var current []selector.Selector
	var scope *selector.Context

	flush := func() {
		alternatives = append(alternatives, current)
		current = nil
	}

	for {
		tt, text := ts.next()
		switch tt {
		case css.ErrorToken:
			return nil, nil, fmt.Errorf("stylesheet offset %d: unexpected end of selector", ts.offset())

		case css.WhitespaceToken, css.CommentToken:
			continue

		case css.LeftBraceToken:
			flush()
			return alternatives, scope, nil

		case css.CommaToken:
			flush()

		case css.IdentToken:
			current = append(current, selector.TypeName(text))

		case css.DelimToken:
			if text != "*" {
				return nil, nil, fmt.Errorf("stylesheet offset %d: unexpected %q in selector", ts.offset(), text)
			}
			current = append(current, selector.Accept())

		case css.HashToken:
			current = append(current, selector.ByID(strings.TrimPrefix(text, "#")))

		case css.LeftBracketToken:
			raw, err := ts.rawUntilBracketClose()
			if err != nil {
				return nil, nil, err
			}
			sel, err := p.bracketSelector(raw, ts.offset())
			if err != nil {
				return nil, nil, err
			}
			current = append(current, sel)

		case css.ColonToken:
			sel, err := parsePseudo(ts)
			if err != nil {
				return nil, nil, err
			}
			ctx, _ := sel.Context()
			if scope != nil && *scope != ctx {
				return nil, nil, fmt.Errorf("stylesheet offset %d: conflicting pseudo-class scopes %s and %s",
					ts.offset(), scope, ctx)
			}
			scope = &ctx

		default:
			return nil, nil, fmt.Errorf("stylesheet offset %d: unexpected %q in selector", ts.offset(), text)
		}
	}
}

// bracketSelector interprets bracketed selector text: "@name op value" is a
// pseudo property (a rendering hint), anything else is an attribute
// expression parsed through the factory.
func (p *Parser) bracketSelector(raw string, offset int) (selector.Selector, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "@") {
		fields := strings.Fields(raw)
		if len(fields) < 3 {
			return selector.Selector{}, fmt.Errorf("stylesheet offset %d: pseudo property needs name, operator, and value", offset)
		}
		name := strings.TrimPrefix(fields[0], "@")
		return selector.PseudoProperty(name, fields[1], strings.Join(fields[2:], " ")), nil
	}
	sel, err := selector.Expression(p.factory, raw)
	if err != nil {
		return selector.Selector{}, fmt.Errorf("stylesheet offset %d: %w", offset, err)
	}
	return sel, nil
}

// parsePseudo parses the name (and optional parameter) after a colon.
func parsePseudo(ts *tokenStream) (selector.Selector, error) {
	tt, text := ts.next()
	switch tt {
	case css.IdentToken:
		return selector.PseudoClass(text), nil
	case css.FunctionToken:
		name := strings.TrimSuffix(text, "(")
		var param strings.Builder
		for {
			tt, text := ts.next()
			switch tt {
			case css.RightParenthesisToken:
				return selector.ParameterizedPseudoClass(name, strings.TrimSpace(param.String())), nil
			case css.ErrorToken:
				return selector.Selector{}, fmt.Errorf("stylesheet offset %d: unterminated pseudo-class parameter", ts.offset())
			case css.WhitespaceToken:
				continue
			default:
				param.WriteString(text)
			}
		}
	default:
		return selector.Selector{}, fmt.Errorf("stylesheet offset %d: expected pseudo-class name, got %q", ts.offset(), text)
	}
}

// assembleSelectors turns comma alternatives into the rule's implicit
// conjunction: one alternative contributes its AND chain directly, several
// become a single OR element.
func assembleSelectors(alternatives [][]selector.Selector) []selector.Selector {
	if len(alternatives) == 1 {
		return alternatives[0]
	}
	ored := make([]selector.Selector, len(alternatives))
	for i, alt := range alternatives {
		switch len(alt) {
		case 0:
			ored[i] = selector.Accept()
		case 1:
			ored[i] = alt[0]
		default:
			ored[i] = selector.And(alt...)
		}
	}
	return []selector.Selector{selector.Or(ored...)}
}

// parseBody parses declarations and pseudo-class blocks up to the closing
// brace. Top-level declarations take the rule's selector scope (usually
// nil); each pseudo block contributes its own context entry. Entry order
// is declaration order; context resolution depends on it.
func (p *Parser) parseBody(ts *tokenStream, scope *selector.Context) ([]cascade.ContextEntry, error) {
	var entries []cascade.ContextEntry
	var pending []types.Property

	flush := func() {
		if len(pending) > 0 {
			entries = append(entries, cascade.ContextEntry{Context: scope, Properties: pending})
			pending = nil
		}
	}

	for {
		tt, text := ts.next()
		switch tt {
		case css.ErrorToken:
			return nil, fmt.Errorf("stylesheet offset %d: unexpected end of rule body", ts.offset())

		case css.WhitespaceToken, css.SemicolonToken:
			continue

		case css.CommentToken:
			p.stats.Comments++

		case css.RightBraceToken:
			flush()
			return entries, nil

		case css.IdentToken:
			prop, err := p.parseDeclaration(ts, text)
			if err != nil {
				return nil, err
			}
			pending = append(pending, prop)

		case css.ColonToken:
			flush()
			entry, err := p.parsePseudoBlock(ts)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
			p.stats.Contexts++

		default:
			return nil, fmt.Errorf("stylesheet offset %d: unexpected %q in rule body", ts.offset(), text)
		}
	}
}

// parsePseudoBlock parses ":name { declarations }" into a context entry.
func (p *Parser) parsePseudoBlock(ts *tokenStream) (cascade.ContextEntry, error) {
	sel, err := parsePseudo(ts)
	if err != nil {
		return cascade.ContextEntry{}, err
	}
	ctx, _ := sel.Context()

	if tt, text := ts.nextNonSpace(); tt != css.LeftBraceToken {
		return cascade.ContextEntry{}, fmt.Errorf("stylesheet offset %d: expected { after %s, got %q", ts.offset(), ctx, text)
	}

	var props []types.Property
	for {
		tt, text := ts.nextNonSpace()
		switch tt {
		case css.ErrorToken:
			return cascade.ContextEntry{}, fmt.Errorf("stylesheet offset %d: unexpected end of %s block", ts.offset(), ctx)
		case css.SemicolonToken:
			continue
		case css.CommentToken:
			p.stats.Comments++
		case css.RightBraceToken:
			return cascade.ContextEntry{Context: &ctx, Properties: props}, nil
		case css.IdentToken:
			prop, err := p.parseDeclaration(ts, text)
			if err != nil {
				return cascade.ContextEntry{}, err
			}
			props = append(props, prop)
		default:
			return cascade.ContextEntry{}, fmt.Errorf("stylesheet offset %d: unexpected %q in %s block", ts.offset(), text, ctx)
		}
	}
}

// parseDeclaration parses "name: groups;" after the name has been read.
// The terminating semicolon may be omitted before a closing brace, which
// is pushed back for the caller.
func (p *Parser) parseDeclaration(ts *tokenStream, name string) (types.Property, error) {
	if tt, text := ts.nextNonSpace(); tt != css.ColonToken {
		return types.Property{}, fmt.Errorf("stylesheet offset %d: expected : after %q, got %q", ts.offset(), name, text)
	}

	var groups [][]types.Value
	var group []types.Value
	for {
		tt, text := ts.next()
		switch tt {
		case css.ErrorToken:
			return types.Property{}, fmt.Errorf("stylesheet offset %d: unterminated declaration %q", ts.offset(), name)

		case css.WhitespaceToken:
			continue

		case css.CommaToken:
			groups = append(groups, group)
			group = nil

		case css.SemicolonToken:
			groups = append(groups, group)
			p.stats.Declarations++
			return types.Property{Name: name, Values: groups}, nil

		case css.RightBraceToken:
			ts.pushback(tt, text)
			groups = append(groups, group)
			p.stats.Declarations++
			return types.Property{Name: name, Values: groups}, nil

		default:
			ts.pushback(tt, text)
			value, err := p.parseValue(ts)
			if err != nil {
				return types.Property{}, err
			}
			group = append(group, value)
		}
	}
}

// parseValue parses a single value: quoted literal, bare keyword or
// number, function call, or bracketed raw expression.
func (p *Parser) parseValue(ts *tokenStream) (types.Value, error) {
	tt, text := ts.nextNonSpace()
	switch tt {
	case css.StringToken:
		return types.Literal(unquote(text)), nil

	case css.IdentToken, css.NumberToken, css.DimensionToken, css.PercentageToken, css.HashToken:
		return types.Literal(text), nil

	case css.LeftBracketToken:
		raw, err := ts.rawUntilBracketClose()
		if err != nil {
			return types.Value{}, err
		}
		return types.Expression(strings.TrimSpace(raw)), nil

	case css.FunctionToken:
		return p.parseFunction(ts, strings.TrimSuffix(text, "("))

	default:
		return types.Value{}, fmt.Errorf("stylesheet offset %d: unexpected %q in value", ts.offset(), text)
	}
}

// parseFunction parses comma-separated arguments up to the closing
// parenthesis. Arguments recurse, so nested calls work.
func (p *Parser) parseFunction(ts *tokenStream, name string) (types.Value, error) {
	var args []types.Value
	for {
		tt, text := ts.nextNonSpace()
		switch tt {
		case css.RightParenthesisToken:
			return types.Function(name, args...), nil
		case css.CommaToken:
			continue
		case css.ErrorToken:
			return types.Value{}, fmt.Errorf("stylesheet offset %d: unterminated call to %s", ts.offset(), name)
		default:
			ts.pushback(tt, text)
			arg, err := p.parseValue(ts)
			if err != nil {
				return types.Value{}, err
			}
			args = append(args, arg)
		}
	}
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// tokenStream wraps the CSS lexer with single-token pushback.
type tokenStream struct {
	lex    *css.Lexer
	in     *parse.Input
	pushed bool
	tt     css.TokenType
	text   string
}

func newTokenStream(data []byte) *tokenStream {
	in := parse.NewInput(bytes.NewReader(data))
	return &tokenStream{lex: css.NewLexer(in), in: in}
}

func (ts *tokenStream) next() (css.TokenType, string) {
	if ts.pushed {
		ts.pushed = false
		return ts.tt, ts.text
	}
	tt, data := ts.lex.Next()
	return tt, string(data)
}

func (ts *tokenStream) nextNonSpace() (css.TokenType, string) {
	for {
		tt, text := ts.next()
		if tt != css.WhitespaceToken {
			return tt, text
		}
	}
}

func (ts *tokenStream) pushback(tt css.TokenType, text string) {
	ts.pushed = true
	ts.tt = tt
	ts.text = text
}

// rawUntilBracketClose concatenates raw token text up to the bracket that
// closes the already-consumed opening one, honoring nesting.
func (ts *tokenStream) rawUntilBracketClose() (string, error) {
	var b strings.Builder
	depth := 1
	for {
		tt, text := ts.next()
		switch tt {
		case css.ErrorToken:
			return "", fmt.Errorf("stylesheet offset %d: unterminated bracket expression", ts.offset())
		case css.LeftBracketToken:
			depth++
		case css.RightBracketToken:
			depth--
			if depth == 0 {
				return b.String(), nil
			}
		}
		if depth > 0 {
			b.WriteString(text)
		}
	}
}

func (ts *tokenStream) offset() int { return ts.in.Offset() }

func (ts *tokenStream) err() error { return ts.lex.Err() }
