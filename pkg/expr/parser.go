package expr

import (
	"io"
	"strconv"

	"github.com/lemonberrylabs/evoql/pkg/ast"
	"github.com/lemonberrylabs/evoql/pkg/source"
	"github.com/lemonberrylabs/evoql/pkg/types"
)

// DefaultMaxQueryLength is the default limit on query size applied by the
// services built on the parser. The parser itself has no limit.
const DefaultMaxQueryLength = 4096

// minErrDist is the number of tokens that must be consumed after a
// diagnostic before the next one is recorded.
const minErrDist = 2

// Parser is a recursive descent parser for EvoQL. A Parser handles exactly
// one query and is not safe for concurrent use.
type Parser struct {
	lex *Lexer

	t  Token // last consumed token
	la Token // lookahead token

	errDist  int
	consumed int
	diags    types.Diagnostics
}

// Parse parses a query string. A non-nil error reports a source fault, in
// which case the tree is nil. Otherwise the tree is non-nil and the
// diagnostics list the syntax and semantic errors found, if any.
func Parse(input string) (*ast.Root, types.Diagnostics, error) {
	return parseBuffer(source.NewString(input))
}

// ParseReader parses a query read from r. r stays open and belongs to the
// caller.
func ParseReader(r io.Reader) (*ast.Root, types.Diagnostics, error) {
	return parseBuffer(source.New(r, false))
}

// ParseFile parses the query stored at path. Files ending in .gz or .zst
// are decompressed.
func ParseFile(path string) (*ast.Root, types.Diagnostics, error) {
	buf, err := source.Open(path)
	if err != nil {
		return nil, nil, types.NewSourceError("opening query", err)
	}
	defer buf.Close()
	return parseBuffer(buf)
}

func parseBuffer(buf *source.Buffer) (*ast.Root, types.Diagnostics, error) {
	src, err := source.NewReader(buf)
	if err != nil {
		return nil, nil, types.NewSourceError("reading query", err)
	}
	p := NewParser(NewLexer(src))
	root, err := p.Parse()
	if err != nil {
		return nil, nil, err
	}
	return root, p.Diagnostics(), nil
}

// NewParser creates a parser reading tokens from lex.
func NewParser(lex *Lexer) *Parser {
	return &Parser{lex: lex, errDist: minErrDist}
}

// Parse parses one query. Syntax errors never abort the parse; only a
// source fault does.
func (p *Parser) Parse() (*ast.Root, error) {
	p.get()
	q := p.query()
	if p.la.Type != TokenEOF {
		p.synErr("EOF expected")
		for p.la.Type != TokenEOF {
			p.get()
		}
	}
	if err := p.lex.Err(); err != nil {
		return nil, types.NewSourceError("reading query", err)
	}
	return &ast.Root{Query: q}, nil
}

// Diagnostics returns the diagnostics recorded so far, in source order.
func (p *Parser) Diagnostics() types.Diagnostics {
	return p.diags
}

// get advances to the next token. Invalid tokens are reported and never
// reach the grammar.
func (p *Parser) get() {
	p.t = p.la
	for {
		p.la = p.lex.Scan()
		if p.la.Type != TokenInvalid {
			break
		}
		p.synErr("invalid Token " + strconv.Quote(p.la.Value))
	}
	p.errDist++
	p.consumed++
}

func (p *Parser) expect(typ TokenType) bool {
	if p.la.Type == typ {
		p.get()
		return true
	}
	p.synErr(typ.String() + " expected")
	return false
}

// synErr records a syntax error at the lookahead token.
func (p *Parser) synErr(msg string) {
	if p.errDist >= minErrDist {
		p.diags = append(p.diags, types.Diagnostic{
			Line: p.la.Line, Column: p.la.Col, Message: msg, Kind: types.KindSyntax,
		})
	}
	p.errDist = 0
}

// semErr records a semantic error at the last consumed token.
func (p *Parser) semErr(msg string) {
	if p.errDist >= minErrDist {
		p.diags = append(p.diags, types.Diagnostic{
			Line: p.t.Line, Column: p.t.Col, Message: msg, Kind: types.KindSemantic,
		})
	}
	p.errDist = 0
}

func (p *Parser) query() ast.Query {
	switch p.la.Type {
	case TokenGet:
		return p.getQuery()
	case TokenChart:
		return p.chartQuery()
	case TokenSet:
		return p.setQuery()
	}

	if p.la.Type != TokenEOF && !p.termStart() {
		p.synErr("invalid EvoQL")
	}
	return &ast.GetExpression{Condition: p.chain(false, p.condition)}
}

// getQuery parses GET Word ("," Word)* [Ordering] [WHERE] chain.
func (p *Parser) getQuery() *ast.GetExpression {
	p.get()
	g := &ast.GetExpression{}
	if p.expect(TokenWord) {
		g.ResultTypeNames = append(g.ResultTypeNames, p.t.Value)
	}
	for p.la.Type == TokenComma {
		p.get()
		if p.expect(TokenWord) {
			g.ResultTypeNames = append(g.ResultTypeNames, p.t.Value)
		}
	}

	if p.la.Type == TokenOrder {
		p.get()
		p.expect(TokenBy)
		if p.expect(TokenPhrase) {
			g.Ordering = unquote(p.t.Value)
		}
		if p.la.Type == TokenDesc {
			p.get()
			g.OrderDescending = true
		}
		if p.la.Type == TokenLimit {
			p.limit(g)
		}
	}

	p.where(g)
	return g
}

// chartQuery parses CHART [Word [BY group] [OVER group]] [LIMIT] [WHERE] chain.
func (p *Parser) chartQuery() *ast.GetExpression {
	p.get()
	g := &ast.GetExpression{IsChart: true}

	// a selector right after CHART belongs to the condition
	if p.la.Type == TokenWord && !p.followedBySeparator() {
		p.get()
		g.Select = p.t.Value
		if p.la.Type == TokenBy {
			p.get()
			g.GroupBy = p.groupClause()
		}
		if p.la.Type == TokenOver {
			p.get()
			g.GroupOver = p.groupClause()
		}
	}
	if p.la.Type == TokenLimit {
		p.limit(g)
	}

	p.where(g)
	return g
}

// groupClause parses [(TOP|BOTTOM) Number] Word [VIA Word] [INTERVAL (Word|Number)].
func (p *Parser) groupClause() *ast.GroupClause {
	c := &ast.GroupClause{}
	if p.la.Type == TokenTop || p.la.Type == TokenBottom {
		desc := p.la.Type == TokenTop
		p.get()
		c.TakeDescending = &desc
		if n, ok := p.count(); ok {
			c.Take = &n
		}
	}
	if p.expect(TokenWord) {
		c.Field = p.t.Value
	}
	if p.la.Type == TokenVia {
		p.get()
		if p.expect(TokenWord) {
			c.OrderBy = p.t.Value
		}
	}
	if p.la.Type == TokenInterval {
		p.get()
		switch p.la.Type {
		case TokenWord, TokenNumber:
			p.get()
			c.Interval = p.t.Value
		default:
			p.synErr("invalid Interval")
		}
	}
	return c
}

// limit parses LIMIT Number ["," Number]. A second number shifts the first
// into Skip.
func (p *Parser) limit(g *ast.GetExpression) {
	p.get()
	if n, ok := p.count(); ok {
		g.Take = &n
	}
	if p.la.Type == TokenComma {
		p.get()
		if n, ok := p.count(); ok {
			g.Skip = g.Take
			g.Take = &n
		}
	}
}

// count parses a non-negative integer.
func (p *Parser) count() (int, bool) {
	if !p.expect(TokenNumber) {
		return 0, false
	}
	n, err := strconv.Atoi(p.t.Value)
	if err != nil || n < 0 {
		p.semErr("invalid Number")
		return 0, false
	}
	return n, true
}

func (p *Parser) where(g *ast.GetExpression) {
	if p.la.Type == TokenWhere {
		p.get()
		if !p.termStart() {
			p.semErr("Invalid Condition")
		}
	}
	g.Condition = p.chain(false, p.condition)
}

// setQuery parses SET SetAction+. Anything that cannot start an action is
// reported and skipped up to the next word.
func (p *Parser) setQuery() *ast.SetExpression {
	p.get()
	s := &ast.SetExpression{}
	if setter := p.setAction(); setter != nil {
		s.Setters = append(s.Setters, setter)
	}
	for p.la.Type != TokenEOF {
		if p.la.Type != TokenWord {
			p.synErr("invalid SetAction")
			for p.la.Type != TokenWord && p.la.Type != TokenEOF {
				p.get()
			}
			continue
		}
		if setter := p.setAction(); setter != nil {
			s.Setters = append(s.Setters, setter)
		}
	}
	return s
}

// setAction parses Word ":" Literal.
func (p *Parser) setAction() *ast.Setter {
	if !p.expect(TokenWord) {
		return nil
	}
	name := p.t.Value
	p.expect(TokenColon)
	value := p.literal()
	if value == nil {
		return nil
	}
	return &ast.Setter{Action: types.LookupSetterAction(name), Name: name, Value: value}
}

// condition parses one top-level or group operand: a selector, a selector
// shorthand, a bare literal or a parenthesized group.
func (p *Parser) condition(bool) ast.Condition {
	switch {
	case p.la.Type == TokenOpenGroup:
		return p.group(p.condition)
	case p.followedBySeparator():
		p.get()
		name := p.t.Value
		field := types.LookupSelectorField(name)
		mod := p.modifier()
		if p.la.Type == TokenOpenGroup {
			return p.shorthand(field, name)
		}
		value := p.literal()
		if value == nil {
			return nil
		}
		return &ast.Selector{Field: field, Name: name, Modifier: mod, Value: value}
	case isLiteralStart(p.la.Type):
		if value := p.literal(); value != nil {
			return &ast.BareLiteral{Value: value}
		}
		return nil
	}
	p.synErr("invalid Condition")
	return nil
}

// shorthand parses field:(v1 AND v2 OR ...), expanding every value into an
// Equals selector on field regardless of the modifier written before "(".
func (p *Parser) shorthand(field types.SelectorField, name string) ast.Condition {
	var term termFunc
	term = func(negated bool) ast.Condition {
		if negated && p.la.Type == TokenColon {
			p.get()
		}
		if p.la.Type == TokenOpenGroup {
			return p.group(term)
		}
		if !isLiteralStart(p.la.Type) {
			p.synErr("invalid ComplexCondition")
			return nil
		}
		value := p.literal()
		if value == nil {
			return nil
		}
		return &ast.Selector{Field: field, Name: name, Modifier: types.ModifierEquals, Value: value}
	}
	return p.group(term)
}

func (p *Parser) modifier() types.Modifier {
	switch p.la.Type {
	case TokenColon, TokenLessThan, TokenGreaterThan:
		p.get()
		return types.LookupModifier(p.t.Value)
	}
	p.synErr("invalid Modifier")
	return types.ModifierEquals
}

func isLiteralStart(typ TokenType) bool {
	switch typ {
	case TokenRange, TokenWord, TokenPhrase, TokenID, TokenNumber:
		return true
	}
	return false
}

// literal parses Range | Word | Phrase | Id | Number. It returns nil after
// reporting an error.
func (p *Parser) literal() ast.Literal {
	switch p.la.Type {
	case TokenRange:
		p.get()
		return &ast.RangeText{Raw: p.t.Value}
	case TokenWord, TokenNumber:
		p.get()
		return &ast.Text{Raw: p.t.Value}
	case TokenPhrase:
		p.get()
		return &ast.QuotedText{Raw: unquote(p.t.Value)}
	case TokenID:
		p.get()
		id, err := strconv.ParseInt(p.t.Value[1:], 10, 64)
		if err != nil {
			p.semErr("invalid Id")
			return nil
		}
		return &ast.NumericID{Value: id}
	}
	p.synErr("invalid Literal")
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
