package expr

import (
	"github.com/lemonberrylabs/evoql/pkg/ast"
)

// termFunc parses one chain operand. negated is set when the operand
// follows NOT; the caller wraps the result in ast.Not.
type termFunc func(negated bool) ast.Condition

// chain parses [NOT] term ((AND|OR)? [NOT] term)* into a flat chain. Two
// operands with no connective between them are joined with AND. Tokens that
// can neither start an operand nor end the chain are reported and skipped,
// so the chain always stops at EOF or, when nested, at ")".
//
// It returns nil when no operand could be parsed.
func (p *Parser) chain(nested bool, term termFunc) *ast.Chain {
	closer := TokenEOF
	if nested {
		closer = TokenCloseGroup
	}

	var links []ast.Link
	conn := ast.None
	pending := false // a connective is waiting for its operand

	for {
		switch {
		case p.termStart():
			before := p.consumed
			negated := p.la.Type == TokenNot
			if negated {
				p.get()
			}
			if operand := term(negated); operand != nil {
				if negated {
					operand = &ast.Not{Operand: operand}
				}
				switch {
				case len(links) == 0:
					conn = ast.None
				case conn == ast.None:
					conn = ast.And
				}
				links = append(links, ast.Link{Connective: conn, Operand: operand})
			}
			if p.consumed == before {
				// the operand was rejected without consuming anything
				p.get()
			}
			conn, pending = ast.None, false

		case p.la.Type == TokenAnd || p.la.Type == TokenOr:
			if pending || len(links) == 0 {
				p.synErr("invalid Conditional")
			}
			conn = ast.And
			if p.la.Type == TokenOr {
				conn = ast.Or
			}
			pending = true
			p.get()

		case p.la.Type == TokenEOF || p.la.Type == closer:
			if pending {
				p.semErr("Invalid Condition")
			}
			if len(links) == 0 {
				return nil
			}
			return &ast.Chain{Links: links}

		default:
			p.synErr(closer.String() + " expected")
			p.get()
		}
	}
}

// termStart reports whether la can begin a chain operand.
func (p *Parser) termStart() bool {
	switch p.la.Type {
	case TokenNumber, TokenWord, TokenPhrase, TokenID, TokenRange, TokenNot, TokenOpenGroup:
		return true
	case TokenRangeSeparator:
		// "to" is also a selector name
		return p.followedBySeparator()
	}
	return false
}

// followedBySeparator reports whether la is a selector name, that is a word
// followed by ":", "<" or ">". The look-ahead does not consume tokens.
func (p *Parser) followedBySeparator() bool {
	if p.la.Type != TokenWord && p.la.Type != TokenRangeSeparator {
		return false
	}
	next := p.lex.Peek()
	for next.Type == TokenInvalid {
		next = p.lex.Peek()
	}
	p.lex.ResetPeek()
	switch next.Type {
	case TokenColon, TokenLessThan, TokenGreaterThan:
		return true
	}
	return false
}

// group parses "(" chain ")" with the given operand parser. An empty group
// is reported and dropped.
func (p *Parser) group(term termFunc) ast.Condition {
	p.expect(TokenOpenGroup)
	body := p.chain(true, term)
	if body == nil {
		p.synErr("invalid ConditionGroup")
	}
	p.expect(TokenCloseGroup)
	if body == nil {
		return nil
	}
	return &ast.Group{Body: body}
}
