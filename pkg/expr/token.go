// Package expr implements the EvoQL tokenizer and parser. A query such as
// GET mention WHERE tag:"news" AND sentiment>3 is scanned into tokens and
// parsed by recursive descent into an ast.Root plus a list of diagnostics.
package expr

import "strings"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF    TokenType = iota // end of input
	TokenNumber                  // 42, -3, 1.5
	TokenWord                    // mention, #tag
	TokenPhrase                  // "quoted text"
	TokenID                      // @123
	TokenRange                   // 1..5, a..z, "x".."y"

	// Keywords and punctuation
	TokenNot            // not
	TokenOpenGroup      // (
	TokenCloseGroup     // )
	TokenRangeSeparator // to
	TokenAnd            // and
	TokenOr             // or
	TokenGet            // get
	TokenSet            // set
	TokenChart          // chart
	TokenWhere          // where
	TokenColon          // :
	TokenComma          // ,
	TokenOrder          // order, ordered
	TokenInterval       // interval
	TokenBy             // by
	TokenDesc           // desc
	TokenLimit          // limit
	TokenOver           // over
	TokenTop            // top
	TokenBottom         // bottom
	TokenVia            // via
	TokenLessThan       // <
	TokenGreaterThan    // >

	// TokenInvalid carries text that starts no token, such as a stray "."
	// or the quote of an unterminated phrase.
	TokenInvalid
)

// Token represents a single lexical token.
type Token struct {
	Type  TokenType
	Value string // text as written
	Pos   int    // byte offset in the source
	Line  int    // 1-based
	Col   int    // 1-based, in code points
}

var tokenNames = [...]string{
	TokenEOF:            "EOF",
	TokenNumber:         "Number",
	TokenWord:           "Word",
	TokenPhrase:         "Phrase",
	TokenID:             "Id",
	TokenRange:          "Range",
	TokenNot:            "Not",
	TokenOpenGroup:      "OpenGroup",
	TokenCloseGroup:     "CloseGroup",
	TokenRangeSeparator: "RangeSeparator",
	TokenAnd:            "And",
	TokenOr:             "Or",
	TokenGet:            "Get",
	TokenSet:            "Set",
	TokenChart:          "Chart",
	TokenWhere:          "Where",
	TokenColon:          "Colon",
	TokenComma:          "Comma",
	TokenOrder:          "Order",
	TokenInterval:       "Interval",
	TokenBy:             "By",
	TokenDesc:           "Desc",
	TokenLimit:          "Limit",
	TokenOver:           "Over",
	TokenTop:            "Top",
	TokenBottom:         "Bottom",
	TokenVia:            "Via",
	TokenLessThan:       `"<"`,
	TokenGreaterThan:    `">"`,
	TokenInvalid:        "Invalid",
}

// String returns the name used for the token type in diagnostics.
func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "???"
}

var keywords = map[string]TokenType{
	"not":      TokenNot,
	"to":       TokenRangeSeparator,
	"and":      TokenAnd,
	"or":       TokenOr,
	"get":      TokenGet,
	"set":      TokenSet,
	"chart":    TokenChart,
	"where":    TokenWhere,
	"order":    TokenOrder,
	"ordered":  TokenOrder,
	"interval": TokenInterval,
	"by":       TokenBy,
	"desc":     TokenDesc,
	"limit":    TokenLimit,
	"over":     TokenOver,
	"top":      TokenTop,
	"bottom":   TokenBottom,
	"via":      TokenVia,
}

// lookupKeyword remaps a scanned word to its keyword type, if any.
func lookupKeyword(word string) TokenType {
	if t, ok := keywords[strings.ToLower(word)]; ok {
		return t
	}
	return TokenWord
}

// IsKeyword reports whether the token type is a reserved word.
func (t TokenType) IsKeyword() bool {
	switch t {
	case TokenNot, TokenRangeSeparator, TokenAnd, TokenOr, TokenGet, TokenSet,
		TokenChart, TokenWhere, TokenOrder, TokenInterval, TokenBy, TokenDesc,
		TokenLimit, TokenOver, TokenTop, TokenBottom, TokenVia:
		return true
	}
	return false
}
