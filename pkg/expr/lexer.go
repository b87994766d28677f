package expr

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/lemonberrylabs/evoql/pkg/source"
)

// scanner states
const (
	stNumber = iota
	stNumberDot
	stFraction
	stRangeSep
	stRangeRHS
	stRHSPhrase
	stRHSPhraseEnd
	stRHSWord
	stRHSSign
	stRHSNumber
	stRHSDot
	stRHSFraction
	stWord
	stPhrase
	stPhraseEnd
	stIDStart
	stID
	stSign
	stNone
)

// Lexer tokenizes EvoQL from a code point source. Tokens are produced on
// demand and queued, so that the parser can look ahead arbitrarily far with
// Peek without consuming anything.
type Lexer struct {
	src *source.Reader

	ch   rune // current code point or source.EOF
	pos  int  // byte offset of ch
	line int
	col  int

	text  []byte // text of the token being scanned
	mark  mark   // last accepting state of the current run
	queue []Token
	peek  int // tokens of queue already handed out by Peek
	err   error
}

// mark records the scanner state right after an accepting state, so that a
// longer run that fails can be undone.
type mark struct {
	typ  TokenType
	ch   rune
	pos  int
	line int
	col  int
	next int // reader offset after ch
	n    int // len(text)
}

// NewLexer creates a lexer reading from src.
func NewLexer(src *source.Reader) *Lexer {
	l := &Lexer{src: src, line: 1}
	l.nextCh()
	return l
}

// Tokenize scans the entire input and returns all tokens, ending with the
// EOF token.
func Tokenize(input string) ([]Token, error) {
	src, err := source.NewReader(source.NewString(input))
	if err != nil {
		return nil, err
	}
	l := NewLexer(src)

	var tokens []Token
	for {
		tok := l.Scan()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	if err := l.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Scan consumes and returns the next token and resets the peek cursor.
func (l *Lexer) Scan() Token {
	var tok Token
	if len(l.queue) > 0 {
		tok = l.queue[0]
		l.queue = l.queue[1:]
	} else {
		tok = l.next()
	}
	l.peek = 0
	return tok
}

// Peek returns the token after the one returned by the previous Peek, or the
// first unconsumed token after a Scan or ResetPeek.
func (l *Lexer) Peek() Token {
	if l.peek >= len(l.queue) {
		l.queue = append(l.queue, l.next())
	}
	tok := l.queue[l.peek]
	l.peek++
	return tok
}

// ResetPeek rewinds the peek cursor to the first unconsumed token.
func (l *Lexer) ResetPeek() {
	l.peek = 0
}

// Err returns the first source fault met while scanning. Once it is set the
// lexer only produces EOF.
func (l *Lexer) Err() error {
	if l.err != nil {
		return l.err
	}
	return l.src.Err()
}

func (l *Lexer) nextCh() {
	l.pos = l.src.Pos()
	l.ch = l.src.Read()
	l.col++
	// a lone CR is a line break
	if l.ch == '\r' && l.src.Peek() != '\n' {
		l.ch = '\n'
	}
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
}

func (l *Lexer) addCh() {
	if l.ch != source.EOF {
		l.text = utf8.AppendRune(l.text, l.ch)
		l.nextCh()
	}
}

// next scans one token. A code point that starts no token, or a run that
// never reaches an accepting state, yields a TokenInvalid holding its first
// code point; scanning resumes right after it.
func (l *Lexer) next() Token {
	for {
		for l.ch == ' ' || l.ch == '\n' || l.ch == '\r' {
			l.nextCh()
		}

		tok := Token{Pos: l.pos, Line: l.line, Col: l.col}
		if l.ch == source.EOF || l.err != nil {
			tok.Type = TokenEOF
			return tok
		}

		typ, ok := l.scan()
		if !ok {
			continue
		}
		tok.Type = typ
		tok.Value = string(l.text)
		if typ == TokenWord {
			tok.Type = lookupKeyword(tok.Value)
		}
		return tok
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isWordStart(ch rune) bool {
	return ch == '#' || unicode.IsLetter(ch)
}

func isWordChar(ch rune) bool {
	return isWordStart(ch) || isDigit(ch)
}

func (l *Lexer) startState() (int, TokenType) {
	switch {
	case isDigit(l.ch):
		return stNumber, 0
	case isWordStart(l.ch):
		return stWord, 0
	}
	switch l.ch {
	case '"':
		return stPhrase, 0
	case '@':
		return stIDStart, 0
	case '-':
		return stSign, 0
	case '(':
		return stNone, TokenOpenGroup
	case ')':
		return stNone, TokenCloseGroup
	case ':':
		return stNone, TokenColon
	case ',':
		return stNone, TokenComma
	case '<':
		return stNone, TokenLessThan
	case '>':
		return stNone, TokenGreaterThan
	}
	return stNone, TokenInvalid
}

// scan runs the state machine over one token starting at l.ch. It returns
// false only when backtracking failed on a source fault.
func (l *Lexer) scan() (TokenType, bool) {
	l.text = l.text[:0]
	l.mark = mark{}

	state, punct := l.startState()
	l.addCh()
	if state == stNone {
		return punct, true
	}
	// fallback for runs that never accept, e.g. `"` with no closing quote
	l.accept(TokenInvalid)

	for {
		switch state {
		case stNumber:
			l.accept(TokenNumber)
			switch {
			case isDigit(l.ch):
			case l.ch == '.':
				state = stNumberDot
			default:
				return TokenNumber, true
			}
		case stNumberDot:
			switch {
			case isDigit(l.ch):
				state = stFraction
			case l.ch == '.':
				state = stRangeRHS
			default:
				return l.backtrack()
			}
		case stFraction:
			l.accept(TokenNumber)
			switch {
			case isDigit(l.ch):
			case l.ch == '.':
				state = stRangeSep
			default:
				return TokenNumber, true
			}
		case stRangeSep:
			if l.ch != '.' {
				return l.backtrack()
			}
			state = stRangeRHS
		case stRangeRHS:
			switch {
			case l.ch == '"':
				state = stRHSPhrase
			case isWordStart(l.ch):
				state = stRHSWord
			case isDigit(l.ch):
				state = stRHSNumber
			case l.ch == '-':
				state = stRHSSign
			default:
				return l.backtrack()
			}
		case stRHSPhrase:
			switch l.ch {
			case '"':
				state = stRHSPhraseEnd
			case source.EOF:
				return l.backtrack()
			}
		case stRHSPhraseEnd:
			return TokenRange, true
		case stRHSWord:
			l.accept(TokenRange)
			if !isWordChar(l.ch) {
				return TokenRange, true
			}
		case stRHSSign:
			if !isDigit(l.ch) {
				return l.backtrack()
			}
			state = stRHSNumber
		case stRHSNumber:
			l.accept(TokenRange)
			switch {
			case isDigit(l.ch):
			case l.ch == '.':
				state = stRHSDot
			default:
				return TokenRange, true
			}
		case stRHSDot:
			if !isDigit(l.ch) {
				return l.backtrack()
			}
			state = stRHSFraction
		case stRHSFraction:
			l.accept(TokenRange)
			if !isDigit(l.ch) {
				return TokenRange, true
			}
		case stWord:
			l.accept(TokenWord)
			switch {
			case isWordChar(l.ch):
			case l.ch == '.':
				state = stRangeSep
			default:
				return TokenWord, true
			}
		case stPhrase:
			switch l.ch {
			case '"':
				state = stPhraseEnd
			case source.EOF:
				return l.backtrack()
			}
		case stPhraseEnd:
			l.accept(TokenPhrase)
			if l.ch != '.' {
				return TokenPhrase, true
			}
			state = stRangeSep
		case stIDStart:
			if !isDigit(l.ch) {
				return l.backtrack()
			}
			state = stID
		case stID:
			l.accept(TokenID)
			if !isDigit(l.ch) {
				return TokenID, true
			}
		case stSign:
			if !isDigit(l.ch) {
				return l.backtrack()
			}
			state = stNumber
		default:
			panic(fmt.Sprintf("expr: unknown scanner state %d", state))
		}
		l.addCh()
	}
}

func (l *Lexer) accept(typ TokenType) {
	l.mark = mark{
		typ:  typ,
		ch:   l.ch,
		pos:  l.pos,
		line: l.line,
		col:  l.col,
		next: l.src.Pos(),
		n:    len(l.text),
	}
}

// backtrack returns the scanner to the last accepting state of the run. The
// code points read past it are scanned again as the next token.
func (l *Lexer) backtrack() (TokenType, bool) {
	m := l.mark
	if err := l.src.SetPos(m.next); err != nil {
		l.err = fmt.Errorf("backtracking scanner: %w", err)
		l.ch = source.EOF
		return 0, false
	}
	l.ch, l.pos, l.line, l.col = m.ch, m.pos, m.line, m.col
	l.text = l.text[:m.n]
	return m.typ, true
}
