package expr

import (
	"errors"
	"testing"

	"github.com/lemonberrylabs/evoql/pkg/source"
)

type tok struct {
	typ TokenType
	val string
}

func tokenize(t *testing.T, input string) []Token {
	t.Helper()
	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", input, err)
	}
	return tokens
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []tok
	}{
		{`GET mention WHERE tag:"news"`, []tok{
			{TokenGet, "GET"}, {TokenWord, "mention"}, {TokenWhere, "WHERE"},
			{TokenWord, "tag"}, {TokenColon, ":"}, {TokenPhrase, `"news"`},
		}},
		{"sentiment>3 AND x<-2", []tok{
			{TokenWord, "sentiment"}, {TokenGreaterThan, ">"}, {TokenNumber, "3"},
			{TokenAnd, "AND"}, {TokenWord, "x"}, {TokenLessThan, "<"}, {TokenNumber, "-2"},
		}},
		{"( a , b )", []tok{
			{TokenOpenGroup, "("}, {TokenWord, "a"}, {TokenComma, ","}, {TokenWord, "b"}, {TokenCloseGroup, ")"},
		}},
		{"not Or and TO ordered Order interval by desc limit over top bottom via set chart", []tok{
			{TokenNot, "not"}, {TokenOr, "Or"}, {TokenAnd, "and"}, {TokenRangeSeparator, "TO"},
			{TokenOrder, "ordered"}, {TokenOrder, "Order"}, {TokenInterval, "interval"}, {TokenBy, "by"},
			{TokenDesc, "desc"}, {TokenLimit, "limit"}, {TokenOver, "over"}, {TokenTop, "top"},
			{TokenBottom, "bottom"}, {TokenVia, "via"}, {TokenSet, "set"}, {TokenChart, "chart"},
		}},
		{"@123 #news café x2", []tok{
			{TokenID, "@123"}, {TokenWord, "#news"}, {TokenWord, "café"}, {TokenWord, "x2"},
		}},
		{`"big news" ""`, []tok{{TokenPhrase, `"big news"`}, {TokenPhrase, `""`}}},
		{"1.5 42", []tok{{TokenNumber, "1.5"}, {TokenNumber, "42"}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assertTokens(t, tokenize(t, tt.input), tt.want)
		})
	}
}

func TestTokenizeRanges(t *testing.T) {
	tests := []struct {
		input string
		want  []tok
	}{
		{"1..5", []tok{{TokenRange, "1..5"}}},
		{"1.5..2.25", []tok{{TokenRange, "1.5..2.25"}}},
		{"-3..-1", []tok{{TokenRange, "-3..-1"}}},
		{"5..-1.5", []tok{{TokenRange, "5..-1.5"}}},
		{"a..z", []tok{{TokenRange, "a..z"}}},
		{"2020..now", []tok{{TokenRange, "2020..now"}}},
		{`"a".."b c"`, []tok{{TokenRange, `"a".."b c"`}}},
		{`a.."z"`, []tok{{TokenRange, `a.."z"`}}},
		// a failed continuation falls back to the last complete token
		{"a.b", []tok{{TokenWord, "a"}, {TokenInvalid, "."}, {TokenWord, "b"}}},
		{"x..-", []tok{{TokenWord, "x"}, {TokenInvalid, "."}, {TokenInvalid, "."}, {TokenInvalid, "-"}}},
		{"5..", []tok{{TokenNumber, "5"}, {TokenInvalid, "."}, {TokenInvalid, "."}}},
		{"1.5.x", []tok{{TokenNumber, "1.5"}, {TokenInvalid, "."}, {TokenWord, "x"}}},
		{"1.2.3", []tok{{TokenNumber, "1.2"}, {TokenInvalid, "."}, {TokenNumber, "3"}}},
		{`"q".x`, []tok{{TokenPhrase, `"q"`}, {TokenInvalid, "."}, {TokenWord, "x"}}},
		{"7..\"open", []tok{{TokenNumber, "7"}, {TokenInvalid, "."}, {TokenInvalid, "."}, {TokenInvalid, `"`}, {TokenWord, "open"}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assertTokens(t, tokenize(t, tt.input), tt.want)
		})
	}
}

func TestTokenizeInvalid(t *testing.T) {
	tests := []struct {
		input string
		want  []tok
	}{
		{"a ~ b", []tok{{TokenWord, "a"}, {TokenInvalid, "~"}, {TokenWord, "b"}}},
		{"@x", []tok{{TokenInvalid, "@"}, {TokenWord, "x"}}},
		{"- 5", []tok{{TokenInvalid, "-"}, {TokenNumber, "5"}}},
		// scanning resumes right after an unterminated quote
		{`"unterminated`, []tok{{TokenInvalid, `"`}, {TokenWord, "unterminated"}}},
		{`a "b AND c:1`, []tok{
			{TokenWord, "a"}, {TokenInvalid, `"`}, {TokenWord, "b"}, {TokenAnd, "AND"},
			{TokenWord, "c"}, {TokenColon, ":"}, {TokenNumber, "1"},
		}},
		{"", nil},
		{"  \r\n ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assertTokens(t, tokenize(t, tt.input), tt.want)
		})
	}
}

func TestTokenPositions(t *testing.T) {
	tokens := tokenize(t, "GET\n  mention\rtag a.b c\r\nd")
	want := []struct {
		val            string
		pos, line, col int
	}{
		{"GET", 0, 1, 1},
		{"mention", 6, 2, 3},
		{"tag", 14, 3, 1},
		{"a", 18, 3, 5},
		{".", 19, 3, 6},
		{"b", 20, 3, 7},
		{"c", 22, 3, 9},
		{"d", 25, 4, 1},
	}
	if len(tokens) != len(want)+1 {
		t.Fatalf("got %d tokens: %v", len(tokens), tokens)
	}
	for i, w := range want {
		got := tokens[i]
		if got.Value != w.val || got.Pos != w.pos || got.Line != w.line || got.Col != w.col {
			t.Errorf("token %d = %q pos %d line %d col %d; want %q pos %d line %d col %d",
				i, got.Value, got.Pos, got.Line, got.Col, w.val, w.pos, w.line, w.col)
		}
	}
}

func TestTokenColumnsCountCodePoints(t *testing.T) {
	tokens := tokenize(t, `"ünïcode" x`)
	if tokens[1].Col != 11 {
		t.Errorf("col = %d, want 11", tokens[1].Col)
	}
	if tokens[1].Pos != 12 {
		t.Errorf("pos = %d, want 12", tokens[1].Pos)
	}
}

func TestLexerPeekQueue(t *testing.T) {
	src, err := source.NewReader(source.NewString("a b c"))
	if err != nil {
		t.Fatal(err)
	}
	l := NewLexer(src)

	expectValue := func(got Token, want string) {
		t.Helper()
		if got.Value != want {
			t.Errorf("got %q, want %q", got.Value, want)
		}
	}

	expectValue(l.Peek(), "a")
	expectValue(l.Peek(), "b")
	l.ResetPeek()
	expectValue(l.Peek(), "a")
	expectValue(l.Scan(), "a")
	expectValue(l.Peek(), "b")
	expectValue(l.Peek(), "c")
	expectValue(l.Scan(), "b")
	expectValue(l.Scan(), "c")
	if got := l.Scan(); got.Type != TokenEOF {
		t.Errorf("got %v, want EOF", got.Type)
	}
	if got := l.Peek(); got.Type != TokenEOF {
		t.Errorf("peek past end = %v, want EOF", got.Type)
	}
}

func TestTokenizeBadByteOrderMark(t *testing.T) {
	if _, err := Tokenize("\xEF\x00GET"); !errors.Is(err, source.ErrBadBOM) {
		t.Errorf("err = %v, want ErrBadBOM", err)
	}
	tokens := tokenize(t, "\xEF\xBB\xBFGET")
	if tokens[0].Type != TokenGet || tokens[0].Col != 1 {
		t.Errorf("first token = %+v", tokens[0])
	}
}

func TestTokenTypeString(t *testing.T) {
	tests := map[TokenType]string{
		TokenEOF:         "EOF",
		TokenCloseGroup:  "CloseGroup",
		TokenLessThan:    `"<"`,
		TokenType(99):    "???",
		TokenID:          "Id",
		TokenGreaterThan: `">"`,
		TokenInvalid:     "Invalid",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
	if !TokenVia.IsKeyword() || TokenWord.IsKeyword() {
		t.Error("IsKeyword mismatch")
	}
}

func assertTokens(t *testing.T, got []Token, want []tok) {
	t.Helper()
	if len(got) == 0 || got[len(got)-1].Type != TokenEOF {
		t.Fatalf("token stream does not end with EOF: %v", got)
	}
	got = got[:len(got)-1]
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].Type != want[i].typ || got[i].Value != want[i].val {
			t.Errorf("token %d = %v %q, want %v %q", i, got[i].Type, got[i].Value, want[i].typ, want[i].val)
		}
	}
}
