package lexer

import (
	"testing"

	"github.com/zurustar/autoscript/pkg/compiler/token"
)

func TestNextToken(t *testing.T) {
	input := `
	// smoke test
	fn run() {
		ui_click_pos(10 -20);
		queue_screenshot("menu");
	}
	`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.COMMENT, "// smoke test"},
		{token.FN, "fn"},
		{token.IDENT, "run"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},

		{token.IDENT, "ui_click_pos"},
		{token.LPAREN, "("},
		{token.INT, "10"},
		{token.INT, "-20"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},

		{token.IDENT, "queue_screenshot"},
		{token.LPAREN, "("},
		{token.STRING, "menu"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},

		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Positions(t *testing.T) {
	input := "fn a() {\n  b(\"x\");\n}"
	l := New(input)

	want := []struct {
		typ    token.TokenType
		line   int
		column int
		offset int
	}{
		{token.FN, 1, 1, 0},
		{token.IDENT, 1, 4, 3},
		{token.LPAREN, 1, 5, 4},
		{token.RPAREN, 1, 6, 5},
		{token.LBRACE, 1, 8, 7},
		{token.IDENT, 2, 3, 11},
		{token.LPAREN, 2, 4, 12},
		{token.STRING, 2, 5, 13},
		{token.RPAREN, 2, 8, 16},
		{token.SEMICOLON, 2, 9, 17},
		{token.RBRACE, 3, 1, 19},
		{token.EOF, 3, 2, 20},
	}

	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ || tok.Line != w.line || tok.Column != w.column || tok.Offset != w.offset {
			t.Fatalf("tests[%d] - got %s at %d:%d (offset %d), want %s at %d:%d (offset %d)",
				i, tok.Type, tok.Line, tok.Column, tok.Offset, w.typ, w.line, w.column, w.offset)
		}
	}
}

func TestNextToken_Illegal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		literal string
	}{
		{"unterminated string", `"abc`, `"abc`},
		{"lone minus", `- 1`, "-"},
		{"single slash", `/ x`, "/"},
		{"multibyte rune", "あ", "あ"},
		{"equals sign", "=", "="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != token.ILLEGAL {
				t.Fatalf("expected ILLEGAL, got %s", tok.Type)
			}
			if tok.Literal != tt.literal {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.literal)
			}
		})
	}
}

// tokenize reads tokens up to and including EOF or the first ILLEGAL.
func tokenize(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF || tok.Type == token.ILLEGAL {
			return toks
		}
	}
}

func TestNextToken_IdentifiersExcludeDigits(t *testing.T) {
	toks := tokenize("abc12")
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(toks), toks)
	}
	if toks[0].Type != token.IDENT || toks[0].Literal != "abc" {
		t.Errorf("first token = %v", toks[0])
	}
	if toks[1].Type != token.INT || toks[1].Literal != "12" {
		t.Errorf("second token = %v", toks[1])
	}
}

func TestNextToken_CommentAtEOF(t *testing.T) {
	toks := tokenize("// trailing")
	if len(toks) != 2 || toks[0].Type != token.COMMENT || toks[1].Type != token.EOF {
		t.Fatalf("unexpected tokens: %v", toks)
	}
}

func TestNextToken_StringMayContainNewline(t *testing.T) {
	l := New("\"a\nb\" x")
	tok := l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "a\nb" {
		t.Fatalf("got %v", tok)
	}
	next := l.NextToken()
	if next.Line != 2 || next.Column != 4 {
		t.Errorf("position after string = %d:%d, want 2:4", next.Line, next.Column)
	}
}
