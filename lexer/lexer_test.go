package lexer

import (
	"strings"
	"testing"
)

type lexerTest struct {
	input             string
	expectedTokenType []TokenType
	expectedLiteral   []string
}

func runLexerTest(t *testing.T, tt lexerTest) {
	t.Helper()
	l := NewLexer(strings.NewReader(tt.input))
	for i, expTType := range tt.expectedTokenType {
		tok := l.NextToken()

		if tok.Type != expTType {
			t.Fatalf("[%q]: wrong type for token %d. expected=%s, got=%s (%q)", tt.input, i, expTType, tok.Type, tok.Literal)
		}
		if tt.expectedLiteral != nil && tok.Literal != tt.expectedLiteral[i] {
			t.Fatalf("[%q]: wrong literal for token %d. expected=%q, got=%q", tt.input, i, tt.expectedLiteral[i], tok.Literal)
		}
	}
}

func TestNextToken(t *testing.T) {
	tests := []lexerTest{
		{
			"class Main {};",
			[]TokenType{CLASS, TYPEID, LBRACE, RBRACE, SEMI, EOF},
			[]string{"class", "Main", "{", "}", ";", ""},
		},
		{
			"x <- true; -- One line comment\nx <- false;",
			[]TokenType{OBJECTID, ASSIGN, BOOL_CONST, SEMI, OBJECTID, ASSIGN, BOOL_CONST, SEMI, EOF},
			[]string{"x", "<-", "true", ";", "x", "<-", "false", ";", ""},
		},
		{
			"a <- 0; b   <- a <= \"1\\n\";",
			[]TokenType{OBJECTID, ASSIGN, INT_CONST, SEMI, OBJECTID, ASSIGN, OBJECTID, LE, STR_CONST, SEMI, EOF},
			[]string{"a", "<-", "0", ";", "b", "<-", "a", "<=", "1\n", ";", ""},
		},
		{
			"{true\n1\n\"some string\"\n}",
			[]TokenType{LBRACE, BOOL_CONST, INT_CONST, STR_CONST, RBRACE, EOF},
			[]string{"{", "true", "1", "some string", "}", ""},
		},
		{
			"let a:A in true",
			[]TokenType{LET, OBJECTID, COLON, TYPEID, IN, BOOL_CONST, EOF},
			[]string{"let", "a", ":", "A", "in", "true", ""},
		},
		{
			"case a of b:B => false; esac",
			[]TokenType{CASE, OBJECTID, OF, OBJECTID, COLON, TYPEID, DARROW, BOOL_CONST, SEMI, ESAC, EOF},
			[]string{"case", "a", "of", "b", ":", "B", "=>", "false", ";", "esac", ""},
		},
		{
			"x@A.f(~1, 2 * 3 / 4 - 5 + 6)",
			[]TokenType{OBJECTID, AT, TYPEID, DOT, OBJECTID, LPAREN, NEG, INT_CONST, COMMA,
				INT_CONST, TIMES, INT_CONST, DIVIDE, INT_CONST, MINUS, INT_CONST, PLUS, INT_CONST, RPAREN, EOF},
			nil,
		},
	}

	for _, tt := range tests {
		runLexerTest(t, tt)
	}
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	runLexerTest(t, lexerTest{
		input:             "CLASS Inherits wHiLe Loop POOL IsVoid NoT",
		expectedTokenType: []TokenType{CLASS, INHERITS, WHILE, LOOP, POOL, ISVOID, NOT, EOF},
	})
}

func TestBooleanNeedsLowercaseInitial(t *testing.T) {
	runLexerTest(t, lexerTest{
		input:             "tRUE fALSE True False",
		expectedTokenType: []TokenType{BOOL_CONST, BOOL_CONST, TYPEID, TYPEID, EOF},
		expectedLiteral:   []string{"true", "false", "True", "False", ""},
	})
}

func TestNestedComments(t *testing.T) {
	runLexerTest(t, lexerTest{
		input:             "a (* outer (* inner *) still outer *) b",
		expectedTokenType: []TokenType{OBJECTID, OBJECTID, EOF},
		expectedLiteral:   []string{"a", "b", ""},
	})
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"unterminated string", "\"abc\ndef\"", "unterminated string"},
		{"eof in string", "\"abc", "EOF in string"},
		{"eof in comment", "(* never closed", "EOF in comment"},
		{"unmatched close", "*)", "unmatched *)"},
		{"int out of range", "32768", "out of range"},
		{"bad character", "#", "unexpected character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewLexer(strings.NewReader(tt.input)).NextToken()
			if tok.Type != ERROR {
				t.Fatalf("expected ERROR, got %s", tok)
			}
			if !strings.Contains(tok.Literal, tt.msg) {
				t.Errorf("expected message containing %q, got %q", tt.msg, tok.Literal)
			}
		})
	}
}

func TestMaxIntAccepted(t *testing.T) {
	runLexerTest(t, lexerTest{
		input:             "32767",
		expectedTokenType: []TokenType{INT_CONST, EOF},
		expectedLiteral:   []string{"32767", ""},
	})
}

func TestTokenPositions(t *testing.T) {
	l := NewLexer(strings.NewReader("class A {\n  x : Int;\n};"))
	toks := l.Tokenize()

	want := []struct {
		typ       TokenType
		line, col int
	}{
		{CLASS, 1, 1},
		{TYPEID, 1, 7},
		{LBRACE, 1, 9},
		{OBJECTID, 2, 3},
		{COLON, 2, 5},
		{TYPEID, 2, 7},
		{SEMI, 2, 10},
		{RBRACE, 3, 1},
		{SEMI, 3, 2},
		{EOF, 3, 3},
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(toks), toks)
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Line != w.line || toks[i].Column != w.col {
			t.Errorf("token %d: got %s, want %s at %d:%d", i, toks[i], w.typ, w.line, w.col)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	tok := NewLexer(strings.NewReader(`"tab\there\\ \"q\" \x"`)).NextToken()
	if tok.Type != STR_CONST {
		t.Fatalf("expected STR_CONST, got %s", tok)
	}
	if want := "tab\there\\ \"q\" x"; tok.Literal != want {
		t.Errorf("got %q, want %q", tok.Literal, want)
	}
}
