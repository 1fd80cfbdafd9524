package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type TokenType int

// The list of token types
const (
	EOF TokenType = iota
	ERROR

	// Keywords
	CLASS
	INHERITS
	ISVOID
	IF
	ELSE
	FI
	THEN
	LET
	IN
	WHILE
	CASE
	ESAC
	LOOP
	POOL
	NEW
	OF
	NOT

	// Data types
	STR_CONST
	BOOL_CONST
	INT_CONST

	// Identifiers
	TYPEID
	OBJECTID

	// Operators
	ASSIGN // <-
	DARROW // =>
	LT     // <
	LE     // <=
	EQ     // =
	PLUS   // +
	MINUS  // -
	TIMES  // *
	DIVIDE // /
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	SEMI   // ;
	COLON  // :
	COMMA  // ,
	DOT    // .
	AT     // @
	NEG    // ~
)

var tokenNames = [...]string{
	"EOF", "ERROR",
	"CLASS", "INHERITS", "ISVOID", "IF", "ELSE", "FI", "THEN",
	"LET", "IN", "WHILE", "CASE", "ESAC", "LOOP", "POOL",
	"NEW", "OF", "NOT",
	"STR_CONST", "BOOL_CONST", "INT_CONST",
	"TYPEID", "OBJECTID",
	"ASSIGN", "DARROW", "LT", "LE", "EQ", "PLUS", "MINUS",
	"TIMES", "DIVIDE", "LPAREN", "RPAREN", "LBRACE", "RBRACE",
	"SEMI", "COLON", "COMMA", "DOT", "AT", "NEG",
}

func (tt TokenType) String() string {
	if int(tt) < 0 || int(tt) >= len(tokenNames) {
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
	return tokenNames[tt]
}

// Keywords are case insensitive.
var keywords = map[string]TokenType{
	"class":    CLASS,
	"inherits": INHERITS,
	"isvoid":   ISVOID,
	"if":       IF,
	"fi":       FI,
	"else":     ELSE,
	"then":     THEN,
	"case":     CASE,
	"esac":     ESAC,
	"while":    WHILE,
	"loop":     LOOP,
	"pool":     POOL,
	"of":       OF,
	"let":      LET,
	"in":       IN,
	"new":      NEW,
	"not":      NOT,
}

// Integers are 16-bit words on the target.
const MaxInt = 32767

// MaxStringLength is the longest string constant accepted.
const MaxStringLength = 1024

// Token represents a lexical token with its type, value, and position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q (%d:%d)", t.Type, t.Literal, t.Line, t.Column)
}

// Lexer is the lexical analyzer.
type Lexer struct {
	reader *bufio.Reader
	line   int
	column int
	char   rune
}

// NewLexer creates a new lexer from an io.Reader
func NewLexer(reader io.Reader) *Lexer {
	l := &Lexer{
		reader: bufio.NewReader(reader),
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar advances to the next rune. Position tracking is updated before
// the new rune is loaded so that line/column always describe l.char.
func (l *Lexer) readChar() {
	if l.char == '\n' {
		l.line++
		l.column = 0
	}
	r, _, err := l.reader.ReadRune()
	if err != nil {
		r = 0
	}
	l.char = r
	l.column++
}

func (l *Lexer) peekChar() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		return 0
	}
	_ = l.reader.UnreadRune()
	return r
}

func (l *Lexer) skipWhiteSpace() {
	for l.char != 0 && unicode.IsSpace(l.char) {
		l.readChar()
	}
}

func (l *Lexer) readWhile(pred func(rune) bool) string {
	var sb strings.Builder
	for l.char != 0 && pred(l.char) {
		sb.WriteRune(l.char)
		l.readChar()
	}
	return sb.String()
}

func isIdentifierPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (l *Lexer) readString() (string, error) {
	var sb strings.Builder
	line := l.line

	l.readChar() // opening quote
	for l.char != '"' {
		switch l.char {
		case 0:
			return "", fmt.Errorf("EOF in string constant at line %d", line)
		case '\n':
			l.readChar()
			return "", fmt.Errorf("unterminated string constant at line %d", line)
		case '\\':
			l.readChar()
			switch l.char {
			case 'b':
				sb.WriteByte('\b')
			case 't':
				sb.WriteByte('\t')
			case 'n':
				sb.WriteByte('\n')
			case 'f':
				sb.WriteByte('\f')
			case 0:
				return "", fmt.Errorf("EOF in string constant at line %d", line)
			default:
				sb.WriteRune(l.char)
			}
		default:
			sb.WriteRune(l.char)
		}
		l.readChar()
	}
	l.readChar() // closing quote

	s := sb.String()
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("string constant contains null character at line %d", line)
	}
	if len(s) > MaxStringLength {
		return "", fmt.Errorf("string constant too long at line %d", line)
	}
	return s, nil
}

// skipComment consumes a line comment or a (possibly nested) block comment.
func (l *Lexer) skipComment() error {
	if l.char == '-' {
		for l.char != '\n' && l.char != 0 {
			l.readChar()
		}
		return nil
	}

	line := l.line
	l.readChar() // (
	l.readChar() // *
	depth := 1
	for depth > 0 {
		switch {
		case l.char == 0:
			return fmt.Errorf("EOF in comment starting at line %d", line)
		case l.char == '(' && l.peekChar() == '*':
			l.readChar()
			depth++
		case l.char == '*' && l.peekChar() == ')':
			l.readChar()
			depth--
		}
		l.readChar()
	}
	return nil
}

var singleCharTokens = map[rune]TokenType{
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
	';': SEMI,
	':': COLON,
	',': COMMA,
	'+': PLUS,
	'/': DIVIDE,
	'~': NEG,
	'.': DOT,
	'@': AT,
}

// NextToken returns the next token, skipping whitespace and comments.
// Lexical errors come back as ERROR tokens carrying the message.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhiteSpace()
		isLine := l.char == '-' && l.peekChar() == '-'
		isBlock := l.char == '(' && l.peekChar() == '*'
		if !isLine && !isBlock {
			break
		}
		if err := l.skipComment(); err != nil {
			return Token{Type: ERROR, Literal: err.Error(), Line: l.line, Column: l.column}
		}
	}

	tok := Token{Line: l.line, Column: l.column}

	if tt, ok := singleCharTokens[l.char]; ok {
		tok.Type = tt
		tok.Literal = string(l.char)
		l.readChar()
		return tok
	}

	switch {
	case l.char == 0:
		tok.Type = EOF
	case l.char == '(':
		tok.Type, tok.Literal = LPAREN, "("
		l.readChar()
	case l.char == '-':
		tok.Type, tok.Literal = MINUS, "-"
		l.readChar()
	case l.char == '*':
		if l.peekChar() == ')' {
			l.readChar()
			l.readChar()
			tok.Type, tok.Literal = ERROR, "unmatched *)"
			break
		}
		tok.Type, tok.Literal = TIMES, "*"
		l.readChar()
	case l.char == '=':
		l.readChar()
		if l.char == '>' {
			l.readChar()
			tok.Type, tok.Literal = DARROW, "=>"
		} else {
			tok.Type, tok.Literal = EQ, "="
		}
	case l.char == '<':
		l.readChar()
		switch l.char {
		case '-':
			l.readChar()
			tok.Type, tok.Literal = ASSIGN, "<-"
		case '=':
			l.readChar()
			tok.Type, tok.Literal = LE, "<="
		default:
			tok.Type, tok.Literal = LT, "<"
		}
	case l.char == '"':
		s, err := l.readString()
		if err != nil {
			tok.Type, tok.Literal = ERROR, err.Error()
		} else {
			tok.Type, tok.Literal = STR_CONST, s
		}
	case unicode.IsDigit(l.char):
		digits := l.readWhile(unicode.IsDigit)
		if n, err := strconv.Atoi(digits); err != nil || n > MaxInt {
			tok.Type, tok.Literal = ERROR, fmt.Sprintf("integer constant %s out of range", digits)
		} else {
			tok.Type, tok.Literal = INT_CONST, digits
		}
	case unicode.IsLetter(l.char):
		ident := l.readWhile(isIdentifierPart)
		tok.Literal = ident
		lower := strings.ToLower(ident)
		if kw, ok := keywords[lower]; ok {
			tok.Type = kw
		} else if (lower == "true" || lower == "false") && unicode.IsLower(rune(ident[0])) {
			tok.Type = BOOL_CONST
			tok.Literal = lower
		} else if unicode.IsUpper(rune(ident[0])) {
			tok.Type = TYPEID
		} else {
			tok.Type = OBJECTID
		}
	default:
		tok.Type = ERROR
		tok.Literal = fmt.Sprintf("unexpected character %q", l.char)
		l.readChar()
	}

	return tok
}

// Tokenize drains the lexer, stopping after EOF.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}
