package template

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a template source token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenString
	TokenAtom
	TokenLeftParen
	TokenRightParen
	TokenLeftBracket
	TokenRightBracket
	TokenLeftBrace
	TokenRightBrace
)

// Pos is a 1-based source position
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a lexical token of template source
type Token struct {
	Type  TokenType
	Value string
	Pos   Pos
}

// lexer tokenizes EDN-style template source
type lexer struct {
	input   string
	pos     int
	line    int
	col     int
	tokens  []Token
	current int
}

func newLexer(input string) *lexer {
	return &lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

var delimiterTokens = map[byte]TokenType{
	'(': TokenLeftParen,
	')': TokenRightParen,
	'[': TokenLeftBracket,
	']': TokenRightBracket,
	'{': TokenLeftBrace,
	'}': TokenRightBrace,
}

// lex tokenizes the entire input
func (l *lexer) lex() error {
	for {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.input) {
			break
		}

		start := Pos{Line: l.line, Col: l.col}
		ch := l.peek()

		if ch == '"' {
			str, err := l.readString()
			if err != nil {
				return err
			}
			l.tokens = append(l.tokens, Token{Type: TokenString, Value: str, Pos: start})
			continue
		}

		if tt, ok := delimiterTokens[ch]; ok {
			l.advance()
			l.tokens = append(l.tokens, Token{Type: tt, Pos: start})
			continue
		}

		atom := l.readAtom()
		if atom == "" {
			return &CompileError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", ch)}
		}
		l.tokens = append(l.tokens, Token{Type: TokenAtom, Value: atom, Pos: start})
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: Pos{Line: l.line, Col: l.col}})
	return nil
}

func (l *lexer) next() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Pos: Pos{Line: l.line, Col: l.col}}
	}
	t := l.tokens[l.current]
	l.current++
	return t
}

func (l *lexer) peekToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Pos: Pos{Line: l.line, Col: l.col}}
	}
	return l.tokens[l.current]
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// skipWhitespaceAndComments skips whitespace, commas and ; comments
func (l *lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case unicode.IsSpace(rune(ch)) || ch == ',':
			l.advance()
		case ch == ';':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) readString() (string, error) {
	start := Pos{Line: l.line, Col: l.col}
	var sb strings.Builder
	l.advance() // opening quote

	for l.pos < len(l.input) {
		ch := l.peek()
		switch ch {
		case '"':
			l.advance()
			return sb.String(), nil
		case '\\':
			l.advance()
			if l.pos >= len(l.input) {
				return "", &CompileError{Pos: start, Msg: "unterminated string"}
			}
			switch esc := l.peek(); esc {
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'n':
				sb.WriteByte('\n')
			case '\\', '"':
				sb.WriteByte(esc)
			default:
				return "", &CompileError{
					Pos: Pos{Line: l.line, Col: l.col},
					Msg: fmt.Sprintf("invalid escape sequence '\\%c'", esc),
				}
			}
			l.advance()
		default:
			sb.WriteByte(ch)
			l.advance()
		}
	}

	return "", &CompileError{Pos: start, Msg: "unterminated string"}
}

func (l *lexer) readAtom() string {
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.peek()
		if isDelimiter(ch) || unicode.IsSpace(rune(ch)) || ch == ',' {
			break
		}
		sb.WriteByte(ch)
		l.advance()
	}
	return sb.String()
}

func isDelimiter(ch byte) bool {
	_, ok := delimiterTokens[ch]
	return ok || ch == '"' || ch == ';'
}
