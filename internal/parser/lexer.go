package parser

import (
	"fmt"
	"strings"
)

// Lexer scans a SQL source string into a stream of Tokens.
type Lexer struct {
	src string
	pos int // current byte offset
}

// NewLexer returns a Lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Next scans and returns the next Token, or a Token{Type: EOF} once the
// input is exhausted. A byte the lexer cannot classify yields
// Token{Type: ILLEGAL}; the parser turns that into a *Error.
func (l *Lexer) Next() Token {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Pos: Pos(start)}
	}

	c := l.src[l.pos]
	switch {
	case isDigit(c):
		return l.lexNumber(start)
	case c == '\'' || c == '"':
		return l.lexString(start, c)
	case isIdentStart(c):
		return l.lexIdent(start)
	}

	switch c {
	case '(':
		l.pos++
		return Token{Type: LPAREN, Value: "(", Pos: Pos(start)}
	case ')':
		l.pos++
		return Token{Type: RPAREN, Value: ")", Pos: Pos(start)}
	case ',':
		l.pos++
		return Token{Type: COMMA, Value: ",", Pos: Pos(start)}
	case '*':
		l.pos++
		return Token{Type: STAR, Value: "*", Pos: Pos(start)}
	case '.':
		l.pos++
		return Token{Type: DOT, Value: ".", Pos: Pos(start)}
	case '=':
		l.pos++
		return Token{Type: EQ, Value: "=", Pos: Pos(start)}
	case '!':
		if l.peekByte(1) == '=' {
			l.pos += 2
			return Token{Type: NEQ, Value: "!=", Pos: Pos(start)}
		}
		l.pos++
		return Token{Type: ILLEGAL, Value: "!", Pos: Pos(start)}
	case '<':
		if l.peekByte(1) == '=' {
			l.pos += 2
			return Token{Type: LTE, Value: "<=", Pos: Pos(start)}
		}
		l.pos++
		return Token{Type: LT, Value: "<", Pos: Pos(start)}
	case '>':
		if l.peekByte(1) == '=' {
			l.pos += 2
			return Token{Type: GTE, Value: ">=", Pos: Pos(start)}
		}
		l.pos++
		return Token{Type: GT, Value: ">", Pos: Pos(start)}
	case ';':
		// Statement terminator: skipped like whitespace wherever it
		// appears, and scanning continues with the next token.
		l.pos++
		return l.Next()
	}

	l.pos++
	return Token{Type: ILLEGAL, Value: string(c), Pos: Pos(start)}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) peekByte(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) lexNumber(start int) Token {
	isFloat := false
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	typ := INT
	if isFloat {
		typ = FLOAT
	}
	return Token{Type: typ, Value: l.src[start:l.pos], Pos: Pos(start)}
}

func (l *Lexer) lexString(start int, quote byte) Token {
	l.pos++ // consume opening quote
	var sb strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		sb.WriteByte(l.src[l.pos])
		l.pos++
	}
	// A doubled quote ('') inside the literal is an escaped quote, not the
	// terminator (spec.md §6) - consume both bytes, emit one, and keep scanning.
	for l.pos < len(l.src) && l.src[l.pos] == quote && l.peekByte(1) == quote {
		sb.WriteByte(quote)
		l.pos += 2
		for l.pos < len(l.src) && l.src[l.pos] != quote {
			sb.WriteByte(l.src[l.pos])
			l.pos++
		}
	}
	if l.pos >= len(l.src) {
		return Token{Type: ILLEGAL, Value: fmt.Sprintf("unterminated string starting at %d", start), Pos: Pos(start)}
	}
	l.pos++ // consume closing quote
	return Token{Type: STRING, Value: sb.String(), Pos: Pos(start)}
}

func (l *Lexer) lexIdent(start int) Token {
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	upper := strings.ToUpper(text)
	typ := lookupIdent(upper)
	if typ.IsKeyword() {
		return Token{Type: typ, Value: upper, Pos: Pos(start)}
	}
	return Token{Type: IDENT, Value: text, Pos: Pos(start)}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
