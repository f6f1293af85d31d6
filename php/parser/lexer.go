package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

const openTag = "<?php"

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

type Lexer struct {
	input  []byte
	file   string
	pos    int
	line   int
	column int
}

// NewLexer returns a lexer over input. A leading byte-order mark is
// dropped; offsets are relative to the remaining bytes.
func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input:  bytes.TrimPrefix(input, byteOrderMark),
		file:   file,
		pos:    0,
		line:   1,
		column: 1,
	}
}

// Tokenize scans src to completion. Whitespace is not emitted; every
// other byte of the input belongs to exactly one token.
func Tokenize(src []byte, file string) []Token {
	l := NewLexer(src, file)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Kind == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else if utf8.RuneStart(ch) {
		// Columns count runes; continuation bytes do not advance them.
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && isWhitespace(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) hasPrefixFold(s string) bool {
	if l.pos+len(s) > len(l.input) {
		return false
	}
	return strings.EqualFold(string(l.input[l.pos:l.pos+len(s)]), s)
}

// NextToken returns the next significant token, or TokenEOF once the
// input is exhausted.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	start := l.Position()

	if l.atEnd() {
		return Token{Kind: TokenEOF, Pos: start}
	}

	ch := l.peek()

	if ch == '<' && l.hasPrefixFold(openTag) {
		l.advanceN(len(openTag))
		return l.token(TokenOpenTag, start)
	}
	if ch == '#' || (ch == '/' && l.peekN(1) == '/') {
		return l.scanLineComment(start)
	}
	if ch == '/' && l.peekN(1) == '*' {
		return l.scanBlockComment(start)
	}
	if ch == '\'' || ch == '"' {
		return l.scanString(start, ch)
	}
	if ch == '$' && isIdentChar(l.peekN(1)) && l.peekN(1) != '\\' {
		return l.scanVariable(start)
	}
	if isIdentChar(ch) {
		return l.scanIdentOrKeyword(start)
	}

	l.advance()
	return l.token(TokenChar, start)
}

func (l *Lexer) scanLineComment(start Position) Token {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
	return l.token(TokenComment, start)
}

func (l *Lexer) scanBlockComment(start Position) Token {
	kind := TokenComment
	if l.peekN(2) == '*' && l.peekN(3) != '/' {
		kind = TokenDocComment
	}
	l.advanceN(2)
	for !l.atEnd() {
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			break
		}
		l.advance()
	}
	return l.token(kind, start)
}

func (l *Lexer) scanString(start Position, quote byte) Token {
	l.advance()
	for !l.atEnd() && l.peek() != quote {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.peek() == quote {
		l.advance()
	}
	return l.token(TokenString, start)
}

func (l *Lexer) scanVariable(start Position) Token {
	l.advance()
	for isIdentChar(l.peek()) && l.peek() != '\\' {
		l.advance()
	}
	return l.token(TokenVariable, start)
}

func (l *Lexer) scanIdentOrKeyword(start Position) Token {
	for isIdentChar(l.peek()) {
		l.advance()
	}
	literal := string(l.input[start.Offset:l.pos])
	return Token{
		Kind:    LookupKeyword(literal),
		Pos:     start,
		Literal: literal,
	}
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	return Token{
		Kind:    kind,
		Pos:     start,
		Literal: string(l.input[start.Offset:l.pos]),
	}
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == '\v'
}

// isIdentChar accepts bytes >= 0x80 so that multi-byte UTF-8 names stay
// in one token.
func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') || ch == '_' || ch == '\\' || ch >= 0x80
}
