package lexer

import (
	"darkvm/internal/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	startPosition := l.position

	switch {
	case l.ch == 0:
		return token.Token{Type: token.EOF, Literal: "", Position: startPosition}
	case l.ch == '\n':
		l.readChar()
		return token.Token{Type: token.NEWLINE, Literal: "\n", Position: startPosition}
	case l.ch == '\'' || l.ch == '"':
		return l.readString()
	case l.ch == '@':
		return l.readLabel()
	case l.ch == '-':
		// A lone '-' only makes sense as a sign; comments were consumed by
		// skipWhitespace already.
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Literal: "-", Position: startPosition}
	case isDigit(l.ch):
		return l.readNumber()
	case isLetter(l.ch):
		word := l.readWord()
		tokType := token.LookupIdent(strings.ToLower(word))
		return token.Token{Type: tokType, Literal: word, Position: startPosition}
	default:
		ch := l.ch
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Literal: string(ch), Position: startPosition}
	}
}

// skipWhitespace consumes spaces, tabs and both comment forms: `--` to end
// of line and `-! ... !-` blocks. Newlines are significant and left alone.
func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			l.skipToLineEnd()
		case l.ch == '-' && l.peekChar() == '!':
			l.skipBlockComment()
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() {
	l.readChar() // consume '-'
	l.readChar() // consume '!'
	for l.ch != 0 {
		if l.ch == '!' && l.peekChar() == '-' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// readNumber lexes an integer or float, with an optional leading sign and at
// most one decimal point.
func (l *Lexer) readNumber() token.Token {
	startPosition := l.position
	numStr := ""
	if l.ch == '-' {
		numStr += string(l.ch)
		l.readChar()
	}
	for isDigit(l.ch) {
		numStr += string(l.ch)
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		numStr += string(l.ch)
		l.readChar()
		for isDigit(l.ch) {
			numStr += string(l.ch)
			l.readChar()
		}
		return token.Token{Type: token.FLOAT, Literal: numStr, Position: startPosition}
	}
	return token.Token{Type: token.INT, Literal: numStr, Position: startPosition}
}

// readString lexes a string literal delimited by the same quote rune that
// opened it, either ' or ". An unterminated string yields ILLEGAL.
func (l *Lexer) readString() token.Token {
	startPosition := l.position
	quote := l.ch
	l.readChar() // consume opening quote
	start := l.position
	for l.ch != quote && l.ch != 0 && l.ch != '\n' {
		l.readChar()
	}
	if l.ch != quote {
		return token.Token{Type: token.ILLEGAL, Literal: l.input[startPosition:l.position], Position: startPosition}
	}
	str := l.input[start:l.position]
	l.readChar() // consume closing quote
	return token.Token{Type: token.STRING, Literal: str, Position: startPosition}
}

// readLabel lexes `@name`. The literal carries the name without the sigil.
func (l *Lexer) readLabel() token.Token {
	startPosition := l.position
	l.readChar() // consume '@'
	if !isLetter(l.ch) {
		return token.Token{Type: token.ILLEGAL, Literal: "@", Position: startPosition}
	}
	name := l.readWord()
	return token.Token{Type: token.LABEL, Literal: name, Position: startPosition}
}

// readWord returns the substring (bytes) covering the word runes.
func (l *Lexer) readWord() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readChar advances by one UTF-8 rune, updating byte positions.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF.
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
