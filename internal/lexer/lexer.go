package lexer

import (
	"fmt"
)

// Token is one classified lexeme
type Token struct {
	Lexeme   string   // Exact source text of the lexeme
	Category Category // Classification
	Offset   int      // Byte offset of the lexeme in the line
	Line     int      // Line number (1-based)
}

// String returns a debug representation of the token
func (t Token) String() string {
	if t.Category == EndOfLine {
		return "END_OF_LINE"
	}
	return fmt.Sprintf("%s(%s)", t.Category, t.Lexeme)
}

// End returns the offset just past the lexeme
func (t Token) End() int {
	return t.Offset + len(t.Lexeme)
}

// Lexer scans one line of input at a time
type Lexer struct {
	input    string // Current line
	position int    // Cursor: offset of the next unread byte
	line     int    // Line counter, incremented on skipped newlines
}

// New creates a lexer positioned at the start of line
func New(line string) *Lexer {
	l := &Lexer{line: 1}
	l.Reset(line)
	return l
}

// Reset points the lexer at a new line and rewinds the cursor. The line
// counter keeps counting across resets.
func (l *Lexer) Reset(line string) {
	l.input = line
	l.position = 0
}

// SetLine overrides the line counter, e.g. when the caller reads lines
// from a file and knows the real line number.
func (l *Lexer) SetLine(n int) {
	l.line = n
}

// Position returns the cursor offset
func (l *Lexer) Position() int {
	return l.position
}

// Line returns the current line number
func (l *Lexer) Line() int {
	return l.line
}

// Input returns the line being scanned
func (l *Lexer) Input() string {
	return l.input
}

// Remaining returns the unread part of the line
func (l *Lexer) Remaining() string {
	return l.input[l.position:]
}

// AtEnd reports whether only whitespace is left on the line
func (l *Lexer) AtEnd() bool {
	for i := l.position; i < len(l.input); i++ {
		if !isWhitespace(l.input[i]) {
			return false
		}
	}
	return true
}

// NextToken returns the next token and advances the cursor past it.
// At the end of the line it returns an EndOfLine token and leaves the
// cursor where it is.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	category, length := Classify(l.input[l.position:])
	tok := Token{
		Lexeme:   l.input[l.position : l.position+length],
		Category: category,
		Offset:   l.position,
		Line:     l.line,
	}
	l.position += length
	return tok
}

// skipWhitespace skips blanks, tabs and newlines
func (l *Lexer) skipWhitespace() {
	for l.position < len(l.input) && isWhitespace(l.input[l.position]) {
		if l.input[l.position] == '\n' {
			l.line++
		}
		l.position++
	}
}

// Classify returns the category of the lexeme at the start of s together
// with its length in bytes. An empty s classifies as EndOfLine with length
// zero; an unknown leading character is Invalid with length one.
func Classify(s string) (Category, int) {
	if len(s) == 0 {
		return EndOfLine, 0
	}

	switch s[0] {
	case '+':
		return AddOp, 1
	case '-':
		return SubOp, 1
	case '*':
		return MultOp, 1
	case '/':
		return DivOp, 1
	case '^':
		return ExponOp, 1
	case '<':
		return withEquals(s, LessThanOrEqualOp, LessThanOp)
	case '>':
		return withEquals(s, GreaterThanOrEqualOp, GreaterThanOp)
	case '=':
		return withEquals(s, EqualsOp, AssignOp)
	case '!':
		return withEquals(s, NotEqualsOp, NotOp)
	case '(':
		return LeftParen, 1
	case ')':
		return RightParen, 1
	case ';':
		return SemiColon, 1
	}

	if n := scanDigits(s); n > 0 {
		return IntLiteral, n
	}
	return Invalid, 1
}

// withEquals peeks one byte past the operator: a following '=' selects the
// two-character category.
func withEquals(s string, double, single Category) (Category, int) {
	if len(s) > 1 && s[1] == '=' {
		return double, 2
	}
	return single, 1
}

// scanDigits returns the length of the maximal run of ASCII digits at the
// start of s
func scanDigits(s string) int {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	return n
}

// Tokenize returns every token on line, excluding the final EndOfLine
func Tokenize(line string) []Token {
	l := New(line)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Category == EndOfLine {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n'
}
