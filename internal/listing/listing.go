// Package listing renders the lexeme listing of a statement source: every
// token with its category, grouped into numbered statements.
package listing

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/lexer"
)

// Separator closes every statement in the listing
var Separator = strings.Repeat("-", 57)

// MaxLineLength bounds a single input line
const MaxLineLength = 1024 * 1024

// Stats summarizes a listing
type Stats struct {
	Lines      int
	Statements int // Statements closed by ';'
	Lexemes    int
	Invalid    int
}

// Writer renders listings line by line. It is not safe for concurrent use.
type Writer struct {
	out       io.Writer
	lexer     *lexer.Lexer
	logger    *mdwlog.Logger
	statement int
	index     int
	pending   bool // Header of the next statement not yet written
	stats     Stats
	err       error
}

// New creates a listing writer. A nil logger uses the default one.
func New(out io.Writer, logger *mdwlog.Logger) *Writer {
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	return &Writer{
		out:       out,
		lexer:     lexer.New(""),
		logger:    logger.WithField("component", "listing"),
		statement: 1,
		pending:   true,
	}
}

// Line lists the tokens of one input line. The header of a statement is
// written when its first line is read, or before its first token when the
// previous statement ended on the same line.
func (w *Writer) Line(line string) error {
	w.stats.Lines++
	w.lexer.Reset(line)
	w.lexer.SetLine(w.stats.Lines)

	if w.pending {
		w.header()
	}

	for {
		tok := w.lexer.NextToken()
		if tok.Category == lexer.EndOfLine {
			break
		}
		if w.pending {
			w.header()
		}
		w.token(tok)
	}
	return w.err
}

// Stats returns the counters collected so far
func (w *Writer) Stats() Stats {
	return w.stats
}

func (w *Writer) header() {
	w.printf("Statement #%d\n", w.statement)
	w.pending = false
	w.index = 0
}

func (w *Writer) token(tok lexer.Token) {
	if tok.Category == lexer.Invalid {
		w.printf("===> '%s'\nLexical error: not a lexeme\n", tok.Lexeme)
		w.stats.Invalid++
		w.logger.Trace("Invalid character", mdwlog.Fields{
			"line":   tok.Line,
			"offset": tok.Offset,
			"char":   tok.Lexeme,
		})
	} else {
		w.printf("Lexeme %d is %s and is %s %s\n", w.index, tok.Lexeme, tok.Category.Article(), tok.Category)
		w.index++
		w.stats.Lexemes++
	}

	if tok.Category == lexer.SemiColon {
		w.printf("%s\n", Separator)
		w.statement++
		w.stats.Statements++
		w.pending = true
	}
}

func (w *Writer) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	if _, err := fmt.Fprintf(w.out, format, args...); err != nil {
		w.err = fmt.Errorf("write listing: %w", err)
	}
}

// Write reads in line by line and writes its listing to out
func Write(in io.Reader, out io.Writer, logger *mdwlog.Logger) (Stats, error) {
	w := New(out, logger)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	for scanner.Scan() {
		if err := w.Line(scanner.Text()); err != nil {
			return w.stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return w.stats, fmt.Errorf("read input: %w", err)
	}

	w.logger.Debug("Listing written", mdwlog.Fields{
		"lines":      w.stats.Lines,
		"statements": w.stats.Statements,
		"lexemes":    w.stats.Lexemes,
		"invalid":    w.stats.Invalid,
	})
	return w.stats, nil
}
