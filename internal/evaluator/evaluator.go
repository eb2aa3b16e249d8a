// File: evaluator.go
// Title: Recursive Descent Statement Evaluator
// Description: Parses and evaluates bexpr statements in a single pass. Each
//              grammar non-terminal is one method that pulls tokens from the
//              lexer on demand and folds them into an integer result.
// Author: msto63
// Version: v0.2.0
// Created: 2025-04-22
// Modified: 2025-06-02
//
// Change History:
// - 2025-04-22 v0.1.0: Initial evaluator implementation
// - 2025-06-02 v0.2.0: Resume after a rejected statement at the next ';'

package evaluator

import (
	"math"
	"strconv"
	"strings"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/lexer"
)

/*
Grammar, loosest binding first:

	<bexpr>  ::= <expr> ;
	<expr>   ::= <term> <ttail>
	<ttail>  ::= ( + | - ) <term> <ttail> | e
	<term>   ::= <stmt> <stail>
	<stail>  ::= ( * | / ) <stmt> <stail> | e
	<stmt>   ::= <factor> <ftail>
	<ftail>  ::= <cmp_op> <factor> <ftail> | e
	<factor> ::= <expp> ^ <factor> | <expp>
	<expp>   ::= ( <expr> ) | <int_literal>
	<cmp_op> ::= < | > | <= | >= | != | ==

Comparisons bind tighter than multiplication: 2 * 3 < 4 is 2 * (3 < 4).
*/

// DefaultMaxDepth limits parenthesis and exponent nesting
const DefaultMaxDepth = 256

// Options configures evaluator behavior
type Options struct {
	Logger   *mdwlog.Logger
	MaxDepth int
}

// Evaluator evaluates statements pulled from a lexer. It is not safe for
// concurrent use.
type Evaluator struct {
	lexer   *lexer.Lexer
	current lexer.Token // Lookahead; always ends at the lexer cursor
	depth   int
	logger  *mdwlog.Logger
	options Options
}

// Result is one evaluated or rejected statement
type Result struct {
	Text   string // Statement source including the ';'
	Value  int64
	Offset int   // Offset of the statement's first token in the line
	Err    error // Set when the statement was rejected
}

// New creates an evaluator reading from lx
func New(lx *lexer.Lexer, opts Options) *Evaluator {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	return &Evaluator{
		lexer:   lx,
		logger:  opts.Logger.WithField("component", "evaluator"),
		options: opts,
	}
}

// Statement evaluates one <bexpr> starting at the lexer cursor. On success
// the cursor rests just past the terminating ';'.
func (e *Evaluator) Statement() (int64, error) {
	e.depth = 0
	e.advance()

	value, err := e.bexpr()
	if err != nil {
		e.logger.Debug("Statement rejected", mdwlog.Fields{
			"kind":   KindOf(err).String(),
			"line":   e.current.Line,
			"offset": e.current.Offset,
		})
		return 0, err
	}

	e.logger.Trace("Statement evaluated", mdwlog.Fields{
		"value": value,
		"line":  e.current.Line,
	})
	return value, nil
}

// Done reports whether only whitespace is left on the current line
func (e *Evaluator) Done() bool {
	return e.lexer.AtEnd()
}

// bexpr: <expr> ;
func (e *Evaluator) bexpr() (int64, error) {
	value, err := e.expr()
	if err != nil {
		return 0, err
	}

	if e.current.Category != lexer.SemiColon {
		return 0, e.fail(MissingSemicolon)
	}
	return value, nil
}

// expr: <term> <ttail>
func (e *Evaluator) expr() (int64, error) {
	subtotal, err := e.term()
	if err != nil {
		return 0, err
	}
	return e.ttail(subtotal)
}

// ttail: (+|-) <term> <ttail> | e
func (e *Evaluator) ttail(subtotal int64) (int64, error) {
	if e.current.Category != lexer.AddOp && e.current.Category != lexer.SubOp {
		return subtotal, nil
	}

	op, err := e.addSubOp()
	if err != nil {
		return 0, err
	}

	value, err := e.term()
	if err != nil {
		return 0, err
	}

	var ok bool
	if op == lexer.AddOp {
		subtotal, ok = addInt(subtotal, value)
	} else {
		subtotal, ok = subInt(subtotal, value)
	}
	if !ok {
		return 0, e.fail(Overflow)
	}
	return e.ttail(subtotal)
}

// term: <stmt> <stail>
func (e *Evaluator) term() (int64, error) {
	value, err := e.stmt()
	if err != nil {
		return 0, err
	}
	return e.stail(value)
}

// stail: (*|/) <stmt> <stail> | e
func (e *Evaluator) stail(subtotal int64) (int64, error) {
	if e.current.Category != lexer.MultOp && e.current.Category != lexer.DivOp {
		return subtotal, nil
	}

	op, err := e.mulDivOp()
	if err != nil {
		return 0, err
	}

	value, err := e.stmt()
	if err != nil {
		return 0, err
	}

	if op == lexer.MultOp {
		product, ok := mulInt(subtotal, value)
		if !ok {
			return 0, e.fail(Overflow)
		}
		return e.stail(product)
	}

	if value == 0 {
		return 0, e.fail(DivisionByZero)
	}
	if subtotal == math.MinInt64 && value == -1 {
		return 0, e.fail(Overflow)
	}
	return e.stail(subtotal / value)
}

// stmt: <factor> <ftail>
func (e *Evaluator) stmt() (int64, error) {
	value, err := e.factor()
	if err != nil {
		return 0, err
	}
	return e.ftail(value)
}

// ftail: <cmp_op> <factor> <ftail> | e
func (e *Evaluator) ftail(subtotal int64) (int64, error) {
	if !e.current.Category.IsComparison() {
		return subtotal, nil
	}

	op, err := e.compareOp()
	if err != nil {
		return 0, err
	}

	value, err := e.factor()
	if err != nil {
		return 0, err
	}

	return e.ftail(compare(op, subtotal, value))
}

// factor: <expp> ^ <factor> | <expp>
func (e *Evaluator) factor() (int64, error) {
	base, err := e.expp()
	if err != nil {
		return 0, err
	}

	if e.current.Category != lexer.ExponOp {
		return base, nil
	}
	e.advance() // consume '^'

	if err := e.enter(); err != nil {
		return 0, err
	}
	exponent, err := e.factor()
	e.leave()
	if err != nil {
		return 0, err
	}

	result, ok := power(base, exponent)
	if !ok {
		return 0, e.fail(Overflow)
	}
	return result, nil
}

// expp: ( <expr> ) | <int_literal>
func (e *Evaluator) expp() (int64, error) {
	if e.current.Category != lexer.LeftParen {
		return e.num()
	}
	e.advance() // consume '('

	if err := e.enter(); err != nil {
		return 0, err
	}
	value, err := e.expr()
	e.leave()
	if err != nil {
		return 0, err
	}

	if e.current.Category != lexer.RightParen {
		return 0, e.fail(UnbalancedParen)
	}
	e.advance() // consume ')'
	return value, nil
}

// num: {0-9}+
func (e *Evaluator) num() (int64, error) {
	if e.current.Category != lexer.IntLiteral {
		return 0, e.fail(ExpectedNumber)
	}

	value, err := strconv.ParseInt(e.current.Lexeme, 10, 64)
	if err != nil {
		return 0, e.fail(Overflow)
	}
	e.advance()
	return value, nil
}

// addSubOp: + | -
func (e *Evaluator) addSubOp() (lexer.Category, error) {
	op := e.current.Category
	if op != lexer.AddOp && op != lexer.SubOp {
		return op, e.fail(ExpectedAddSub)
	}
	e.advance()
	return op, nil
}

// mulDivOp: * | /
func (e *Evaluator) mulDivOp() (lexer.Category, error) {
	op := e.current.Category
	if op != lexer.MultOp && op != lexer.DivOp {
		return op, e.fail(ExpectedMulDiv)
	}
	e.advance()
	return op, nil
}

// compareOp: < | > | <= | >= | != | ==
func (e *Evaluator) compareOp() (lexer.Category, error) {
	op := e.current.Category
	if !op.IsComparison() {
		return op, e.fail(ExpectedComparison)
	}
	e.advance()
	return op, nil
}

// Utility methods

// advance pulls the next token into the lookahead
func (e *Evaluator) advance() {
	e.current = e.lexer.NextToken()
}

func (e *Evaluator) enter() error {
	e.depth++
	if e.depth > e.options.MaxDepth {
		return e.fail(TooDeep)
	}
	return nil
}

func (e *Evaluator) leave() {
	e.depth--
}

// fail creates an error positioned at the current token
func (e *Evaluator) fail(kind Kind) error {
	return &Error{Kind: kind, Token: e.current}
}

// Next evaluates the next statement on the current line. A rejected
// statement is skipped up to and including its ';' so the following call
// starts at the next statement; the returned Result then carries the
// skipped source as Text and the error as Err.
func (e *Evaluator) Next() (Result, error) {
	input := e.lexer.Input()
	start := e.lexer.Position() + leadingWhitespace(e.lexer.Remaining())

	value, err := e.Statement()
	if err != nil {
		e.resync()
		text := strings.TrimSpace(input[start:e.lexer.Position()])
		return Result{Text: text, Offset: start, Err: err}, err
	}
	return Result{Text: input[start:e.lexer.Position()], Value: value, Offset: start}, nil
}

// resync consumes tokens until the lookahead is the ';' ending the
// current statement or the end of the line
func (e *Evaluator) resync() {
	for e.current.Category != lexer.SemiColon && e.current.Category != lexer.EndOfLine {
		e.advance()
	}
}

// EvaluateLine evaluates every statement on line. A rejected statement
// does not stop the line: its Result carries the error and evaluation
// resumes after its ';'. The returned error is the first statement error.
func EvaluateLine(line string, opts Options) ([]Result, error) {
	ev := New(lexer.New(line), opts)

	var (
		results  []Result
		firstErr error
	)
	for !ev.Done() {
		result, err := ev.Next()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results = append(results, result)
	}
	return results, firstErr
}

// Evaluate evaluates a single statement. Text after the terminating ';'
// other than whitespace is ignored.
func Evaluate(statement string) (int64, error) {
	ev := New(lexer.New(statement), Options{})
	return ev.Statement()
}

func leadingWhitespace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\n"))
}
