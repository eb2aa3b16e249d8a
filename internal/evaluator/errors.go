package evaluator

import (
	"errors"
	"fmt"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
	"github.com/msto63/bexpr/internal/lexer"
)

// ErrStatement is the sentinel shared by every evaluation failure.
// errors.Is(err, ErrStatement) holds for all *Error values.
var ErrStatement = errors.New("statement rejected")

// Kind identifies why a statement was rejected. Kind implements error so
// that errors.Is(err, evaluator.DivisionByZero) matches a specific kind.
type Kind int

const (
	MissingSemicolon Kind = iota + 1
	ExpectedAddSub
	ExpectedMulDiv
	ExpectedComparison
	ExpectedNumber
	UnbalancedParen
	DivisionByZero
	Overflow
	TooDeep
)

var kindMessages = map[Kind]string{
	MissingSemicolon:   "Syntax Error: ';' expected",
	ExpectedAddSub:     "Syntax Error: Expected '+' or '-'",
	ExpectedMulDiv:     "Syntax Error: Expected '*' or '/'",
	ExpectedComparison: "Syntax Error: Expected a comparison operator",
	ExpectedNumber:     "Syntax Error: Expected a number",
	UnbalancedParen:    "Syntax Error: Unbalanced right parenthesis",
	DivisionByZero:     "Evaluation Error: Division by zero",
	Overflow:           "Evaluation Error: Integer overflow",
	TooDeep:            "Syntax Error: Expression nested too deeply",
}

var kindNames = map[Kind]string{
	MissingSemicolon:   "missing_semicolon",
	ExpectedAddSub:     "expected_add_sub",
	ExpectedMulDiv:     "expected_mul_div",
	ExpectedComparison: "expected_comparison",
	ExpectedNumber:     "expected_number",
	UnbalancedParen:    "unbalanced_paren",
	DivisionByZero:     "division_by_zero",
	Overflow:           "overflow",
	TooDeep:            "too_deep",
}

// Error returns the diagnostic message printed for this kind
func (k Kind) Error() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return "Syntax Error: unknown"
}

// String returns a short snake_case name, used in logs and stored history
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsSyntax reports whether the kind is a grammar violation rather than an
// arithmetic failure.
func (k Kind) IsSyntax() bool {
	return k != DivisionByZero && k != Overflow
}

// ParseKind is the inverse of Kind.String
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Error is returned for every rejected statement
type Error struct {
	Kind  Kind
	Token lexer.Token // Token that was current when evaluation stopped
}

// Error returns the verbatim diagnostic message
func (e *Error) Error() string {
	return e.Kind.Error()
}

// Is matches ErrStatement and the error's own Kind
func (e *Error) Is(target error) bool {
	if target == ErrStatement {
		return true
	}
	if k, ok := target.(Kind); ok {
		return k == e.Kind
	}
	return false
}

// Detail returns the message with position information
func (e *Error) Detail() string {
	if e.Token.Category == lexer.EndOfLine {
		return fmt.Sprintf("%s (at end of line %d)", e.Kind.Error(), e.Token.Line)
	}
	return fmt.Sprintf("%s (line %d, offset %d, near '%s')",
		e.Kind.Error(), e.Token.Line, e.Token.Offset, e.Token.Lexeme)
}

// KindOf extracts the Kind from err, or 0 if err is not an evaluation error
func KindOf(err error) Kind {
	var evalErr *Error
	if errors.As(err, &evalErr) {
		return evalErr.Kind
	}
	return 0
}

// ToCoreError converts an evaluation error into a platform error carrying
// an error code, severity and position details. Other errors are wrapped
// as internal errors.
func ToCoreError(err error) *mdwerror.Error {
	if err == nil {
		return nil
	}

	var evalErr *Error
	if !errors.As(err, &evalErr) {
		return mdwerror.Wrap(err, "evaluation failed").WithCode(mdwerror.CodeInternal)
	}

	code := mdwerror.CodeExprEvaluation
	if evalErr.Kind.IsSyntax() {
		code = mdwerror.CodeExprSyntax
	}

	return mdwerror.New(evalErr.Error()).
		WithCode(code).
		WithOperation("evaluate").
		WithDetail("kind", evalErr.Kind.String()).
		WithDetail("line", evalErr.Token.Line).
		WithDetail("offset", evalErr.Token.Offset).
		WithDetail("lexeme", evalErr.Token.Lexeme)
}
