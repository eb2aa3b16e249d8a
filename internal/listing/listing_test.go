package listing

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
)

var sep = strings.Repeat("-", 57)

func render(t *testing.T, input string) (string, Stats) {
	t.Helper()
	var out bytes.Buffer
	stats, err := Write(strings.NewReader(input), &out, mdwlog.Discard())
	require.NoError(t, err)
	return out.String(), stats
}

func TestWrite_SingleStatement(t *testing.T) {
	got, stats := render(t, "7 / 2 ;\n")

	want := strings.Join([]string{
		"Statement #1",
		"Lexeme 0 is 7 and is an INT_LITERAL",
		"Lexeme 1 is / and is a DIV_OP",
		"Lexeme 2 is 2 and is an INT_LITERAL",
		"Lexeme 3 is ; and is a SEMI_COLON",
		sep,
		"",
	}, "\n")
	require.Equal(t, want, got)
	require.Equal(t, Stats{Lines: 1, Statements: 1, Lexemes: 4}, stats)
}

func TestWrite_InvalidCharactersAreNotCounted(t *testing.T) {
	got, stats := render(t, "1 $ + 2;")

	want := strings.Join([]string{
		"Statement #1",
		"Lexeme 0 is 1 and is an INT_LITERAL",
		"===> '$'",
		"Lexical error: not a lexeme",
		"Lexeme 1 is + and is an ADD_OP",
		"Lexeme 2 is 2 and is an INT_LITERAL",
		"Lexeme 3 is ; and is a SEMI_COLON",
		sep,
		"",
	}, "\n")
	require.Equal(t, want, got)
	require.Equal(t, 1, stats.Invalid)
	require.Equal(t, 4, stats.Lexemes)
}

func TestWrite_StatementSpanningLines(t *testing.T) {
	got, _ := render(t, "(1 <=\n 2) ;\n3 != 4;\n")

	want := strings.Join([]string{
		"Statement #1",
		"Lexeme 0 is ( and is a LEFT_PAREN",
		"Lexeme 1 is 1 and is an INT_LITERAL",
		"Lexeme 2 is <= and is a LESS_THAN_OR_EQUAL_OP",
		"Lexeme 3 is 2 and is an INT_LITERAL",
		"Lexeme 4 is ) and is a RIGHT_PAREN",
		"Lexeme 5 is ; and is a SEMI_COLON",
		sep,
		"Statement #2",
		"Lexeme 0 is 3 and is an INT_LITERAL",
		"Lexeme 1 is != and is a NOT_EQUALS_OP",
		"Lexeme 2 is 4 and is an INT_LITERAL",
		"Lexeme 3 is ; and is a SEMI_COLON",
		sep,
		"",
	}, "\n")
	require.Equal(t, want, got)
}

func TestWrite_TwoStatementsOnOneLine(t *testing.T) {
	got, stats := render(t, "1; 2;")

	want := strings.Join([]string{
		"Statement #1",
		"Lexeme 0 is 1 and is an INT_LITERAL",
		"Lexeme 1 is ; and is a SEMI_COLON",
		sep,
		"Statement #2",
		"Lexeme 0 is 2 and is an INT_LITERAL",
		"Lexeme 1 is ; and is a SEMI_COLON",
		sep,
		"",
	}, "\n")
	require.Equal(t, want, got)
	require.Equal(t, 2, stats.Statements)
}

func TestWrite_BlankLineOpensNextStatement(t *testing.T) {
	got, _ := render(t, "1;\n\n2 ^ 3;\n")

	require.Equal(t, 2, strings.Count(got, "Statement #"))
	require.True(t, strings.HasPrefix(got[strings.Index(got, "Statement #2"):], "Statement #2\nLexeme 0 is 2 and is an INT_LITERAL\nLexeme 1 is ^ and is an EXPON_OP"))
}

func TestWrite_UnterminatedStatement(t *testing.T) {
	got, stats := render(t, "1 + 2")

	require.Equal(t, "Statement #1\nLexeme 0 is 1 and is an INT_LITERAL\nLexeme 1 is + and is an ADD_OP\nLexeme 2 is 2 and is an INT_LITERAL\n", got)
	require.Zero(t, stats.Statements)
}

func TestWrite_EmptyInput(t *testing.T) {
	got, stats := render(t, "")
	require.Empty(t, got)
	require.Zero(t, stats.Lines)
}

func TestWrite_Categories(t *testing.T) {
	got, _ := render(t, "- * < > = ! == >=")

	for _, want := range []string{
		"is - and is a SUB_OP",
		"is * and is a MULT_OP",
		"is < and is a LESS_THAN_OP",
		"is > and is a GREATER_THAN_OP",
		"is = and is an ASSIGN_OP",
		"is ! and is a NOT_OP",
		"is == and is an EQUALS_OP",
		"is >= and is a GREATER_THAN_OR_EQUAL_OP",
	} {
		require.Contains(t, got, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWrite_OutputError(t *testing.T) {
	_, err := Write(strings.NewReader("1;"), failingWriter{}, mdwlog.Discard())
	require.ErrorContains(t, err, "disk full")
}
