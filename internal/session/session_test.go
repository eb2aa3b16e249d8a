package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/evaluator"
	"github.com/msto63/bexpr/internal/history"
)

func newSession(store history.Store) (*Session, *bytes.Buffer, *bytes.Buffer) {
	var out, diag bytes.Buffer
	s := New(Config{
		Out:    &out,
		Diag:   &diag,
		Logger: mdwlog.Discard(),
		Store:  store,
		ID:     "test-session",
	})
	return s, &out, &diag
}

func TestRun_PrintsResultsAndErrors(t *testing.T) {
	s, out, diag := newSession(nil)

	input := "1 + 2 ; 2 * 3 < 4 ;\n7 / 0 ; 5 ;\n2 ^ 3 ^ 2 ;\n"
	stats, err := s.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, strings.Join([]string{
		"Statement #1: 1 + 2 ; = 3",
		"Statement #2: 2 * 3 < 4 ; = 2",
		"Statement #4: 5 ; = 5",
		"Statement #5: 2 ^ 3 ^ 2 ; = 512",
		"",
	}, "\n"), out.String())
	require.Equal(t, "Evaluation Error: Division by zero\n", diag.String())
	require.Equal(t, Stats{Lines: 3, Statements: 5, Errors: 1}, stats)
}

func TestLine_ContinuesAfterRejectedStatement(t *testing.T) {
	s, out, diag := newSession(nil)

	outcomes, err := s.Line(context.Background(), "4 ; ( 1 + 2 ; 9 ;")
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	require.False(t, outcomes[0].Failed())
	require.Equal(t, int64(4), outcomes[0].Value)
	require.True(t, outcomes[1].Failed())
	require.True(t, errors.Is(outcomes[1].Err, evaluator.UnbalancedParen))
	require.Equal(t, "( 1 + 2 ;", outcomes[1].Text)
	require.False(t, outcomes[2].Failed())
	require.Equal(t, int64(9), outcomes[2].Value)
	require.Equal(t, 3, outcomes[2].Statement)
	require.Equal(t, "Syntax Error: Unbalanced right parenthesis\n", diag.String())
	require.Equal(t, "Statement #1: 4 ; = 4\nStatement #3: 9 ; = 9\n", out.String())

	next, err := s.Line(context.Background(), "9 ;")
	require.NoError(t, err)
	require.Len(t, next, 1)
	require.Equal(t, 4, next[0].Statement)
	require.Equal(t, 2, next[0].Line)
}

func TestLine_Verbose(t *testing.T) {
	var diag bytes.Buffer
	s := New(Config{Diag: &diag, Logger: mdwlog.Discard(), Verbose: true})

	_, err := s.Line(context.Background(), "1 +")
	require.NoError(t, err)
	require.Equal(t, "Statement #1: Syntax Error: Expected a number (at end of line 1)\n", diag.String())
}

func TestLine_UnterminatedStatement(t *testing.T) {
	s, out, diag := newSession(nil)

	outcomes, err := s.Line(context.Background(), "1 + 2")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, evaluator.MissingSemicolon, outcomes[0].Err.Kind)
	require.Empty(t, out.String())
	require.Equal(t, "Syntax Error: ';' expected\n", diag.String())
}

func TestLine_RecordsHistory(t *testing.T) {
	store := history.NewMemoryStore(0)
	s, _, _ := newSession(store)

	_, err := s.Line(context.Background(), "3 * 3 ; 1 / 0 ;")
	require.NoError(t, err)

	recs, err := store.Query(context.Background(), history.Filter{SessionID: "test-session"})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	byStatement := map[int]*history.Record{}
	for _, rec := range recs {
		byStatement[rec.Statement] = rec
	}
	require.Equal(t, int64(9), byStatement[1].Value)
	require.Equal(t, "3 * 3 ;", byStatement[1].Text)
	require.Equal(t, history.SourceCLI, byStatement[1].Source)
	require.Equal(t, "division_by_zero", byStatement[2].ErrorKind)
	require.Equal(t, "Evaluation Error: Division by zero", byStatement[2].ErrorMessage)
	require.Equal(t, 1, byStatement[2].Line)
}

type failingStore struct {
	*history.MemoryStore
}

func (failingStore) Record(context.Context, *history.Record) error {
	return errors.New("disk full")
}

func TestLine_HistoryFailureIsReturned(t *testing.T) {
	s, _, _ := newSession(failingStore{history.NewMemoryStore(0)})

	_, err := s.Line(context.Background(), "1 ;")
	require.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	s, _, _ := newSession(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, strings.NewReader("1 ;\n"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_GeneratesID(t *testing.T) {
	a := New(Config{Logger: mdwlog.Discard()})
	b := New(Config{Logger: mdwlog.Discard()})
	require.NotEmpty(t, a.ID())
	require.NotEqual(t, a.ID(), b.ID())
}
