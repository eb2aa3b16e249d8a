package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/service"
)

func startServer(t *testing.T, store history.Store) (*Server, *Client) {
	t.Helper()

	svc := service.NewService(service.Config{Store: store, Logger: mdwlog.Discard()})
	srv := New(Config{Host: "127.0.0.1", Port: 0}, svc)
	require.NoError(t, srv.Listen())
	require.NoError(t, srv.StartAsync())

	client, err := Dial(srv.Address())
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv, client
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEvaluate(t *testing.T) {
	_, client := startServer(t, nil)

	resp, err := client.Evaluate(testContext(t), "2 * 3 < 4 ; 9223372036854775807 ; 1 / 0 ;", "")
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	require.Equal(t, 1, resp.Errors)
	require.Len(t, resp.Results, 3)
	require.Equal(t, int64(2), resp.Results[0].Value)
	require.Equal(t, int64(9223372036854775807), resp.Results[1].Value)
	require.Equal(t, "9223372036854775807 ;", resp.Results[1].Text)
	require.Equal(t, "division_by_zero", resp.Results[2].ErrorKind)
	require.Equal(t, "Evaluation Error: Division by zero", resp.Results[2].Error)
}

func TestEvaluate_EmptyInputIsInvalidArgument(t *testing.T) {
	_, client := startServer(t, nil)

	_, err := client.Evaluate(testContext(t), "   ", "")
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestTokenize(t *testing.T) {
	_, client := startServer(t, nil)

	resp, err := client.Tokenize(testContext(t), "10 != 3 ;")
	require.NoError(t, err)
	require.Len(t, resp.Tokens, 4)
	require.Equal(t, "NOT_EQUALS_OP", resp.Tokens[1].Category)
	require.Equal(t, 0, resp.Invalid)
	require.Contains(t, resp.Listing, "Lexeme 1 is != and is a NOT_EQUALS_OP")
}

func TestHistory(t *testing.T) {
	store := history.NewMemoryStore(0)
	_, client := startServer(t, store)
	ctx := testContext(t)

	_, err := client.Evaluate(ctx, "1 ; 2 ;", "remote")
	require.NoError(t, err)

	resp, err := client.History(ctx, &service.HistoryRequest{SessionID: "remote"})
	require.NoError(t, err)
	require.Len(t, resp.Records, 2)
	for _, rec := range resp.Records {
		require.Equal(t, history.SourceGRPC, rec.Source)
		require.Equal(t, "remote", rec.SessionID)
	}
}

func TestHistory_DisabledIsUnavailable(t *testing.T) {
	_, client := startServer(t, nil)

	_, err := client.History(testContext(t), &service.HistoryRequest{})
	require.Equal(t, codes.Unavailable, status.Code(err))
}

func TestStatus(t *testing.T) {
	srv, client := startServer(t, history.NewMemoryStore(0))
	ctx := testContext(t)

	_, err := client.Evaluate(ctx, "1 ;", "")
	require.NoError(t, err)

	st, err := client.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "evaluator", st.Service)
	require.Equal(t, int64(1), st.Requests)
	require.Equal(t, int64(1), st.Statements)
	require.True(t, st.History)
	require.Equal(t, "healthy", st.Health)

	report := srv.HealthRegistry().Check(ctx)
	require.Len(t, report.Checks, 2)
}

func TestCodecRoundTrip(t *testing.T) {
	in := &service.EvaluateResponse{
		SessionID: "s",
		Results:   []service.StatementResult{{Statement: 1, Line: 1, Text: "-1 ;", Value: -9223372036854775807}},
	}

	s, err := encode(in)
	require.NoError(t, err)

	var out service.EvaluateResponse
	require.NoError(t, decode(s, &out))
	require.Equal(t, in.Results, out.Results)
}
