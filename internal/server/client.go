package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/msto63/bexpr/internal/service"
	coreGrpc "github.com/msto63/bexpr/pkg/core/grpc"
)

// Client calls a remote bexpr.v1.Evaluator
type Client struct {
	conn grpc.ClientConnInterface
	own  *grpc.ClientConn // Closed by Close when the client dialed it
}

// NewClient wraps an existing connection
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial connects to the evaluator at target
func Dial(target string) (*Client, error) {
	conn, err := coreGrpc.DialTarget(target)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, own: conn}, nil
}

// Close closes a connection opened by Dial
func (c *Client) Close() error {
	if c.own == nil {
		return nil
	}
	return c.own.Close()
}

// Evaluate evaluates input remotely. An empty sessionID lets the server
// choose one.
func (c *Client) Evaluate(ctx context.Context, input, sessionID string) (*service.EvaluateResponse, error) {
	req, err := encode(&service.EvaluateRequest{Input: input, SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodEvaluate, req, out); err != nil {
		return nil, err
	}

	var resp service.EvaluateResponse
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tokenize classifies the lexemes of input remotely
func (c *Client) Tokenize(ctx context.Context, input string) (*service.TokenizeResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodTokenize, wrapperspb.String(input), out); err != nil {
		return nil, err
	}

	var resp service.TokenizeResponse
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History queries the remote history store
func (c *Client) History(ctx context.Context, req *service.HistoryRequest) (*service.HistoryResponse, error) {
	in, err := encode(req)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodHistory, in, out); err != nil {
		return nil, err
	}

	var resp service.HistoryResponse
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns the remote server status
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodStatus, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	var resp StatusResponse
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
