package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/service"
	"github.com/msto63/bexpr/pkg/core/version"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "bexpr.v1.Evaluator"

// Method names
const (
	MethodEvaluate = "/" + ServiceName + "/Evaluate"
	MethodTokenize = "/" + ServiceName + "/Tokenize"
	MethodHistory  = "/" + ServiceName + "/History"
	MethodStatus   = "/" + ServiceName + "/Status"
)

// EvaluatorServer is the server API for bexpr.v1.Evaluator. Messages are
// protobuf well-known types; structured payloads travel as Struct values
// whose fields mirror the JSON encoding of the service types.
type EvaluatorServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Tokenize(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes bexpr.v1.Evaluator
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EvaluatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(MethodEvaluate, newStruct, EvaluatorServer.Evaluate)},
		{MethodName: "Tokenize", Handler: unaryHandler(MethodTokenize, newString, EvaluatorServer.Tokenize)},
		{MethodName: "History", Handler: unaryHandler(MethodHistory, newStruct, EvaluatorServer.History)},
		{MethodName: "Status", Handler: unaryHandler(MethodStatus, newEmpty, EvaluatorServer.Status)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bexpr/v1/evaluator.proto",
}

// RegisterEvaluatorServer registers srv with s
func RegisterEvaluatorServer(s grpc.ServiceRegistrar, srv EvaluatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Req proto.Message](
	method string,
	newReq func() Req,
	call func(EvaluatorServer, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EvaluatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(EvaluatorServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }

func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }

// Ensure Server implements EvaluatorServer
var _ EvaluatorServer = (*Server)(nil)

// StatusResponse describes the running server
type StatusResponse struct {
	Service    string `json:"service"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Requests   int64  `json:"requests"`
	Statements int64  `json:"statements"`
	History    bool   `json:"history"`
	Health     string `json:"health"`
}

// Evaluate implements EvaluatorServer.Evaluate
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in service.EvaluateRequest
	if err := decode(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	in.Source = history.SourceGRPC

	resp, err := s.service.Evaluate(ctx, &in)
	if err != nil {
		return nil, err
	}
	return encode(resp)
}

// Tokenize implements EvaluatorServer.Tokenize
func (s *Server) Tokenize(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	resp, err := s.service.Tokenize(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	return encode(resp)
}

// History implements EvaluatorServer.History
func (s *Server) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in service.HistoryRequest
	if err := decode(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	resp, err := s.service.History(ctx, &in)
	if err != nil {
		s.logger.Error("History failed", "error", err)
		return nil, err
	}
	return encode(resp)
}

// Status implements EvaluatorServer.Status
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	stats := s.service.Stats()
	report := s.health.Check(ctx)

	return encode(&StatusResponse{
		Service:    "evaluator",
		Version:    version.Evaluator,
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		Requests:   stats.Requests,
		Statements: stats.Statements,
		History:    s.service.HistoryEnabled(),
		Health:     string(report.Status),
	})
}
