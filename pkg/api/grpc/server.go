// Package grpcapi implements the evoql.v1.QueryService gRPC service. The
// service is declared by hand on well-known protobuf types, so clients need
// no generated code: requests are google.protobuf.StringValue holding the
// query and responses are google.protobuf.Struct with the same shape as the
// HTTP API.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/evoql/pkg/api"
	"github.com/lemonberrylabs/evoql/pkg/types"
)

const (
	serviceName    = "evoql.v1.QueryService"
	parseMethod    = "/" + serviceName + "/Parse"
	tokenizeMethod = "/" + serviceName + "/Tokenize"
)

// QueryServiceServer is the server API of evoql.v1.QueryService.
type QueryServiceServer interface {
	Parse(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Tokenize(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Parse", Handler: parseHandler},
		{MethodName: "Tokenize", Handler: tokenizeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "evoql/v1/query.proto",
}

// RegisterQueryServiceServer registers srv with s.
func RegisterQueryServiceServer(s grpc.ServiceRegistrar, srv QueryServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func parseHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServiceServer).Parse(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: parseMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServiceServer).Parse(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func tokenizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServiceServer).Tokenize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: tokenizeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServiceServer).Tokenize(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements QueryServiceServer on top of an api.Analyzer.
type Server struct {
	analyzer *api.Analyzer
	grpc     *grpc.Server
}

// New creates a new gRPC server sharing the given analyzer.
func New(a *api.Analyzer) *Server {
	srv := &Server{analyzer: a}

	gs := grpc.NewServer()
	RegisterQueryServiceServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Parse parses the query and returns the tree and diagnostics.
func (s *Server) Parse(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	r, err := s.analyzer.Parse(req.GetValue())
	if err != nil {
		return nil, statusError(err)
	}
	out, err := structpb.NewStruct(r.ToMap())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding parse result: %v", err)
	}
	return out, nil
}

// Tokenize returns the tokens of the query.
func (s *Server) Tokenize(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	tokens, err := s.analyzer.Tokenize(req.GetValue())
	if err != nil {
		return nil, statusError(err)
	}
	out, err := structpb.NewStruct(map[string]interface{}{"tokens": api.TokensToList(tokens)})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding tokens: %v", err)
	}
	return out, nil
}

func statusError(err error) error {
	var srcErr *types.SourceError
	switch {
	case errors.Is(err, api.ErrEmptyQuery), errors.Is(err, api.ErrQueryTooLong), errors.As(err, &srcErr):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// Client calls evoql.v1.QueryService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Parse calls QueryService.Parse.
func (c *Client) Parse(ctx context.Context, query string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, parseMethod, wrapperspb.String(query), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Tokenize calls QueryService.Tokenize.
func (c *Client) Tokenize(ctx context.Context, query string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, tokenizeMethod, wrapperspb.String(query), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
