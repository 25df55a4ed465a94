// Package clearpathv1 defines the clearpath.v1.PriorAuth gRPC service. Every
// request and response is a google.protobuf.Struct carrying the JSON shape of
// the corresponding domain type.
package clearpathv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "clearpath.v1.PriorAuth"

const (
	PriorAuth_ListSampleCases_FullMethodName = "/clearpath.v1.PriorAuth/ListSampleCases"
	PriorAuth_SubmitCase_FullMethodName      = "/clearpath.v1.PriorAuth/SubmitCase"
	PriorAuth_ListCases_FullMethodName       = "/clearpath.v1.PriorAuth/ListCases"
	PriorAuth_GetCase_FullMethodName         = "/clearpath.v1.PriorAuth/GetCase"
	PriorAuth_ListReviewQueue_FullMethodName = "/clearpath.v1.PriorAuth/ListReviewQueue"
	PriorAuth_SubmitReview_FullMethodName    = "/clearpath.v1.PriorAuth/SubmitReview"
	PriorAuth_SearchPolicies_FullMethodName  = "/clearpath.v1.PriorAuth/SearchPolicies"
	PriorAuth_GetStats_FullMethodName        = "/clearpath.v1.PriorAuth/GetStats"
)

// PriorAuthServer is the server API for the PriorAuth service.
type PriorAuthServer interface {
	ListSampleCases(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitCase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCases(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListReviewQueue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitReview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchPolicies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedPriorAuthServer can be embedded for forward compatibility.
type UnimplementedPriorAuthServer struct{}

func (UnimplementedPriorAuthServer) ListSampleCases(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSampleCases not implemented")
}
func (UnimplementedPriorAuthServer) SubmitCase(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitCase not implemented")
}
func (UnimplementedPriorAuthServer) ListCases(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListCases not implemented")
}
func (UnimplementedPriorAuthServer) GetCase(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCase not implemented")
}
func (UnimplementedPriorAuthServer) ListReviewQueue(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListReviewQueue not implemented")
}
func (UnimplementedPriorAuthServer) SubmitReview(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitReview not implemented")
}
func (UnimplementedPriorAuthServer) SearchPolicies(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchPolicies not implemented")
}
func (UnimplementedPriorAuthServer) GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStats not implemented")
}

// RegisterPriorAuthServer registers srv on s.
func RegisterPriorAuthServer(s grpc.ServiceRegistrar, srv PriorAuthServer) {
	s.RegisterService(&PriorAuth_ServiceDesc, srv)
}

type unaryMethod func(PriorAuthServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PriorAuthServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PriorAuthServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PriorAuth_ServiceDesc is the grpc.ServiceDesc for the PriorAuth service.
var PriorAuth_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PriorAuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSampleCases", Handler: unaryHandler(PriorAuth_ListSampleCases_FullMethodName, PriorAuthServer.ListSampleCases)},
		{MethodName: "SubmitCase", Handler: unaryHandler(PriorAuth_SubmitCase_FullMethodName, PriorAuthServer.SubmitCase)},
		{MethodName: "ListCases", Handler: unaryHandler(PriorAuth_ListCases_FullMethodName, PriorAuthServer.ListCases)},
		{MethodName: "GetCase", Handler: unaryHandler(PriorAuth_GetCase_FullMethodName, PriorAuthServer.GetCase)},
		{MethodName: "ListReviewQueue", Handler: unaryHandler(PriorAuth_ListReviewQueue_FullMethodName, PriorAuthServer.ListReviewQueue)},
		{MethodName: "SubmitReview", Handler: unaryHandler(PriorAuth_SubmitReview_FullMethodName, PriorAuthServer.SubmitReview)},
		{MethodName: "SearchPolicies", Handler: unaryHandler(PriorAuth_SearchPolicies_FullMethodName, PriorAuthServer.SearchPolicies)},
		{MethodName: "GetStats", Handler: unaryHandler(PriorAuth_GetStats_FullMethodName, PriorAuthServer.GetStats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clearpath/v1/priorauth.proto",
}

// PriorAuthClient is the client API for the PriorAuth service.
type PriorAuthClient interface {
	ListSampleCases(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SubmitCase(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListCases(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetCase(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListReviewQueue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SubmitReview(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SearchPolicies(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type priorAuthClient struct {
	cc grpc.ClientConnInterface
}

// NewPriorAuthClient returns a client bound to cc.
func NewPriorAuthClient(cc grpc.ClientConnInterface) PriorAuthClient {
	return &priorAuthClient{cc: cc}
}

func (c *priorAuthClient) call(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *priorAuthClient) ListSampleCases(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, PriorAuth_ListSampleCases_FullMethodName, in, opts)
}

func (c *priorAuthClient) SubmitCase(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, PriorAuth_SubmitCase_FullMethodName, in, opts)
}

func (c *priorAuthClient) ListCases(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, PriorAuth_ListCases_FullMethodName, in, opts)
}

func (c *priorAuthClient) GetCase(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, PriorAuth_GetCase_FullMethodName, in, opts)
}

func (c *priorAuthClient) ListReviewQueue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, PriorAuth_ListReviewQueue_FullMethodName, in, opts)
}

func (c *priorAuthClient) SubmitReview(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, PriorAuth_SubmitReview_FullMethodName, in, opts)
}

func (c *priorAuthClient) SearchPolicies(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, PriorAuth_SearchPolicies_FullMethodName, in, opts)
}

func (c *priorAuthClient) GetStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, PriorAuth_GetStats_FullMethodName, in, opts)
}
