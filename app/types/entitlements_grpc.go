package types

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is declared against protobuf well-known types so that no generated
// message code is needed; payloads travel as google.protobuf.Struct.
const (
	EntitlementsServiceName                           = "entitlements.EntitlementsService"
	EntitlementsService_ListPlans_FullMethodName      = "/entitlements.EntitlementsService/ListPlans"
	EntitlementsService_GetEntitlement_FullMethodName = "/entitlements.EntitlementsService/GetEntitlement"
	EntitlementsService_ConfirmPayment_FullMethodName = "/entitlements.EntitlementsService/ConfirmPayment"
)

type EntitlementsServiceClient interface {
	ListPlans(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetEntitlement(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	ConfirmPayment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type entitlementsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEntitlementsServiceClient(cc grpc.ClientConnInterface) EntitlementsServiceClient {
	return &entitlementsServiceClient{cc: cc}
}

func (c *entitlementsServiceClient) ListPlans(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EntitlementsService_ListPlans_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *entitlementsServiceClient) GetEntitlement(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EntitlementsService_GetEntitlement_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *entitlementsServiceClient) ConfirmPayment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EntitlementsService_ConfirmPayment_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type EntitlementsServiceServer interface {
	ListPlans(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetEntitlement(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ConfirmPayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type UnimplementedEntitlementsServiceServer struct{}

func (UnimplementedEntitlementsServiceServer) ListPlans(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPlans not implemented")
}

func (UnimplementedEntitlementsServiceServer) GetEntitlement(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetEntitlement not implemented")
}

func (UnimplementedEntitlementsServiceServer) ConfirmPayment(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ConfirmPayment not implemented")
}

func RegisterEntitlementsServiceServer(s grpc.ServiceRegistrar, srv EntitlementsServiceServer) {
	s.RegisterService(&EntitlementsService_ServiceDesc, srv)
}

func listPlansHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EntitlementsServiceServer).ListPlans(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EntitlementsService_ListPlans_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EntitlementsServiceServer).ListPlans(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getEntitlementHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EntitlementsServiceServer).GetEntitlement(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EntitlementsService_GetEntitlement_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EntitlementsServiceServer).GetEntitlement(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func confirmPaymentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EntitlementsServiceServer).ConfirmPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EntitlementsService_ConfirmPayment_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EntitlementsServiceServer).ConfirmPayment(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var EntitlementsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: EntitlementsServiceName,
	HandlerType: (*EntitlementsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListPlans", Handler: listPlansHandler},
		{MethodName: "GetEntitlement", Handler: getEntitlementHandler},
		{MethodName: "ConfirmPayment", Handler: confirmPaymentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "entitlements.proto",
}
