package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// specService is the contract the ServiceDesc below dispatches to. It plays
// the role protoc-gen-go-grpc's generated interface would, had there been a
// .proto file to generate one from.
type specService interface {
	CreateSpec(context.Context, *CreateSpecRequest) (*CreateSpecResponse, error)
	UpdateSpec(context.Context, *UpdateSpecRequest) (*UpdateSpecResponse, error)
	PublishSpec(context.Context, *PublishSpecRequest) (*PublishSpecResponse, error)
	DeprecateSpec(context.Context, *DeprecateSpecRequest) (*DeprecateSpecResponse, error)
	GetSpec(context.Context, *GetSpecRequest) (*SpecMessage, error)
	ListSpecs(context.Context, *ListSpecsRequest) (*ListSpecsResponse, error)
	GetSpecVersion(context.Context, *GetSpecVersionRequest) (*SpecVersionMessage, error)
	GetSpecHistory(context.Context, *GetSpecHistoryRequest) (*GetSpecHistoryResponse, error)
}

func decodeUnary[T any](dec func(any) error) (*T, error) {
	req := new(T)
	if err := dec(req); err != nil {
		return nil, err
	}
	return req, nil
}

func _SpecService_CreateSpec_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeUnary[CreateSpecRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(specService).CreateSpec(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/specsvc.v1.SpecService/CreateSpec"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(specService).CreateSpec(ctx, req.(*CreateSpecRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _SpecService_UpdateSpec_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeUnary[UpdateSpecRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(specService).UpdateSpec(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/specsvc.v1.SpecService/UpdateSpec"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(specService).UpdateSpec(ctx, req.(*UpdateSpecRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _SpecService_PublishSpec_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeUnary[PublishSpecRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(specService).PublishSpec(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/specsvc.v1.SpecService/PublishSpec"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(specService).PublishSpec(ctx, req.(*PublishSpecRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _SpecService_DeprecateSpec_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeUnary[DeprecateSpecRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(specService).DeprecateSpec(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/specsvc.v1.SpecService/DeprecateSpec"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(specService).DeprecateSpec(ctx, req.(*DeprecateSpecRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _SpecService_GetSpec_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeUnary[GetSpecRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(specService).GetSpec(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/specsvc.v1.SpecService/GetSpec"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(specService).GetSpec(ctx, req.(*GetSpecRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _SpecService_ListSpecs_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeUnary[ListSpecsRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(specService).ListSpecs(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/specsvc.v1.SpecService/ListSpecs"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(specService).ListSpecs(ctx, req.(*ListSpecsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _SpecService_GetSpecVersion_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeUnary[GetSpecVersionRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(specService).GetSpecVersion(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/specsvc.v1.SpecService/GetSpecVersion"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(specService).GetSpecVersion(ctx, req.(*GetSpecVersionRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _SpecService_GetSpecHistory_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeUnary[GetSpecHistoryRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(specService).GetSpecHistory(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/specsvc.v1.SpecService/GetSpecHistory"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(specService).GetSpecHistory(ctx, req.(*GetSpecHistoryRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// serviceDesc is the hand-authored equivalent of what protoc-gen-go-grpc
// would emit from a specsvc.v1.SpecService .proto definition.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "specsvc.v1.SpecService",
	HandlerType: (*specService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSpec", Handler: _SpecService_CreateSpec_Handler},
		{MethodName: "UpdateSpec", Handler: _SpecService_UpdateSpec_Handler},
		{MethodName: "PublishSpec", Handler: _SpecService_PublishSpec_Handler},
		{MethodName: "DeprecateSpec", Handler: _SpecService_DeprecateSpec_Handler},
		{MethodName: "GetSpec", Handler: _SpecService_GetSpec_Handler},
		{MethodName: "ListSpecs", Handler: _SpecService_ListSpecs_Handler},
		{MethodName: "GetSpecVersion", Handler: _SpecService_GetSpecVersion_Handler},
		{MethodName: "GetSpecHistory", Handler: _SpecService_GetSpecHistory_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "specsvc.proto",
}
