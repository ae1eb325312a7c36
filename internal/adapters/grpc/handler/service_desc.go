package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// サービス名とメソッドのフルパスです。
const (
	AssistantServiceName                     = "planner.v1.AssistantService"
	AssistantService_HandleTurn_FullMethod   = "/planner.v1.AssistantService/HandleTurn"
	AssistantService_InvokeTool_FullMethod   = "/planner.v1.AssistantService/InvokeTool"
	AssistantService_ListTools_FullMethod    = "/planner.v1.AssistantService/ListTools"
	AssistantService_GetHistory_FullMethod   = "/planner.v1.AssistantService/GetHistory"
	AssistantService_ClearSession_FullMethod = "/planner.v1.AssistantService/ClearSession"
)

// AssistantServiceServer は AssistantService のサーバー側インターフェースです。
// メッセージは google.protobuf.Struct で表現します。
type AssistantServiceServer interface {
	HandleTurn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	InvokeTool(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTools(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearSession(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterAssistantServiceServer は AssistantService をサーバーに登録します。
func RegisterAssistantServiceServer(s grpc.ServiceRegistrar, srv AssistantServiceServer) {
	s.RegisterService(&AssistantService_ServiceDesc, srv)
}

// AssistantService_ServiceDesc は AssistantService の grpc.ServiceDesc です。
var AssistantService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AssistantServiceName,
	HandlerType: (*AssistantServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "HandleTurn", Handler: structHandler(AssistantService_HandleTurn_FullMethod, AssistantServiceServer.HandleTurn)},
		{MethodName: "InvokeTool", Handler: structHandler(AssistantService_InvokeTool_FullMethod, AssistantServiceServer.InvokeTool)},
		{MethodName: "ListTools", Handler: _AssistantService_ListTools_Handler},
		{MethodName: "GetHistory", Handler: structHandler(AssistantService_GetHistory_FullMethod, AssistantServiceServer.GetHistory)},
		{MethodName: "ClearSession", Handler: _AssistantService_ClearSession_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "planner/v1/assistant.proto",
}

func structHandler(fullMethod string, call func(AssistantServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AssistantServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AssistantServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _AssistantService_ListTools_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServiceServer).ListTools(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AssistantService_ListTools_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServiceServer).ListTools(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _AssistantService_ClearSession_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServiceServer).ClearSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AssistantService_ClearSession_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServiceServer).ClearSession(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
