package transport

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// jsonCodec is the manual gRPC codec the teacher registers in place of
// protobuf-generated marshalling; the graph service uses it unchanged.
type jsonCodec struct{}

func (jsonCodec) Name() string                      { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// RegisterJSONCodec registers jsonCodec as the active gRPC encoding, the
// same step the teacher performs once at process startup.
func RegisterJSONCodec() {
	encoding.RegisterCodec(jsonCodec{})
}

// RegisterGraphServer wires srv into s using a hand-rolled
// grpc.ServiceDesc, mirroring registerTinySQLServer in cmd/Server/main.go:
// no protoc-generated stubs, just method descriptors pointing at small
// decode-then-call handlers.
func RegisterGraphServer(s *grpc.Server, srv GraphServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "mnemonic.Graph",
		HandlerType: (*GraphServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Store", Handler: _Graph_Store_Handler},
			{MethodName: "Relate", Handler: _Graph_Relate_Handler},
			{MethodName: "Unrelate", Handler: _Graph_Unrelate_Handler},
			{MethodName: "RetrieveBySource", Handler: _Graph_RetrieveBySource_Handler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "mnemonic",
	}, srv)
}

func _Graph_Store_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(storeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphServer).Store(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mnemonic.Graph/Store"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GraphServer).Store(ctx, req.(*storeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Graph_Relate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(relateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphServer).Relate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mnemonic.Graph/Relate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GraphServer).Relate(ctx, req.(*relateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Graph_Unrelate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(unrelateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphServer).Unrelate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mnemonic.Graph/Unrelate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GraphServer).Unrelate(ctx, req.(*unrelateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Graph_RetrieveBySource_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(retrieveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphServer).RetrieveBySource(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mnemonic.Graph/RetrieveBySource"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GraphServer).RetrieveBySource(ctx, req.(*retrieveRequest))
	}
	return interceptor(ctx, in, info, handler)
}
