package taskfarmpb

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName and the GetTask method name together form the fully-qualified
// gRPC method "/taskfarm.DispatchService/GetTask" that protoc-gen-go-grpc
// would otherwise generate from a .proto file.
const (
	ServiceName   = "taskfarm.DispatchService"
	methodGetTask = "GetTask"
)

// DispatchServiceServer is implemented by the dispatcher side of the wire
// protocol: one GetTask call is one full request-reply round of the
// worker/dispatcher protocol (send request, block for the single reply).
type DispatchServiceServer interface {
	GetTask(context.Context, *TaskRequest) (*TaskReply, error)
}

// DispatchServiceClient is implemented by the worker side.
type DispatchServiceClient interface {
	GetTask(ctx context.Context, in *TaskRequest, opts ...grpc.CallOption) (*TaskReply, error)
}

type dispatchServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDispatchServiceClient wraps an established gRPC connection.
func NewDispatchServiceClient(cc grpc.ClientConnInterface) DispatchServiceClient {
	return &dispatchServiceClient{cc: cc}
}

func (c *dispatchServiceClient) GetTask(ctx context.Context, in *TaskRequest, opts ...grpc.CallOption) (*TaskReply, error) {
	out := new(TaskReply)
	opts = append(opts, grpc.CallContentSubtype(codecName))
	if err := c.cc.Invoke(ctx, fullMethod(), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func fullMethod() string {
	return "/" + ServiceName + "/" + methodGetTask
}

func _DispatchService_GetTask_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(TaskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServiceServer).GetTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod()}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DispatchServiceServer).GetTask(ctx, req.(*TaskRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var dispatchServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DispatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodGetTask, Handler: _DispatchService_GetTask_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskfarm/v1/dispatch.proto",
}

// RegisterDispatchServiceServer registers srv on s the same way generated
// code would call s.RegisterService.
func RegisterDispatchServiceServer(s grpc.ServiceRegistrar, srv DispatchServiceServer) {
	s.RegisterService(&dispatchServiceDesc, srv)
}
