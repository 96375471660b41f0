package worker

import (
	"context"
	"fmt"

	pb "github.com/lsu-cct/taskfarm/api/taskfarm/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TaskSource is the worker's view of the transport: one GetTask call is one
// full request-reply round. A real GrpcTaskSource dials the dispatcher's
// hand-written gRPC service; a Fleet test harness can instead hand workers
// an in-process implementation wired directly to a *dispatcher.Dispatcher
// without a TCP socket.
type TaskSource interface {
	GetTask(ctx context.Context, req *pb.TaskRequest) (*pb.TaskReply, error)
}

// GrpcTaskSource dials a dispatcher over plaintext gRPC using the
// JSON-codec DispatchService registered in api/taskfarm/v1.
type GrpcTaskSource struct {
	conn   *grpc.ClientConn
	client pb.DispatchServiceClient
}

// DialDispatcher opens a client connection to host:port. The dispatcher
// transport carries no authentication or encryption, per the spec's
// explicit non-goal.
func DialDispatcher(host string, port int) (*GrpcTaskSource, error) {
	target := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("worker: dial dispatcher %s: %w", target, err)
	}
	return &GrpcTaskSource{conn: conn, client: pb.NewDispatchServiceClient(conn)}, nil
}

func (s *GrpcTaskSource) GetTask(ctx context.Context, req *pb.TaskRequest) (*pb.TaskReply, error) {
	return s.client.GetTask(ctx, req)
}

// Close releases the underlying connection.
func (s *GrpcTaskSource) Close() error {
	return s.conn.Close()
}
