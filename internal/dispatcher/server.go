package dispatcher

import (
	"context"
	"fmt"
	"net"
	"time"

	pb "github.com/lsu-cct/taskfarm/api/taskfarm/v1"
	"google.golang.org/grpc"
)

// DefaultLinger is the graceful-close linger the transport abstraction
// requires: enough time for in-flight replies to be flushed before the
// dispatcher's listener is torn down.
const DefaultLinger = 3 * time.Second

// Server wraps a grpc.Server bound to a Dispatcher.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	linger     time.Duration
}

// NewGRPCServer binds a listener on d's configured port and registers d as
// the hand-written DispatchService. It does not start serving; call Serve.
func NewGRPCServer(d *Dispatcher) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", d.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("dispatcher: listen: %w", err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterDispatchServiceServer(grpcServer, d)

	return &Server{grpcServer: grpcServer, listener: lis, linger: DefaultLinger}, nil
}

// Serve blocks, accepting connections, until Shutdown is called or the
// listener fails.
func (s *Server) Serve() error {
	return s.grpcServer.Serve(s.listener)
}

// Addr returns the bound network address, useful when Port was 0.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Shutdown attempts a graceful stop within the linger window so in-flight
// replies are not dropped, then forces a hard stop if the window elapses.
func (s *Server) Shutdown(ctx context.Context) {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(s.linger)
	defer timer.Stop()

	select {
	case <-stopped:
	case <-timer.C:
		log.Warn("dispatcher: graceful stop exceeded linger, forcing stop")
		s.grpcServer.Stop()
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
}
