package monitor

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
)

// RunService is the health-check service name that reports SERVING while a
// run is in progress and NOT_SERVING once it has finished.
const RunService = "autotune.run"

// GRPCServer exposes the standard gRPC health service. The empty service
// name reports the process itself.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
}

// NewGRPCServer creates a gRPC server whose health follows store.
func NewGRPCServer(store *ProgressStore, opts ...grpc.ServerOption) *GRPCServer {
	s := &GRPCServer{
		server: grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(RunService, healthpb.HealthCheckResponse_SERVICE_UNKNOWN)

	if store != nil {
		store.OnPublish(s.observe)
	}
	return s
}

func (s *GRPCServer) observe(p improvement.Progress) {
	status := healthpb.HealthCheckResponse_SERVING
	if p.Finished {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(RunService, status)
}

// Serve accepts connections on lis until Stop.
func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Stop marks every service NOT_SERVING and stops gracefully.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
