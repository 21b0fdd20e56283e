package monitor

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// Monitor runs the optional HTTP and gRPC surfaces next to a search.
type Monitor struct {
	Store *ProgressStore

	http     *HTTPServer
	grpc     *GRPCServer
	httpAddr string
	grpcAddr string
	errs     chan error
}

// New creates a monitor. An empty address disables that surface.
func New(httpAddr, grpcAddr string) *Monitor {
	store := NewProgressStore()
	return &Monitor{
		Store:    store,
		httpAddr: httpAddr,
		grpcAddr: grpcAddr,
		errs:     make(chan error, 2),
	}
}

// Enabled reports whether any surface is configured.
func (m *Monitor) Enabled() bool {
	return m.httpAddr != "" || m.grpcAddr != ""
}

// Start listens on the configured addresses and serves in the background.
// It returns the bound addresses, which differ from the configured ones when
// port 0 is used.
func (m *Monitor) Start() (httpAddr, grpcAddr string, err error) {
	if m.httpAddr != "" {
		lis, err := net.Listen("tcp", m.httpAddr)
		if err != nil {
			return "", "", fmt.Errorf("failed to listen for HTTP on %s: %w", m.httpAddr, err)
		}
		srv := NewHTTPServer(m.Store)
		m.http = srv
		httpAddr = lis.Addr().String()
		go func(addr string) {
			logger.Info("HTTP monitor listening", "addr", addr)
			m.errs <- srv.Serve(lis)
		}(httpAddr)
	}

	if m.grpcAddr != "" {
		lis, err := net.Listen("tcp", m.grpcAddr)
		if err != nil {
			m.Shutdown(context.Background())
			return "", "", fmt.Errorf("failed to listen for gRPC on %s: %w", m.grpcAddr, err)
		}
		srv := NewGRPCServer(m.Store)
		m.grpc = srv
		grpcAddr = lis.Addr().String()
		go func(addr string) {
			logger.Info("gRPC monitor listening", "addr", addr)
			m.errs <- srv.Serve(lis)
		}(grpcAddr)
	}
	return httpAddr, grpcAddr, nil
}

// Shutdown stops both surfaces and waits for their serve loops to return.
func (m *Monitor) Shutdown(ctx context.Context) {
	running := 0
	if m.grpc != nil {
		m.grpc.Stop()
		m.grpc = nil
		running++
	}
	if m.http != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := m.http.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP monitor shutdown error", "error", err)
		}
		cancel()
		m.http = nil
		running++
	}
	for i := 0; i < running; i++ {
		if err := <-m.errs; err != nil {
			logger.Warn("monitor server stopped with error", "error", err)
		}
	}
}
