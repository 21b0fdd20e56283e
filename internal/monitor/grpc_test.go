package monitor

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
)

func startBufconn(t *testing.T, store *ProgressStore) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(store)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		<-done
	})
	return healthpb.NewHealthClient(conn)
}

func TestGRPCHealth(t *testing.T) {
	store := NewProgressStore()
	client := startBufconn(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: RunService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVICE_UNKNOWN, resp.GetStatus())

	store.Publish(improvement.Progress{RunID: "run-1", Phase: improvement.PhaseGlobal})
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: RunService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	store.Publish(improvement.Progress{RunID: "run-1", Phase: "done", Finished: true})
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: RunService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestMonitorStartAndShutdown(t *testing.T) {
	m := New("127.0.0.1:0", "127.0.0.1:0")
	require.True(t, m.Enabled())

	httpAddr, grpcAddr, err := m.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, httpAddr)
	assert.NotEmpty(t, grpcAddr)

	m.Store.Publish(improvement.Progress{RunID: "run-1"})
	m.Shutdown(context.Background())

	assert.False(t, New("", "").Enabled())
}
