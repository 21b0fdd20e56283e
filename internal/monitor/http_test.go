package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
)

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTPHealthz(t *testing.T) {
	srv := NewHTTPServer(NewProgressStore())
	rec := doGet(t, srv.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Timestamp)
}

func TestHTTPStatus(t *testing.T) {
	store := NewProgressStore()
	srv := NewHTTPServer(store)

	rec := doGet(t, srv.Handler(), "/v1/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store.Publish(improvement.Progress{
		RunID:          "run-1",
		Mode:           improvement.ModeHybrid,
		Phase:          improvement.PhaseLocal,
		Trials:         30,
		Sweeps:         2,
		BestScore:      -4,
		HasBest:        true,
		BestAssignment: map[string]any{"x": int64(68)},
		UpdatedAt:      time.Now(),
	})

	rec = doGet(t, srv.Handler(), "/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, "hybrid", body.Mode)
	assert.Equal(t, "local", body.Phase)
	assert.Equal(t, 30, body.Trials)
	require.NotNil(t, body.BestScore)
	assert.Equal(t, -4.0, *body.BestScore)
	assert.Equal(t, 68.0, body.BestParams["x"])
}

func TestHTTPRuns(t *testing.T) {
	store := NewProgressStore()
	srv := NewHTTPServer(store)
	store.Publish(improvement.Progress{RunID: "run-1"})

	rec := doGet(t, srv.Handler(), "/v1/runs/run-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.BestScore)

	rec = doGet(t, srv.Handler(), "/v1/runs/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(t, srv.Handler(), "/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Runs []StatusResponse `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Runs, 1)

	rec = doGet(t, srv.Handler(), "/v1/runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPMetrics(t *testing.T) {
	metrics.NewMetrics().RecordEvaluation("success", 10*time.Millisecond)

	srv := NewHTTPServer(NewProgressStore())
	rec := doGet(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "autotune_evaluations_total")
}

func TestHTTPServeAndShutdown(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewHTTPServer(NewProgressStore())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(lis) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + lis.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}
