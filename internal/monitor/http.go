package monitor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// StatusResponse is the JSON body of the status endpoints.
type StatusResponse struct {
	RunID       string         `json:"run_id"`
	Mode        string         `json:"mode"`
	Phase       string         `json:"phase"`
	Status      string         `json:"status"`
	Finished    bool           `json:"finished"`
	Trials      int            `json:"trials"`
	Pruned      int            `json:"pruned"`
	Sweeps      int            `json:"sweeps"`
	Evaluations int            `json:"evaluations"`
	BestScore   *float64       `json:"best_score,omitempty"`
	BestParams  map[string]any `json:"best_params,omitempty"`
	Updates     int            `json:"updates"`
	UpdatedAt   string         `json:"updated_at"`
}

// HealthResponse is the JSON body of /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HTTPServer serves run progress and Prometheus metrics.
type HTTPServer struct {
	echo  *echo.Echo
	store *ProgressStore
	srv   *http.Server
}

// NewHTTPServer creates the HTTP surface over store.
func NewHTTPServer(store *ProgressStore) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Debug("http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start).String())
			return err
		}
	})

	s := &HTTPServer{
		echo:  e,
		store: store,
		srv: &http.Server{
			Handler:           e,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}
	s.registerRoutes()
	return s
}

func (s *HTTPServer) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/runs", s.handleListRuns)
	v1.GET("/runs/:id", s.handleGetRun)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

// Serve accepts connections on lis until Shutdown.
func (s *HTTPServer) Serve(lis net.Listener) error {
	err := s.srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops a serving server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleStatus(c echo.Context) error {
	rec, ok := s.store.Latest()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no run in progress")
	}
	return c.JSON(http.StatusOK, toStatusResponse(rec))
}

func (s *HTTPServer) handleListRuns(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	records := s.store.List(limit)
	out := make([]StatusResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toStatusResponse(rec))
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": out})
}

func (s *HTTPServer) handleGetRun(c echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, toStatusResponse(rec))
}

func toStatusResponse(rec RunRecord) StatusResponse {
	p := rec.Progress
	resp := StatusResponse{
		RunID:       p.RunID,
		Mode:        string(p.Mode),
		Phase:       p.Phase,
		Status:      string(p.Status),
		Finished:    p.Finished,
		Trials:      p.Trials,
		Pruned:      p.Pruned,
		Sweeps:      p.Sweeps,
		Evaluations: p.Evaluations,
		Updates:     rec.Updates,
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.HasBest {
		score := p.BestScore
		resp.BestScore = &score
		resp.BestParams = p.BestAssignment
	}
	return resp
}
