// Package api exposes masked records and upstream payloads over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/datamask/pkg/config"
	"github.com/codeready-toolchain/datamask/pkg/database"
	"github.com/codeready-toolchain/datamask/pkg/datasource"
	"github.com/codeready-toolchain/datamask/pkg/masking"
	"github.com/codeready-toolchain/datamask/pkg/metrics"
)

// DataService is the part of datasource.Service the handlers use.
type DataService interface {
	Tables() []string
	TableSchema(ctx context.Context, table string) (*datasource.TableSchema, error)
	QueryRecords(ctx context.Context, q datasource.Query) ([]masking.Value, error)
	FetchUpstream(ctx context.Context, endpoint string, params map[string]string, limit int) (masking.Value, error)
	Mask(v masking.Value) masking.Value
}

// HealthFunc reports the health of the backing database.
type HealthFunc func(ctx context.Context) (*database.HealthStatus, error)

// DatabaseHealth returns a HealthFunc backed by client.
func DatabaseHealth(client *database.Client) HealthFunc {
	return func(ctx context.Context) (*database.HealthStatus, error) {
		return database.Health(ctx, client.DB())
	}
}

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	data       DataService
	health     HealthFunc
	metrics    *metrics.Metrics
	stats      config.Stats
}

// NewServer creates the server and registers all routes.
func NewServer(data DataService, health HealthFunc, m *metrics.Metrics, stats config.Stats) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:  gin.New(),
		data:    data,
		health:  health,
		metrics: m,
		stats:   stats,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(securityHeaders())
	s.router.Use(requestLogger())
	if s.metrics != nil {
		s.router.Use(observeRequests(s.metrics))
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router.GET("/health", s.healthHandler)

	v1 := s.router.Group("/api/v1")
	v1.GET("/tables", s.listTablesHandler)
	v1.GET("/tables/:table/schema", s.tableSchemaHandler)
	v1.GET("/tables/:table/records", s.queryRecordsHandler)
	v1.GET("/upstream/*endpoint", s.fetchUpstreamHandler)
	v1.POST("/mask", s.maskHandler)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
