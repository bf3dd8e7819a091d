package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/datamask/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health.
// Only the database is checked; the upstream API is an external dependency
// and its outages must not make the orchestrator restart this process.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := &HealthResponse{
		Status:  healthStatusHealthy,
		Version: version.GitCommit,
		Checks:  make(map[string]HealthCheck),
		Configuration: &ConfigurationStats{
			MaskingEnabled: s.stats.MaskingEnabled,
			MaskedFields:   s.stats.MaskedFields,
			CustomRules:    s.stats.CustomRules,
			Tables:         s.stats.Tables,
		},
	}

	if s.health != nil {
		dbHealth, err := s.health(reqCtx)
		resp.Database = dbHealth
		switch {
		case err != nil:
			resp.Status = healthStatusUnhealthy
			resp.Checks["database"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
		case dbHealth != nil && dbHealth.Status == healthStatusDegraded:
			resp.Status = healthStatusDegraded
			resp.Checks["database"] = HealthCheck{Status: healthStatusDegraded, Message: "migrations missing or dirty"}
		default:
			resp.Checks["database"] = HealthCheck{Status: healthStatusHealthy}
		}
	}

	httpStatus := http.StatusOK
	if resp.Status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, resp)
}
