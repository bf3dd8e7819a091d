package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// HealthStatus represents database health and connection pool statistics
type HealthStatus struct {
	Status          string `json:"status"`
	ResponseTime    int64  `json:"response_time_ms"`
	SchemaVersion   uint   `json:"schema_version"`
	Dirty           bool   `json:"dirty,omitempty"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
	WaitDuration    int64  `json:"wait_duration_ms"`
	MaxOpenConns    int    `json:"max_open_conns"`
}

// Health checks database connectivity and the applied migration version,
// and returns connection pool statistics. A dirty migration is reported as
// "degraded".
func Health(ctx context.Context, db *sql.DB) (*HealthStatus, error) {
	start := time.Now()

	if err := db.PingContext(ctx); err != nil {
		return &HealthStatus{
			Status:       "unhealthy",
			ResponseTime: time.Since(start).Milliseconds(),
		}, err
	}

	status := &HealthStatus{Status: "healthy"}

	var version int64
	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &status.Dirty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		status.Status = "degraded"
	case err != nil:
		status.Status = "unhealthy"
		status.ResponseTime = time.Since(start).Milliseconds()
		return status, err
	default:
		status.SchemaVersion = uint(version)
		if status.Dirty {
			status.Status = "degraded"
		}
	}

	stats := db.Stats()
	status.ResponseTime = time.Since(start).Milliseconds()
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle
	status.WaitCount = stats.WaitCount
	status.WaitDuration = stats.WaitDuration.Milliseconds()
	status.MaxOpenConns = stats.MaxOpenConnections

	return status, nil
}
