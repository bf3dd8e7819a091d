package api

import (
	"github.com/codeready-toolchain/datamask/pkg/database"
	"github.com/codeready-toolchain/datamask/pkg/masking"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthCheck is the status of one component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	Checks        map[string]HealthCheck `json:"checks"`
	Database      *database.HealthStatus `json:"database,omitempty"`
	Configuration *ConfigurationStats    `json:"configuration,omitempty"`
}

// ConfigurationStats summarizes the loaded configuration.
type ConfigurationStats struct {
	MaskingEnabled bool `json:"masking_enabled"`
	MaskedFields   int  `json:"masked_fields"`
	CustomRules    int  `json:"custom_rules"`
	Tables         int  `json:"tables"`
}

// TablesResponse is returned by GET /api/v1/tables.
type TablesResponse struct {
	Tables []string `json:"tables"`
}

// RecordsResponse is returned by GET /api/v1/tables/:table/records.
type RecordsResponse struct {
	Table   string          `json:"table"`
	Count   int             `json:"count"`
	Records []masking.Value `json:"records"`
}

// UpstreamResponse is returned by GET /api/v1/upstream/*endpoint.
type UpstreamResponse struct {
	Endpoint string        `json:"endpoint"`
	Data     masking.Value `json:"data"`
}
