package config

import "time"

// DataSourceConfig controls which tables the record store exposes.
type DataSourceConfig struct {
	// Tables lists the table names that may be queried. Anything else is rejected.
	Tables []string `yaml:"tables"`

	// DefaultLimit is applied when a query does not specify a limit.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps any requested limit.
	MaxLimit int `yaml:"max_limit"`
}

// DefaultDataSourceConfig returns the built-in record store defaults.
func DefaultDataSourceConfig() *DataSourceConfig {
	return &DataSourceConfig{
		Tables:       []string{"employees", "projects"},
		DefaultLimit: 100,
		MaxLimit:     1000,
	}
}

// UpstreamConfig configures the external JSON API fetcher.
type UpstreamConfig struct {
	// BaseURL is the API root; endpoints are resolved relative to it.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single request including retries.
	Timeout time.Duration `yaml:"timeout"`

	// RetryCount is the number of retries after a failed request.
	RetryCount int `yaml:"retry_count"`

	// CacheTTL keeps successful responses in memory; zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultUpstreamConfig returns the built-in upstream defaults.
func DefaultUpstreamConfig() *UpstreamConfig {
	return &UpstreamConfig{
		BaseURL:    "https://jsonplaceholder.typicode.com",
		Timeout:    30 * time.Second,
		RetryCount: 2,
		CacheTTL:   1 * time.Minute,
	}
}
