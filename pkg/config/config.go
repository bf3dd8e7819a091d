package config

// Config is the umbrella configuration object returned by Initialize.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// Sensitive-field masking policy and extra pattern rules
	Masking *MaskingConfig

	// Record store settings (exposed tables, query limits)
	DataSource *DataSourceConfig

	// External API the upstream fetcher reads from
	Upstream *UpstreamConfig
}

// Stats contains statistics about loaded configuration
type Stats struct {
	MaskingEnabled bool
	MaskedFields   int
	CustomRules    int
	Tables         int
}

// Stats returns configuration statistics for logging/monitoring
func (c *Config) Stats() Stats {
	s := Stats{}
	if c.Masking != nil {
		s.MaskingEnabled = c.Masking.Enabled
		s.MaskedFields = len(c.Masking.Fields)
		s.CustomRules = len(c.Masking.Rules)
	}
	if c.DataSource != nil {
		s.Tables = len(c.DataSource.Tables)
	}
	return s
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}
