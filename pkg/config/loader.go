package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the configuration file looked up in the config directory.
const ConfigFileName = "datamask.yaml"

// Environment variables that override YAML values.
const (
	EnvEnableDataMasking = "ENABLE_DATA_MASKING"
	EnvMaskedFields      = "MASKED_FIELDS"
	EnvAPIBaseURL        = "API_BASE_URL"
)

// DatamaskYAMLConfig represents the complete datamask.yaml file structure
type DatamaskYAMLConfig struct {
	Masking    *MaskingYAMLConfig  `yaml:"masking"`
	DataSource *DataSourceConfig   `yaml:"datasource"`
	Upstream   *UpstreamYAMLConfig `yaml:"upstream"`
}

// MaskingYAMLConfig holds masking settings from YAML.
// Enabled is a pointer so an explicit "false" can be told apart from "unset".
type MaskingYAMLConfig struct {
	Enabled *bool         `yaml:"enabled,omitempty"`
	Fields  []string      `yaml:"fields,omitempty"`
	Rules   []MaskingRule `yaml:"rules,omitempty"`
}

// UpstreamYAMLConfig holds upstream API settings from YAML.
type UpstreamYAMLConfig struct {
	BaseURL    string `yaml:"base_url,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"` // Parsed to time.Duration
	RetryCount *int   `yaml:"retry_count,omitempty"`
	CacheTTL   string `yaml:"cache_ttl,omitempty"` // Parsed to time.Duration; "0" disables the cache
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load datamask.yaml from configDir (optional; defaults apply when absent)
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user values over built-in defaults
//  5. Apply environment overrides (ENABLE_DATA_MASKING, MASKED_FIELDS, API_BASE_URL)
//  6. Validate all configuration
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"masking_enabled", stats.MaskingEnabled,
		"masked_fields", stats.MaskedFields,
		"custom_rules", stats.CustomRules,
		"tables", stats.Tables)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{
		configDir: configDir,
	}

	yamlCfg, err := loader.loadDatamaskYAML()
	if err != nil {
		if !errors.Is(err, ErrConfigNotFound) {
			return nil, NewLoadError(ConfigFileName, err)
		}
		slog.Warn("No configuration file found, using built-in defaults",
			"path", filepath.Join(configDir, ConfigFileName))
		yamlCfg = &DatamaskYAMLConfig{}
	}

	maskingCfg := resolveMaskingConfig(yamlCfg.Masking)

	// Start with defaults, then merge user config on top to preserve unset defaults
	dataSourceCfg := DefaultDataSourceConfig()
	if yamlCfg.DataSource != nil {
		if err := mergo.Merge(dataSourceCfg, yamlCfg.DataSource, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge datasource config: %w", err)
		}
	}

	upstreamCfg := resolveUpstreamConfig(yamlCfg.Upstream)

	if err := applyEnvOverrides(maskingCfg, upstreamCfg); err != nil {
		return nil, err
	}

	return &Config{
		configDir:  configDir,
		Masking:    maskingCfg,
		DataSource: dataSourceCfg,
		Upstream:   upstreamCfg,
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using {{.VAR}} template syntax
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadDatamaskYAML() (*DatamaskYAMLConfig, error) {
	var config DatamaskYAMLConfig
	if err := l.loadYAML(ConfigFileName, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// resolveMaskingConfig resolves masking configuration from YAML, applying defaults.
func resolveMaskingConfig(m *MaskingYAMLConfig) *MaskingConfig {
	cfg := DefaultMaskingConfig()
	if m == nil {
		return cfg
	}
	if m.Enabled != nil {
		cfg.Enabled = *m.Enabled
	}
	if m.Fields != nil {
		cfg.Fields = m.Fields
	}
	cfg.Rules = m.Rules
	return cfg
}

// resolveUpstreamConfig resolves upstream configuration from YAML, applying defaults.
func resolveUpstreamConfig(u *UpstreamYAMLConfig) *UpstreamConfig {
	cfg := DefaultUpstreamConfig()
	if u == nil {
		return cfg
	}

	if u.BaseURL != "" {
		cfg.BaseURL = u.BaseURL
	}
	if u.RetryCount != nil {
		cfg.RetryCount = *u.RetryCount
	}
	if u.Timeout != "" {
		if d, err := time.ParseDuration(u.Timeout); err == nil {
			cfg.Timeout = d
		} else {
			slog.Warn("Invalid timeout in upstream config, using default",
				"value", u.Timeout,
				"default", cfg.Timeout,
				"error", err)
		}
	}
	if u.CacheTTL != "" {
		if d, err := time.ParseDuration(u.CacheTTL); err == nil {
			cfg.CacheTTL = d
		} else {
			slog.Warn("Invalid cache_ttl in upstream config, using default",
				"value", u.CacheTTL,
				"default", cfg.CacheTTL,
				"error", err)
		}
	}

	return cfg
}

// applyEnvOverrides lets process environment win over YAML for the settings
// operators most often flip per deployment.
func applyEnvOverrides(m *MaskingConfig, u *UpstreamConfig) error {
	if raw := os.Getenv(EnvEnableDataMasking); raw != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return NewValidationError("env", EnvEnableDataMasking, "", fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw))
		}
		m.Enabled = enabled
	}
	if raw, ok := os.LookupEnv(EnvMaskedFields); ok {
		m.Fields = splitList(raw)
	}
	if raw := os.Getenv(EnvAPIBaseURL); raw != "" {
		u.BaseURL = strings.TrimSpace(raw)
	}
	return nil
}

// splitList splits a comma-separated list, trimming entries and dropping blanks.
func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
