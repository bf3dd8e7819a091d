package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// tableNamePattern restricts exposed tables to plain SQL identifiers.
var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ConfigValidator validates configuration comprehensively with clear error messages
type ConfigValidator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *ConfigValidator) ValidateAll() error {
	if err := v.validateMasking(); err != nil {
		return fmt.Errorf("masking validation failed: %w", err)
	}

	if err := v.validateDataSource(); err != nil {
		return fmt.Errorf("datasource validation failed: %w", err)
	}

	if err := v.validateUpstream(); err != nil {
		return fmt.Errorf("upstream validation failed: %w", err)
	}

	return nil
}

func (v *ConfigValidator) validateMasking() error {
	m := v.cfg.Masking
	if m == nil {
		return NewValidationError("masking", "", "", ErrMissingRequiredField)
	}

	seen := make(map[string]bool, len(m.Rules))
	for i, rule := range m.Rules {
		id := rule.Name
		if id == "" {
			id = fmt.Sprintf("#%d", i)
			return NewValidationError("masking_rule", id, "name", ErrMissingRequiredField)
		}
		if seen[rule.Name] {
			return NewValidationError("masking_rule", id, "name", fmt.Errorf("%w: duplicate rule name", ErrInvalidValue))
		}
		seen[rule.Name] = true

		if strings.TrimSpace(rule.Fragment) == "" {
			return NewValidationError("masking_rule", id, "fragment", ErrMissingRequiredField)
		}
		if rule.Pattern == "" {
			return NewValidationError("masking_rule", id, "pattern", ErrMissingRequiredField)
		}
		// Rules are matched at the start of the value, mirror that when compiling.
		if _, err := regexp.Compile(`^(?:` + rule.Pattern + `)`); err != nil {
			return NewValidationError("masking_rule", id, "pattern", fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
		if !rule.Strategy.IsValid() {
			return NewValidationError("masking_rule", id, "strategy", fmt.Errorf("%w: unknown strategy %q", ErrInvalidValue, rule.Strategy))
		}
	}

	return nil
}

func (v *ConfigValidator) validateDataSource() error {
	ds := v.cfg.DataSource
	if ds == nil {
		return NewValidationError("datasource", "", "", ErrMissingRequiredField)
	}

	for _, table := range ds.Tables {
		if !tableNamePattern.MatchString(table) {
			return NewValidationError("datasource", table, "tables", fmt.Errorf("%w: not a valid table name", ErrInvalidValue))
		}
	}
	if ds.DefaultLimit <= 0 {
		return NewValidationError("datasource", "", "default_limit", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if ds.MaxLimit < ds.DefaultLimit {
		return NewValidationError("datasource", "", "max_limit", fmt.Errorf("%w: must be >= default_limit (%d)", ErrInvalidValue, ds.DefaultLimit))
	}

	return nil
}

func (v *ConfigValidator) validateUpstream() error {
	u := v.cfg.Upstream
	if u == nil {
		return NewValidationError("upstream", "", "", ErrMissingRequiredField)
	}

	if u.BaseURL == "" {
		return NewValidationError("upstream", "", "base_url", ErrMissingRequiredField)
	}
	parsed, err := url.Parse(u.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return NewValidationError("upstream", u.BaseURL, "base_url", fmt.Errorf("%w: must be an absolute http(s) URL", ErrInvalidValue))
	}
	if u.Timeout <= 0 {
		return NewValidationError("upstream", "", "timeout", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if u.RetryCount < 0 {
		return NewValidationError("upstream", "", "retry_count", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	if u.CacheTTL < 0 {
		return NewValidationError("upstream", "", "cache_ttl", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}

	return nil
}
