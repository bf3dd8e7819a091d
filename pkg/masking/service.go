package masking

import (
	"log/slog"

	"github.com/codeready-toolchain/datamask/pkg/config"
)

// NewEngineFromConfig builds the process-wide engine from configuration.
// Created once at application startup and shared by every collaborator.
//
// Custom rules are appended after DefaultRules. A custom rule whose pattern
// fails to compile or whose strategy is unknown is logged and skipped;
// configuration validation normally rejects those before this point.
func NewEngineFromConfig(cfg *config.MaskingConfig, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultMaskingConfig()
	}

	policy := NewPolicy(cfg.Enabled, cfg.Fields)

	rules := DefaultRules()
	for _, custom := range cfg.Rules {
		strategy, ok := NamedStrategy(string(custom.Strategy))
		if !ok {
			slog.Error("Unknown redaction strategy in custom masking rule, skipping",
				"rule", custom.Name, "strategy", custom.Strategy)
			continue
		}
		rule, err := NewPatternRule(custom.Name, custom.Fragment, custom.Pattern, strategy)
		if err != nil {
			slog.Error("Failed to compile custom masking rule, skipping",
				"rule", custom.Name, "error", err)
			continue
		}
		rules = append(rules, rule)
	}

	engine := NewEngine(policy, NewRuleTable(rules...), opts...)

	slog.Info("Masking engine initialized",
		"enabled", policy.Enabled(),
		"fragments", policy.Fragments(),
		"rules", len(rules),
		"custom_rules", len(rules)-len(DefaultRules()))

	return engine
}
