package masking

import (
	"testing"

	"github.com/codeready-toolchain/datamask/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineFromConfig_Defaults(t *testing.T) {
	engine := NewEngineFromConfig(nil)

	require.NotNil(t, engine)
	assert.True(t, engine.Policy().Enabled())
	assert.Equal(t, DefaultSensitiveFields, engine.Policy().Fragments())
	assert.Equal(t, len(DefaultRules()), engine.Rules().Len())
}

func TestNewEngineFromConfig_Disabled(t *testing.T) {
	engine := NewEngineFromConfig(&config.MaskingConfig{Enabled: false, Fields: []string{"email"}})

	out := engine.MaskRecord(mustParse(t, `{"email":"zhang@company.com"}`))
	assert.Equal(t, `{"email":"zhang@company.com"}`, toJSON(t, out))
}

func TestNewEngineFromConfig_CustomRules(t *testing.T) {
	cfg := &config.MaskingConfig{
		Enabled: true,
		Fields:  []string{"email", "employee_code"},
		Rules: []config.MaskingRule{
			{Name: "employee_code", Fragment: "employee_code", Pattern: `EMP-\d+`, Strategy: config.RedactionStrategySSN},
			{Name: "broken", Fragment: "x", Pattern: `(`, Strategy: config.RedactionStrategyGeneric},
			{Name: "unknown", Fragment: "x", Pattern: `.`, Strategy: "reversible"},
		},
	}

	engine := NewEngineFromConfig(cfg)

	rules := engine.Rules().Rules()
	require.Len(t, rules, len(DefaultRules())+1)
	assert.Equal(t, "employee_code", rules[len(rules)-1].Name)

	out := engine.MaskRecord(mustParse(t, `{"employee_code":"EMP-001234","email":"li@company.com"}`))
	assert.Equal(t, `{"employee_code":"***-**-1234","email":"**@company.com"}`, toJSON(t, out))
}

func TestNewEngineFromConfig_AttachesObserver(t *testing.T) {
	obs := &recordingObserver{}
	engine := NewEngineFromConfig(config.DefaultMaskingConfig(), WithObserver(obs))

	_ = engine.MaskRecord(mustParse(t, `{"phone":"0912-345-678"}`))

	assert.Equal(t, []string{"phone=phone"}, obs.events)
}
