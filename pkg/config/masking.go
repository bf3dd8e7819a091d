package config

// MaskingConfig controls sensitive-field masking.
type MaskingConfig struct {
	// Enabled switches masking on or off globally.
	Enabled bool `yaml:"enabled"`

	// Fields are field-name fragments; a field whose lowercased name contains
	// any of them is sensitive.
	Fields []string `yaml:"fields"`

	// Rules are evaluated after the built-in email/phone/credit_card/ssn rules.
	Rules []MaskingRule `yaml:"rules,omitempty"`
}

// MaskingRule declares an additional pattern rule.
type MaskingRule struct {
	Name     string            `yaml:"name"`
	Fragment string            `yaml:"fragment"`
	Pattern  string            `yaml:"pattern"`
	Strategy RedactionStrategy `yaml:"strategy"`
}

// DefaultMaskedFields are the sensitive fragments used when none are configured.
var DefaultMaskedFields = []string{"email", "phone", "ssn", "credit_card", "password"}

// DefaultMaskingConfig returns masking enabled with DefaultMaskedFields.
func DefaultMaskingConfig() *MaskingConfig {
	fields := make([]string, len(DefaultMaskedFields))
	copy(fields, DefaultMaskedFields)
	return &MaskingConfig{
		Enabled: true,
		Fields:  fields,
	}
}
