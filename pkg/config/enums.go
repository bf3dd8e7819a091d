package config

// RedactionStrategy names a built-in redaction strategy for custom masking rules
type RedactionStrategy string

const (
	// RedactionStrategyEmail keeps the edges of the local part and the domain
	RedactionStrategyEmail RedactionStrategy = "email"
	// RedactionStrategyPhone keeps the first and last two digits
	RedactionStrategyPhone RedactionStrategy = "phone"
	// RedactionStrategyCreditCard keeps the last four digits
	RedactionStrategyCreditCard RedactionStrategy = "credit_card"
	// RedactionStrategySSN renders ***-**-NNNN
	RedactionStrategySSN RedactionStrategy = "ssn"
	// RedactionStrategyGeneric keeps the first and last character
	RedactionStrategyGeneric RedactionStrategy = "generic"
)

// IsValid checks if the redaction strategy is valid
func (s RedactionStrategy) IsValid() bool {
	switch s {
	case RedactionStrategyEmail,
		RedactionStrategyPhone,
		RedactionStrategyCreditCard,
		RedactionStrategySSN,
		RedactionStrategyGeneric:
		return true
	default:
		return false
	}
}
