package masking

import "strings"

// DefaultSensitiveFields is the fragment list used when nothing is configured.
var DefaultSensitiveFields = []string{"email", "phone", "ssn", "credit_card", "password"}

// Policy decides whether a field is sensitive. A field is sensitive when its
// lowercased name contains any configured fragment, so "contact_email" and
// even "emailing_list_id" match "email". Immutable after construction.
type Policy struct {
	enabled   bool
	fragments []string
}

// NewPolicy normalizes fragments (trim, lowercase), dropping blanks and
// duplicates while keeping first-seen order.
func NewPolicy(enabled bool, fragments []string) *Policy {
	seen := make(map[string]bool, len(fragments))
	normalized := make([]string, 0, len(fragments))
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		normalized = append(normalized, f)
	}
	return &Policy{enabled: enabled, fragments: normalized}
}

// ParseFragments splits a comma-separated fragment list such as the
// MASKED_FIELDS environment variable.
func ParseFragments(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	return strings.Split(list, ",")
}

// Enabled reports whether masking is switched on.
func (p *Policy) Enabled() bool { return p.enabled }

// Fragments returns the normalized fragments.
func (p *Policy) Fragments() []string {
	out := make([]string, len(p.fragments))
	copy(out, p.fragments)
	return out
}

// IsSensitive reports whether values of fieldName must be redacted.
// Always false when the policy is disabled.
func (p *Policy) IsSensitive(fieldName string) bool {
	if !p.enabled || len(p.fragments) == 0 {
		return false
	}
	lower := strings.ToLower(fieldName)
	for _, f := range p.fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
