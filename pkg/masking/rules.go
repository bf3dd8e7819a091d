package masking

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternRule picks a specialized strategy for a field that is already known
// to be sensitive. The rule applies when Fragment occurs in the lowercased
// field name and Pattern matches at the start of the stringified value.
type PatternRule struct {
	Name     string
	Fragment string
	Pattern  *regexp.Regexp
	Strategy Strategy
}

// NewPatternRule compiles expr anchored at the start of the input. Only a
// leading match is required; trailing characters are allowed, so
// "a@b.co and more" still selects the email strategy.
func NewPatternRule(name, fragment, expr string, strategy Strategy) (PatternRule, error) {
	if strategy == nil {
		return PatternRule{}, fmt.Errorf("rule %q: strategy is required", name)
	}
	re, err := regexp.Compile(`^(?:` + expr + `)`)
	if err != nil {
		return PatternRule{}, fmt.Errorf("rule %q: compile pattern: %w", name, err)
	}
	return PatternRule{
		Name:     name,
		Fragment: strings.ToLower(strings.TrimSpace(fragment)),
		Pattern:  re,
		Strategy: strategy,
	}, nil
}

// MustPatternRule is NewPatternRule for static tables; it panics on error.
func MustPatternRule(name, fragment, expr string, strategy Strategy) PatternRule {
	r, err := NewPatternRule(name, fragment, expr, strategy)
	if err != nil {
		panic(err)
	}
	return r
}

// appliesTo reports whether the rule selects its strategy for the pair.
// fieldLower must already be lowercased.
func (r PatternRule) appliesTo(fieldLower, value string) bool {
	if r.Fragment == "" || !strings.Contains(fieldLower, r.Fragment) {
		return false
	}
	return r.Pattern.MatchString(value)
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []PatternRule {
	return []PatternRule{
		MustPatternRule(StrategyEmail, "email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, MaskEmail),
		MustPatternRule(StrategyPhone, "phone", `\p{Nd}{2,4}[-\s]?\p{Nd}{3,4}[-\s]?\p{Nd}{3,4}`, MaskPhone),
		MustPatternRule(StrategyCreditCard, "credit_card", `\p{Nd}{4}[-\s]?\p{Nd}{4}[-\s]?\p{Nd}{4}[-\s]?\p{Nd}{4}`, MaskCreditCard),
		MustPatternRule(StrategySSN, "ssn", `\p{Nd}{3}[-\s]?\p{Nd}{2}[-\s]?\p{Nd}{4}`, MaskSSN),
	}
}

// RuleTable is an ordered, immutable list of pattern rules.
// The first applicable rule wins.
type RuleTable struct {
	rules []PatternRule
}

// NewRuleTable copies rules into a table, preserving their order.
func NewRuleTable(rules ...PatternRule) *RuleTable {
	cp := make([]PatternRule, len(rules))
	copy(cp, rules)
	return &RuleTable{rules: cp}
}

// DefaultRuleTable returns a table holding DefaultRules.
func DefaultRuleTable() *RuleTable {
	return NewRuleTable(DefaultRules()...)
}

// Rules returns the rules in evaluation order.
func (t *RuleTable) Rules() []PatternRule {
	out := make([]PatternRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len returns the number of rules.
func (t *RuleTable) Len() int { return len(t.rules) }

// Match returns the first rule applicable to the field/value pair.
func (t *RuleTable) Match(fieldName, value string) (PatternRule, bool) {
	lower := strings.ToLower(fieldName)
	for _, r := range t.rules {
		if r.appliesTo(lower, value) {
			return r, true
		}
	}
	return PatternRule{}, false
}

// SelectStrategy returns the strategy of the first applicable rule, or
// MaskGeneric when none applies.
func (t *RuleTable) SelectStrategy(fieldName, value string) Strategy {
	if r, ok := t.Match(fieldName, value); ok {
		return r.Strategy
	}
	return MaskGeneric
}
