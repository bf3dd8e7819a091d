// Package masking redacts sensitive fields in structured data before it is
// handed to a language model or any other downstream consumer.
//
// A Policy decides whether a field is sensitive (by name fragment), a
// RuleTable decides how to redact it (by name fragment plus a content
// pattern), and the Engine walks arbitrary nested data applying both.
// Output always has the same shape as the input; only sensitive scalar
// leaves change, and they always become strings.
package masking

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Observer is notified of every redaction. It receives the field name and
// the name of the rule that produced the replacement ("generic" for the
// fallback), never the value itself.
type Observer interface {
	ObserveRedaction(field, rule string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver attaches a redaction observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine applies a Policy and a RuleTable to structured values. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	policy   *Policy
	rules    *RuleTable
	observer Observer
}

// NewEngine creates an engine. A nil rule table means DefaultRuleTable.
func NewEngine(policy *Policy, rules *RuleTable, opts ...Option) *Engine {
	if policy == nil {
		policy = NewPolicy(false, nil)
	}
	if rules == nil {
		rules = DefaultRuleTable()
	}
	e := &Engine{policy: policy, rules: rules}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's policy.
func (e *Engine) Policy() *Policy { return e.policy }

// Rules returns the engine's rule table.
func (e *Engine) Rules() *RuleTable { return e.rules }

// Mask redacts a top-level payload whose shape is not known in advance.
// Mappings are masked as records and sequences are walked element by
// element at any depth. Scalars without a field name are left as is.
func (e *Engine) Mask(v Value) Value {
	if !e.policy.Enabled() {
		return v
	}
	switch v.Kind() {
	case KindMapping:
		return e.MaskRecord(v)
	case KindSequence:
		out := make([]Value, len(v.items))
		for i, item := range v.items {
			out[i] = e.Mask(item)
		}
		return Sequence(out...)
	default:
		return v
	}
}

// MaskRecord masks every field of a mapping. Non-mapping input is returned
// unchanged because it carries no field names.
func (e *Engine) MaskRecord(record Value) Value {
	if !e.policy.Enabled() || record.Kind() != KindMapping {
		return record
	}
	return e.maskMapping(record)
}

// MaskRecords masks each record, preserving order and count.
func (e *Engine) MaskRecords(records []Value) []Value {
	out := make([]Value, len(records))
	for i, r := range records {
		out[i] = e.MaskRecord(r)
	}
	return out
}

// MaskField masks value as the content of fieldName.
//
// Nested mappings are evaluated key by key, independent of fieldName.
// Scalars inside a sequence inherit fieldName. Null is returned untouched.
func (e *Engine) MaskField(fieldName string, value Value) Value {
	if !e.policy.Enabled() {
		return value
	}
	switch value.Kind() {
	case KindNull:
		return value
	case KindMapping:
		return e.maskMapping(value)
	case KindSequence:
		out := make([]Value, len(value.items))
		for i, item := range value.items {
			if item.Kind() == KindMapping {
				out[i] = e.maskMapping(item)
			} else {
				out[i] = e.MaskField(fieldName, item)
			}
		}
		return Sequence(out...)
	case KindScalar:
		return e.maskScalar(fieldName, value)
	default:
		return value
	}
}

func (e *Engine) maskMapping(m Value) Value {
	om := orderedmap.New[string, Value]()
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		om.Set(pair.Key, e.MaskField(pair.Key, pair.Value))
	}
	return Value{kind: KindMapping, fields: om}
}

func (e *Engine) maskScalar(fieldName string, v Value) Value {
	if !e.policy.IsSensitive(fieldName) {
		return v
	}
	s := stringify(v.scalar)
	rule, ok := e.rules.Match(fieldName, s)
	if !ok {
		e.observe(fieldName, StrategyGeneric)
		return String(MaskGeneric(s))
	}
	e.observe(fieldName, rule.Name)
	return String(rule.Strategy(s))
}

func (e *Engine) observe(field, rule string) {
	if e.observer != nil {
		e.observer.ObserveRedaction(field, rule)
	}
}
