package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(s string) Strategy {
	return func(string) string { return s }
}

func TestDefaultRules_Order(t *testing.T) {
	rules := DefaultRules()

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{StrategyEmail, StrategyPhone, StrategyCreditCard, StrategySSN}, names)
}

func TestRuleTable_SelectStrategy_Defaults(t *testing.T) {
	table := DefaultRuleTable()

	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"email", "email", "zhang@company.com", "z***g@company.com"},
		{"email with prefix match only", "email", "a.b@ex.com trailing", "a*b@ex.com trailing"},
		{"email pattern miss falls back to generic", "email", "not-an-email", "n**********l"},
		{"leading space defeats prefix match", "email", " x@y.io", " *****o"},
		{"phone", "phone", "0912-345-678", "09******78"},
		{"credit card", "credit_card", "1234-5678-9012-3456", "************3456"},
		{"ssn", "ssn", "123-45-6789", "***-**-6789"},
		{"field with no rule fragment", "password", "hunter2", "h*****2"},
		{"fragment match is case-insensitive", "Work_Phone", "0912 345 678", "09******78"},
		{"full-width phone digits", "phone", "０９１２３４５６７８", "０９******７８"},
		{"full-width ssn digits", "ssn", "１２３-４５-６７８９", "***-**-６７８９"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.SelectStrategy(tt.field, tt.value)(tt.value))
		})
	}
}

func TestRuleTable_FirstMatchWins(t *testing.T) {
	table := NewRuleTable(
		MustPatternRule("first", "id", `\d+`, constant("A")),
		MustPatternRule("second", "id", `\d+`, constant("B")),
	)

	rule, ok := table.Match("user_id", "123")
	require.True(t, ok)
	assert.Equal(t, "first", rule.Name)
	assert.Equal(t, "A", table.SelectStrategy("user_id", "123")("123"))
}

func TestRuleTable_SkipsRuleWhosePatternMisses(t *testing.T) {
	table := NewRuleTable(
		MustPatternRule("digits", "contact", `\d+`, constant("digits")),
		MustPatternRule("letters", "contact", `[a-z]+`, constant("letters")),
	)

	rule, ok := table.Match("contact", "abc")
	require.True(t, ok)
	assert.Equal(t, "letters", rule.Name)
}

func TestRuleTable_NoMatchUsesGeneric(t *testing.T) {
	table := NewRuleTable(MustPatternRule("digits", "id", `\d+`, constant("X")))

	_, ok := table.Match("user_id", "abc")
	assert.False(t, ok)
	_, ok = table.Match("name", "123")
	assert.False(t, ok)

	assert.Equal(t, "a*c", table.SelectStrategy("user_id", "abc")("abc"))
}

func TestRuleTable_Empty(t *testing.T) {
	table := NewRuleTable()

	assert.Equal(t, 0, table.Len())
	assert.Equal(t, "W**g", table.SelectStrategy("email", "Wang")("Wang"))
}

func TestNewRuleTable_CopiesInput(t *testing.T) {
	rules := []PatternRule{MustPatternRule("a", "x", `.`, constant("a"))}
	table := NewRuleTable(rules...)

	rules[0] = MustPatternRule("b", "x", `.`, constant("b"))

	assert.Equal(t, "a", table.Rules()[0].Name)
}

func TestNewPatternRule(t *testing.T) {
	t.Run("anchors pattern at start", func(t *testing.T) {
		rule, err := NewPatternRule("num", " ID ", `\d+`, MaskGeneric)
		require.NoError(t, err)
		assert.Equal(t, "id", rule.Fragment)
		assert.True(t, rule.Pattern.MatchString("123abc"))
		assert.False(t, rule.Pattern.MatchString("abc123"))
	})

	t.Run("alternation stays anchored", func(t *testing.T) {
		rule, err := NewPatternRule("alt", "x", `a|b`, MaskGeneric)
		require.NoError(t, err)
		assert.True(t, rule.Pattern.MatchString("b..."))
		assert.False(t, rule.Pattern.MatchString("xb"))
	})

	t.Run("invalid regex", func(t *testing.T) {
		_, err := NewPatternRule("bad", "x", `(`, MaskGeneric)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `rule "bad"`)
	})

	t.Run("missing strategy", func(t *testing.T) {
		_, err := NewPatternRule("none", "x", `.`, nil)
		require.Error(t, err)
	})

	t.Run("must variant panics", func(t *testing.T) {
		assert.Panics(t, func() { MustPatternRule("bad", "x", `(`, MaskGeneric) })
	})
}
