package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/libdbm/libcel-go/rules"
)

func TestNewRule(t *testing.T) {
	rule := rules.NewRule("is-adult", "age >= 18")

	assert.Equal(t, "is-adult", rule.Name)
	assert.Equal(t, "age >= 18", rule.Expr)
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
	assert.Empty(t, rule.Description)
}

func TestNewRule_UniqueIDs(t *testing.T) {
	a := rules.NewRule("a", "true")
	b := rules.NewRule("b", "true")

	assert.NotEqual(t, a.ID, b.ID)
}
