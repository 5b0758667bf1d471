package rules

import (
	"time"

	"github.com/google/uuid"
)

// Rule is a named expression with metadata.
// Rules are stored by name; the ID is a stable identity that survives
// renames when the host round-trips rules through files.
type Rule struct {
	ID          string    `yaml:"id,omitempty" json:"id,omitempty"`
	Name        string    `yaml:"name" json:"name"`
	Expr        string    `yaml:"expr" json:"expr"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
}

// NewRule creates a rule with a generated ID and the current timestamp.
func NewRule(name, expr string) Rule {
	return Rule{
		ID:        uuid.New().String(),
		Name:      name,
		Expr:      expr,
		CreatedAt: time.Now().UTC(),
	}
}
