package claims

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned by repositories when an insert violates a
// uniqueness constraint (primary key, email, insurance id).
var ErrDuplicate = errors.New("record already exists")

// ValidationError reports an entity field that fails a structural or
// format rule at construction time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ReferentialError reports an operation that references an entity
// identifier that does not exist.
type ReferentialError struct {
	Entity string
	ID     string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// LimitExceededError reports a claim amount over the configured ceiling.
type LimitExceededError struct {
	Amount float64
	Limit  float64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("claim amount %.2f exceeds maximum limit of %.2f", e.Amount, e.Limit)
}
