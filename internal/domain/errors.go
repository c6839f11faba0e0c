package domain

import "fmt"

// InvalidInputError reports a malformed record passed to the engine or a store.
type InvalidInputError struct {
	Field  string
	Reason string
	ID     string // record identifier, if known
}

func (e *InvalidInputError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid input: %s %s (id %s)", e.Field, e.Reason, e.ID)
	}
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}
