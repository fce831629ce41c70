package repository

import "fmt"

// DuplicateError reports a unique-constraint violation on a named field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}
