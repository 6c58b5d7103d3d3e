package match

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports a malformed request argument.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// ValidateID checks that id is a UUID. Job and profile ids are UUIDs in the
// marketplace database, so anything else can never match a row.
func ValidateID(field, id string) error {
	if id == "" {
		return &ValidationError{Field: field, Msg: "is required"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Field: field, Msg: "must be a UUID"}
	}
	return nil
}
