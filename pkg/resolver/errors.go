package resolver

import (
	"errors"
	"fmt"
)

// ErrConflict is the sentinel wrapped by every *ConflictError.
var ErrConflict = errors.New("dependency conflict")

// ConflictError reports two resolutions of one name that disagree on source
// or commit. It always aborts the whole resolution.
type ConflictError struct {
	Name           string
	ExistingSource string
	ExistingCommit string
	IncomingSource string
	IncomingCommit string
}

func (e *ConflictError) Error() string {
	if e.ExistingSource != e.IncomingSource {
		return fmt.Sprintf("dependency conflict: %q resolved to %s at %s and to %s at %s",
			e.Name, e.ExistingSource, e.ExistingCommit, e.IncomingSource, e.IncomingCommit)
	}
	return fmt.Sprintf("dependency conflict: %q resolved to both %s and %s", e.Name, e.ExistingCommit, e.IncomingCommit)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
