package humanize

import (
	"fmt"
	"net/http"
)

// ValidationError rejects malformed pipeline input before any stage runs.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// HTTPStatusCode makes validation failures surface as 400s.
func (e *ValidationError) HTTPStatusCode() int { return http.StatusBadRequest }

// GenerationError is an external-capability failure or unusable structured
// output. It aborts only the stage that raised it.
type GenerationError struct {
	Msg string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StageFailure wraps a stage's GenerationError with the stage name; it halts
// all subsequent stages.
type StageFailure struct {
	Stage string
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error { return e.Err }

// PersistenceError is a failed write to the persistence collaborator.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
