package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy rejects operations while a forward transition is running.
	ErrBusy = errors.New("session is busy")
	// ErrWrongStage rejects operations that do not belong to the current stage.
	ErrWrongStage = errors.New("operation not allowed in current stage")
	// ErrNoPrevious rejects Back from the first stage.
	ErrNoPrevious = errors.New("no previous stage")
)

// ValidationError reports input rejected before any generation call.
type ValidationError struct {
	// Fields lists the offending input fields, when known.
	Fields []string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("validation: %s: %s", e.Reason, strings.Join(e.Fields, ", "))
	}
	return "validation: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(reason string, fields ...string) error {
	return &ValidationError{Reason: reason, Fields: fields}
}

func invalidErr(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Reason: err.Error(), Err: err}
}
