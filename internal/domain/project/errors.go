package project

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProject means the directory holds no vizy definition file.
	ErrNoProject = errors.New("no vizy project file found")
	// ErrNoTask means the definition has no task command to run.
	ErrNoTask = errors.New("project defines no task command")
)

// InvalidProjectError reports a definition file that cannot be used.
type InvalidProjectError struct {
	File   string
	Reason string
	Err    error
}

func (e *InvalidProjectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid project %s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid project %s: %s", e.File, e.Reason)
}

func (e *InvalidProjectError) Unwrap() error {
	return e.Err
}

// ValidationError reports a submitted value that does not fit its parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
