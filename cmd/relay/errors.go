package main

import (
	"context"
	"errors"

	"forum_relay/internal/domain"
)

const (
	exitOK          = 0
	exitError       = 1
	exitValidation  = 2
	exitMonitoring  = 3
	exitInterrupted = 130
)

// codedError carries the process exit code for err.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

func exitCode(err error) int {
	var coded *codedError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &coded):
		return coded.code
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, domain.ErrValidation):
		return exitValidation
	default:
		return exitError
	}
}
