package main

import (
	"context"
	"errors"

	"github.com/yigit/horario/internal/pkg/apperrors"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitSource     = 3
	exitConnection = 4
	exitStoreWrite = 5
	exitCancelled  = 130
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// exitCode prefers an explicit cliError code, then classifies by sentinel.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}

	switch {
	case errors.Is(err, context.Canceled):
		return exitCancelled
	case errors.Is(err, apperrors.ErrConnection):
		return exitConnection
	case errors.Is(err, apperrors.ErrStoreOperation):
		return exitStoreWrite
	case apperrors.Is(err, apperrors.ErrSourceNotFound, apperrors.ErrParseMismatch):
		return exitSource
	case errors.Is(err, apperrors.ErrUnknownProgram):
		return exitUsage
	default:
		return exitFailure
	}
}
