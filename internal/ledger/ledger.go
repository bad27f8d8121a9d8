// Package ledger is the boundary to the external system of record. Errors
// crossing it carry an explicit kind: permanent errors must not be retried,
// everything else is assumed transient and eats into the attempt budget.
package ledger

import (
	"context"
	"errors"
)

// Ledger appends one finalized order payload. Append either succeeds or
// returns an error; there is no partial outcome.
type Ledger interface {
	Append(ctx context.Context, payload []byte) error
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent tags an error as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was tagged non-retryable.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
