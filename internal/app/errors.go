/**
 * @description
 * This file defines the typed errors the transition engine surfaces to its
 * callers. Handlers map these onto HTTP statuses; every denial carries enough
 * structure for the frontend to render a specific message rather than a
 * generic failure string.
 */
package app

import (
	"errors"
	"fmt"

	"github.com/transfa/admin-service/internal/domain"
)

// ErrAlreadyInFlight is returned when the same (account, action) transition
// is requested while a previous one has not completed.
var ErrAlreadyInFlight = errors.New("transition already in flight for this account and action")

// ErrEmptySelection is returned when a bulk operation is called with no ids.
// An empty selection is a usage error, not a no-op success.
var ErrEmptySelection = errors.New("bulk selection is empty")

// ErrNotFound is returned when the target account is absent from the current
// directory.
var ErrNotFound = errors.New("account not found in directory")

// PermissionDeniedError reports which rule blocked a transition.
type PermissionDeniedError struct {
	Reason domain.DenialReason
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

// StoreError wraps a failure from the account store. The engine does not
// retry; the cause passes through for the caller to report.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("account store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
