/*
errors.go - Error taxonomy for the leave workflow

CATEGORIES:
 1. Validation errors - rejected before submission (missing field, bad dates,
    unknown type, insufficient balance)
 2. Transition errors - illegal state-machine moves (invalid transition,
    already processed, forbidden actor)
 3. Integrity errors  - data that should be impossible (negative balance);
    surfaced loudly, never silently corrected

Transport errors live in the client package; pure workflow code never sees
the network.

USAGE:

	if errors.Is(err, workflow.ErrInsufficientBalance) { ... }

	var ib *workflow.InsufficientBalanceError
	if errors.As(err, &ib) { fmt.Println(ib.Available, ib.Requested) }
*/
package workflow

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingField is returned when a submission lacks a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidDateRange is returned when dates are unparseable, out of
	// order, or start in the past.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnknownLeaveType is returned when the referenced type does not exist.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	// ErrInsufficientBalance is returned when a balance-based request exceeds
	// the available allowance.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrInvalidTransition is returned for any state-machine move the current
	// status does not permit. State is never mutated on this error.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyProcessed is returned when re-processing a terminal request.
	ErrAlreadyProcessed = errors.New("request already processed")

	// ErrForbidden is returned when the actor is not eligible for the action.
	ErrForbidden = errors.New("actor not permitted")

	// ErrNegativeBalance is a data-integrity failure: a ledger mutation would
	// drive used days below zero. Callers must surface it, not clamp and move on.
	ErrNegativeBalance = errors.New("balance integrity violation: used days below zero")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingFieldError names the first absent submission field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// InvalidDateRangeError explains why the requested span was rejected.
type InvalidDateRangeError struct {
	Start  Date
	End    Date
	Reason string
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid date range %s..%s: %s", e.Start, e.End, e.Reason)
}

func (e *InvalidDateRangeError) Unwrap() error { return ErrInvalidDateRange }

// InsufficientBalanceError reports the shortfall for a balance-based request.
type InsufficientBalanceError struct {
	TypeID    int
	Available decimal.Decimal
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for type %d: available %s, requested %d days",
		e.TypeID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// TransitionError records an illegal state-machine move.
type TransitionError struct {
	From   Status
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a request in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	if e.From.Terminal() {
		return ErrAlreadyProcessed
	}
	return ErrInvalidTransition
}

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsValidationError reports whether err is a pre-submission rejection the
// requester can fix locally.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrUnknownLeaveType) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsTransitionError reports whether err is a state-machine rejection.
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadyProcessed) ||
		errors.Is(err, ErrForbidden)
}

// IsIntegrityError reports whether err indicates corrupted data that must be
// surfaced to an operator.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrNegativeBalance)
}
