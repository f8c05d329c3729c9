package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a failed call to the POS API.
	ErrUpstream = errors.New("upstream unavailable")
)

// Control gate codes returned to the client so it can prompt for the missing step.
const (
	CodeCountRequired        = "COUNT_REQUIRED"
	CodeDeclarationRequired  = "DECLARATION_REQUIRED"
	CodeShiftAlreadyOpen     = "SHIFT_ALREADY_OPEN"
	CodeShiftNotOpen         = "SHIFT_NOT_OPEN"
	CodeReconciliationLocked = "RECONCILIATION_LOCKED"
	CodeCountAlreadyDone     = "COUNT_ALREADY_COMPLETED"
	CodeCountNotInProgress   = "COUNT_NOT_IN_PROGRESS"
	CodeDispatchNotSent      = "DISPATCH_NOT_SENT"
)

// CodedError carries a machine-readable code next to the wrapped sentinel.
// Kind is ErrValidation for control gates and ErrConflict for state conflicts.
type CodedError struct {
	Kind    error
	Code    string
	Message string
}

func (e *CodedError) Error() string { return e.Message }

func (e *CodedError) Unwrap() error { return e.Kind }

func controlGate(code, msg string) error {
	return &CodedError{Kind: ErrValidation, Code: code, Message: msg}
}

func conflict(code, msg string) error {
	return &CodedError{Kind: ErrConflict, Code: code, Message: msg}
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrValidation)
}
