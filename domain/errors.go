package domain

import "fmt"

type DomainError struct {
	message string
	parent  error
}

func NewDomainError(format string, args ...interface{}) *DomainError {
	return &DomainError{message: fmt.Sprintf(format, args...)}
}

func newValidationError(message string) *DomainError {
	return &DomainError{message: message, parent: ErrValidation}
}

func (e *DomainError) Error() string {
	return e.message
}

func (e *DomainError) Unwrap() error {
	return e.parent
}

var (
	ErrValidation = NewDomainError("invalid sale")

	ErrInvalidCountry = newValidationError("unsupported country")
	ErrInvalidDate    = newValidationError("invalid calendar date")
	ErrNegativePrice  = newValidationError("price cannot be negative")

	ErrDuplicateSale = NewDomainError("sale already recorded")
	ErrLedgerClosed  = NewDomainError("ledger not opened")
)
