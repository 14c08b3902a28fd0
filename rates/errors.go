package rates

import (
	"errors"
	"fmt"
	"strings"

	"realestate-ledger/shared"
)

var (
	// ErrResolution matches every *ResolutionError.
	ErrResolution = errors.New("currency resolution failed")

	ErrTransport       = errors.New("rate source unreachable")
	ErrEmptyBody       = errors.New("rate source returned an empty body")
	ErrNoRate          = errors.New("no rate found in response")
	ErrUnknownCurrency = errors.New("no currency for country")
)

// ResolutionError is the only error type returned by this package. Err holds
// the underlying cause, one of the sentinels above possibly wrapped further.
type ResolutionError struct {
	From    shared.Currency
	To      shared.Currency
	Country shared.Country
	Err     error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(ErrResolution.Error())
	switch {
	case e.Country != "":
		fmt.Fprintf(&b, " for country %q", e.Country)
	case e.From != "" || e.To != "":
		fmt.Fprintf(&b, " for %s -> %s", e.From, e.To)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

func resolutionError(from, to shared.Currency, err error) *ResolutionError {
	return &ResolutionError{From: from, To: to, Err: err}
}
