package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"realestate-ledger/rates"
	"realestate-ledger/shared"
)

// ResolvePolicy is the retry and timeout policy the ledger applies around a
// single rates.Resolver call. The zero value makes one attempt with no
// deadline of its own.
type ResolvePolicy struct {
	Retries int           // extra attempts after a transport failure
	Backoff time.Duration // pause between attempts
	Timeout time.Duration // per-attempt deadline
}

// Resolve calls r until it succeeds, fails with something other than a
// transport error, or runs out of attempts. The returned error always matches
// rates.ErrResolution.
func (p ResolvePolicy) Resolve(ctx context.Context, r rates.Resolver, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error) {
	attempts := p.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return decimal.Zero, asResolutionError(from, to, lastErr)
			case <-time.After(p.Backoff):
			}
		}

		converted, err := p.attempt(ctx, r, from, to, amount, asOf)
		if err == nil {
			return converted, nil
		}
		lastErr = err
		if !errors.Is(err, rates.ErrTransport) {
			break
		}
		log.Printf("Warning: Rate lookup %s -> %s failed (attempt %d/%d): %v", from, to, i+1, attempts, err)
	}
	return decimal.Zero, asResolutionError(from, to, lastErr)
}

func (p ResolvePolicy) attempt(ctx context.Context, r rates.Resolver, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (converted decimal.Decimal, err error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("ERROR: Resolver panicked for %s -> %s: %v", from, to, rec)
			converted, err = decimal.Zero, fmt.Errorf("%w: resolver panic: %v", rates.ErrTransport, rec)
		}
	}()

	return r.Resolve(ctx, from, to, amount, asOf)
}

func asResolutionError(from, to shared.Currency, err error) error {
	if err == nil {
		err = rates.ErrTransport
	}
	if errors.Is(err, rates.ErrResolution) {
		return err
	}
	return &rates.ResolutionError{From: from, To: to, Err: err}
}
