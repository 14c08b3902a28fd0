package rates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"realestate-ledger/shared"
)

// Static resolves from a fixed in-memory rate table. Inverse pairs are
// derived when only one direction is known. It ignores asOf.
type Static struct {
	mu    sync.Mutex
	rates map[string]decimal.Decimal
	fails map[string]error
	calls int
}

func NewStatic() *Static {
	return &Static{
		rates: make(map[string]decimal.Decimal),
		fails: make(map[string]error),
	}
}

func pairKey(from, to shared.Currency) string {
	return string(from) + "/" + string(to)
}

// Set records the price of one unit of from in to.
func (s *Static) Set(from, to shared.Currency, rate decimal.Decimal) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[pairKey(from, to)] = rate
	delete(s.fails, pairKey(from, to))
	return s
}

// Fail makes lookups of the pair fail with err until Set is called for it.
func (s *Static) Fail(from, to shared.Currency, err error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrTransport
	}
	s.fails[pairKey(from, to)] = err
	return s
}

// Calls counts lookups that reached the table, i.e. every Resolve with
// from != to.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Static) Resolve(ctx context.Context, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := ctx.Err(); err != nil {
		return decimal.Zero, resolutionError(from, to, fmt.Errorf("%w: %v", ErrTransport, err))
	}
	if err, ok := s.fails[pairKey(from, to)]; ok {
		return decimal.Zero, resolutionError(from, to, err)
	}
	if rate, ok := s.rates[pairKey(from, to)]; ok {
		return rate.Mul(amount), nil
	}
	if inverse, ok := s.rates[pairKey(to, from)]; ok && !inverse.IsZero() {
		return amount.Div(inverse), nil
	}
	return decimal.Zero, resolutionError(from, to, ErrNoRate)
}
