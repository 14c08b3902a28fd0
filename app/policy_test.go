package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-ledger/app"
	"realestate-ledger/rates"
	"realestate-ledger/shared"
)

// resolverFunc adapts a function to rates.Resolver.
type resolverFunc func(ctx context.Context, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error)

func (f resolverFunc) Resolve(ctx context.Context, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error) {
	return f(ctx, from, to, amount, asOf)
}

// flaky fails with a transport error the first n calls, then doubles amounts.
func flaky(n int32, calls *atomic.Int32) rates.Resolver {
	return resolverFunc(func(ctx context.Context, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error) {
		if calls.Add(1) <= n {
			return decimal.Zero, &rates.ResolutionError{From: from, To: to, Err: fmt.Errorf("%w: connection reset", rates.ErrTransport)}
		}
		return amount.Mul(decimal.NewFromInt(2)), nil
	})
}

func TestResolvePolicy_Retries(t *testing.T) {
	ctx := context.Background()

	t.Run("RecoversWithinBudget", func(t *testing.T) {
		var calls atomic.Int32
		got, err := app.ResolvePolicy{Retries: 2}.Resolve(ctx, flaky(2, &calls), shared.EUR, shared.USD, dec("5"), nil)
		require.NoError(t, err)
		assert.True(t, got.Equal(dec("10")))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("GivesUp", func(t *testing.T) {
		var calls atomic.Int32
		_, err := app.ResolvePolicy{Retries: 1}.Resolve(ctx, flaky(5, &calls), shared.EUR, shared.USD, dec("5"), nil)
		assert.ErrorIs(t, err, rates.ErrTransport)
		assert.ErrorIs(t, err, rates.ErrResolution)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("ZeroValueTriesOnce", func(t *testing.T) {
		var calls atomic.Int32
		_, err := app.ResolvePolicy{}.Resolve(ctx, flaky(1, &calls), shared.EUR, shared.USD, dec("5"), nil)
		assert.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("NoRetryOnMissingRate", func(t *testing.T) {
		table := rates.NewStatic()
		_, err := app.ResolvePolicy{Retries: 3}.Resolve(ctx, table, shared.EUR, shared.USD, dec("5"), nil)
		assert.ErrorIs(t, err, rates.ErrNoRate)
		assert.Equal(t, 1, table.Calls())
	})

	t.Run("CanceledBetweenAttempts", func(t *testing.T) {
		var calls atomic.Int32
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := app.ResolvePolicy{Retries: 5, Backoff: time.Hour}.Resolve(cctx, flaky(10, &calls), shared.EUR, shared.USD, dec("5"), nil)
		assert.ErrorIs(t, err, rates.ErrResolution)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestResolvePolicy_Timeout(t *testing.T) {
	var deadline atomic.Bool
	r := resolverFunc(func(ctx context.Context, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error) {
		_, ok := ctx.Deadline()
		deadline.Store(ok)
		return amount, nil
	})

	_, err := app.ResolvePolicy{Timeout: time.Minute}.Resolve(context.Background(), r, shared.EUR, shared.USD, dec("1"), nil)
	require.NoError(t, err)
	assert.True(t, deadline.Load())
}

func TestResolvePolicy_PanicBecomesError(t *testing.T) {
	r := resolverFunc(func(ctx context.Context, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error) {
		panic("nil map")
	})

	got, err := app.ResolvePolicy{}.Resolve(context.Background(), r, shared.EUR, shared.USD, dec("1"), nil)
	assert.True(t, got.IsZero())
	assert.ErrorIs(t, err, rates.ErrTransport)

	var resErr *rates.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, shared.EUR, resErr.From)
}
