package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-ledger/domain"
	"realestate-ledger/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewSale(t *testing.T) {
	countries := domain.DefaultCountrySet()

	t.Run("ValidInputIsEchoed", func(t *testing.T) {
		sale, err := domain.NewSale(countries, "DE", dec("100"), 2020, 1, 1)
		require.NoError(t, err)

		assert.Equal(t, shared.Country("DE"), sale.Country())
		assert.True(t, sale.Price().Equal(dec("100")))
		assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), sale.Date())
		assert.False(t, sale.IsZero())
	})

	t.Run("CountryIsUpperCased", func(t *testing.T) {
		sale, err := domain.NewSale(countries, " fr ", dec("1"), 2019, 5, 17)
		require.NoError(t, err)
		assert.Equal(t, shared.Country("FR"), sale.Country())
	})

	t.Run("ZeroPriceAllowed", func(t *testing.T) {
		_, err := domain.NewSale(countries, "US", decimal.Zero, 2001, 2, 28)
		assert.NoError(t, err)
	})

	t.Run("EqualFieldsAreDistinctSales", func(t *testing.T) {
		a, err := domain.NewSale(countries, "US", dec("5"), 2001, 2, 28)
		require.NoError(t, err)
		b, err := domain.NewSale(countries, "US", dec("5"), 2001, 2, 28)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID(), b.ID())
	})

	tests := []struct {
		name    string
		country string
		price   string
		y, m, d int
		want    error
	}{
		{"UnknownCountry", "XX", "100", 2020, 1, 1, domain.ErrInvalidCountry},
		{"EmptyCountry", "", "100", 2020, 1, 1, domain.ErrInvalidCountry},
		{"ThreeLetterCountry", "DEU", "100", 2020, 1, 1, domain.ErrInvalidCountry},
		{"DayOutOfRange", "DE", "100", 2020, 1, 50, domain.ErrInvalidDate},
		{"MonthZero", "DE", "100", 2020, 0, 10, domain.ErrInvalidDate},
		{"MonthThirteen", "DE", "100", 2020, 13, 10, domain.ErrInvalidDate},
		{"February30", "DE", "100", 2021, 2, 30, domain.ErrInvalidDate},
		{"NonLeapFebruary29", "DE", "100", 2019, 2, 29, domain.ErrInvalidDate},
		{"NegativePrice", "DE", "-1", 2020, 1, 1, domain.ErrNegativePrice},
		// Country is checked before the date, the date before the price.
		{"CountryBeforeDate", "XX", "100", 2020, 1, 50, domain.ErrInvalidCountry},
		{"DateBeforePrice", "DE", "-1", 2020, 1, 50, domain.ErrInvalidDate},
		{"CountryBeforePrice", "XX", "-1", 2020, 1, 1, domain.ErrInvalidCountry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale, err := domain.NewSale(countries, tt.country, dec(tt.price), tt.y, tt.m, tt.d)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.True(t, sale.IsZero())

			_, ok := domain.MakeSale(countries, tt.country, dec(tt.price), tt.y, tt.m, tt.d)
			assert.False(t, ok)
		})
	}

	t.Run("LeapDayAccepted", func(t *testing.T) {
		sale, ok := domain.MakeSale(countries, "GB", dec("250000"), 2020, 2, 29)
		require.True(t, ok)
		assert.Equal(t, time.February, sale.Date().Month())
	})

	t.Run("RestrictedCountrySet", func(t *testing.T) {
		only := domain.NewCountrySet("jp")
		_, err := domain.NewSale(only, "DE", dec("1"), 2020, 1, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidCountry)

		_, err = domain.NewSale(only, "JP", dec("1"), 2020, 1, 1)
		assert.NoError(t, err)
	})
}

func TestCalendarDate(t *testing.T) {
	d, err := domain.CalendarDate(1999, 12, 31)
	require.NoError(t, err)
	assert.Equal(t, "1999-12-31", d.Format(domain.DateLayout))

	_, err = domain.CalendarDate(2020, 4, 31)
	assert.True(t, errors.Is(err, domain.ErrInvalidDate))
}

func TestParseDate(t *testing.T) {
	d, err := domain.ParseDate(" 2020-06-01 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = domain.ParseDate("2020-02-30")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = domain.ParseDate("06/01/2020")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestDay(t *testing.T) {
	in := time.Date(2020, time.March, 14, 23, 59, 0, 0, time.FixedZone("X", 5*3600))
	assert.Equal(t, time.Date(2020, time.March, 14, 0, 0, 0, 0, time.UTC), domain.Day(in))
}

func TestCountrySet(t *testing.T) {
	set := domain.DefaultCountrySet()
	assert.Equal(t, len(domain.DefaultCountryCodes), set.Len())
	assert.True(t, set.Contains("US"))
	assert.False(t, set.Contains("us"), "lookups are exact; callers upper-case")
	assert.False(t, set.Contains("RU"))

	custom := domain.NewCountrySet("us", " de", "", "US")
	assert.Equal(t, 2, custom.Len())
	assert.Equal(t, []shared.Country{"DE", "US"}, custom.Countries())

	var zero domain.CountrySet
	assert.False(t, zero.Contains("US"))
	assert.Empty(t, zero.Countries())
}

func TestMoney(t *testing.T) {
	a := domain.NewMoney(dec("1.5"), shared.EUR)
	sum, err := a.Add(domain.NewMoney(dec("2.25"), shared.EUR))
	require.NoError(t, err)
	assert.Equal(t, "3.75 EUR", sum.String())

	_, err = a.Add(domain.NewMoney(dec("1"), shared.USD))
	assert.Error(t, err)

	assert.True(t, domain.NewMoney(decimal.Zero, shared.USD).IsZero())
}
