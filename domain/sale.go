package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realestate-ledger/shared"
)

// Sale is one validated real-estate transaction. It is created only through
// NewSale or MakeSale and never changes afterwards; two sales with equal
// fields are still distinct records.
type Sale struct {
	id      uuid.UUID
	country shared.Country
	price   decimal.Decimal
	date    time.Time
}

// NewSale validates its inputs and returns a fully populated Sale.
//
// Checks run in a fixed order (country, calendar date, price) and the first
// failure is returned, wrapped so that errors.Is(err, ErrValidation) holds.
// Month is 1-based and the date is checked strictly: 2021-02-30 is rejected,
// not rolled over into March.
func NewSale(countries CountrySet, country string, price decimal.Decimal, year, month, day int) (Sale, error) {
	code := shared.Country(strings.ToUpper(strings.TrimSpace(country)))
	if !countries.Contains(code) {
		return Sale{}, fmt.Errorf("%w: %q", ErrInvalidCountry, country)
	}

	date, err := CalendarDate(year, month, day)
	if err != nil {
		return Sale{}, err
	}

	if price.IsNegative() {
		return Sale{}, fmt.Errorf("%w: %s", ErrNegativePrice, price.String())
	}

	return Sale{
		id:      uuid.New(),
		country: code,
		price:   price,
		date:    date,
	}, nil
}

// MakeSale is NewSale without the reason: ok is false when any check fails.
func MakeSale(countries CountrySet, country string, price decimal.Decimal, year, month, day int) (Sale, bool) {
	sale, err := NewSale(countries, country, price, year, month, day)
	if err != nil {
		return Sale{}, false
	}
	return sale, true
}

// restoreSale rebuilds a sale that was validated before it entered an event.
func restoreSale(id uuid.UUID, country shared.Country, price decimal.Decimal, date time.Time) Sale {
	return Sale{id: id, country: country, price: price, date: Day(date)}
}

func (s Sale) ID() uuid.UUID           { return s.id }
func (s Sale) Country() shared.Country { return s.country }
func (s Sale) Price() decimal.Decimal  { return s.price }
func (s Sale) Date() time.Time         { return s.date }
func (s Sale) IsZero() bool            { return s.id == uuid.Nil }

func (s Sale) String() string {
	return fmt.Sprintf("%s %s %s", s.date.Format(DateLayout), s.country, s.price.StringFixed(2))
}

const DateLayout = "2006-01-02"

// CalendarDate returns midnight UTC of the given day, rejecting any triple
// that time.Date would have to normalize.
func CalendarDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return t, nil
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return t, nil
}

// Day drops the time-of-day, keeping the calendar day as seen in t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
