package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SortKey selects the ordering used when listing sales.
type SortKey int

const (
	SortByDate SortKey = iota
	SortByPrice
	SortByCountry
)

var sortKeyNames = map[SortKey]string{
	SortByDate:    "date",
	SortByPrice:   "price",
	SortByCountry: "country",
}

func (k SortKey) String() string {
	if name, ok := sortKeyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range sortKeyNames {
		if name == s {
			return k, nil
		}
	}
	return 0, NewDomainError("unknown sort key %q (want date, price or country)", s)
}

// PriceFunc reports the price a sale should be compared by.
type PriceFunc func(Sale) decimal.Decimal

// Ordering returns a comparison for slices.SortStableFunc. Price ordering
// compares priceOf(sale), which lets callers rank by converted price rather
// than by amounts in unrelated local currencies; a nil priceOf falls back to
// the local price.
func (k SortKey) Ordering(priceOf PriceFunc) func(a, b Sale) int {
	switch k {
	case SortByPrice:
		if priceOf == nil {
			priceOf = Sale.Price
		}
		return func(a, b Sale) int {
			return priceOf(a).Cmp(priceOf(b))
		}
	case SortByCountry:
		return func(a, b Sale) int {
			return strings.Compare(string(a.country), string(b.country))
		}
	default:
		return func(a, b Sale) int {
			return a.date.Compare(b.date)
		}
	}
}
