package rates

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"realestate-ledger/shared"
)

// CurrencyFor returns the currency that is legal tender in country according
// to the CLDR data bundled with golang.org/x/text.
func CurrencyFor(country shared.Country) (shared.Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(string(country)))
	if len(code) != 2 {
		return "", &ResolutionError{Country: country, Err: fmt.Errorf("%w: %q is not a two-letter region code", ErrUnknownCurrency, country)}
	}

	region, err := language.ParseRegion(code)
	if err != nil {
		return "", &ResolutionError{Country: country, Err: fmt.Errorf("%w: %v", ErrUnknownCurrency, err)}
	}

	unit, ok := currency.FromRegion(region)
	if !ok {
		return "", &ResolutionError{Country: country, Err: fmt.Errorf("%w: region %s has no legal tender", ErrUnknownCurrency, region)}
	}
	return shared.Currency(unit.String()), nil
}

// ParseCurrency validates an ISO 4217 code and returns it in canonical form.
func ParseCurrency(s string) (shared.Currency, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return "", &ResolutionError{To: shared.Currency(s), Err: fmt.Errorf("%w: %v", ErrUnknownCurrency, err)}
	}
	return shared.Currency(unit.String()), nil
}
