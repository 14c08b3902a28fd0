package app

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"realestate-ledger/domain"
)

// GenerateSampleSales returns n random valid sales for demonstration: prices
// between 75,000 and 5,075,000 local units, dated 1998 through 2017.
func GenerateSampleSales(rng *rand.Rand, countries domain.CountrySet, n int) []domain.Sale {
	codes := countries.Countries()
	if len(codes) == 0 || n <= 0 {
		return nil
	}

	sales := make([]domain.Sale, 0, n)
	for len(sales) < n {
		price := decimal.NewFromFloat(rng.Float64()*5_000_000 + 75_000).Round(2)
		sale, ok := domain.MakeSale(
			countries,
			string(codes[rng.Intn(len(codes))]),
			price,
			rng.Intn(20)+1998,
			rng.Intn(12)+1,
			rng.Intn(31)+1,
		)
		if !ok {
			// Day 31 of a short month; draw again.
			continue
		}
		sales = append(sales, sale)
	}
	return sales
}
