package app

import (
	"github.com/shopspring/decimal"
)

// --- Command Struct Definitions ---

// RecordSaleCommand carries raw user input for a new sale. Month is 1-based.
type RecordSaleCommand struct {
	Country string
	Price   decimal.Decimal
	Year    int
	Month   int
	Day     int
}

// --- Query Structures ---

type GetHistoryQuery struct {
	Limit int
	Skip  int
}
