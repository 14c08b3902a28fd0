package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realestate-ledger/shared"
)

// ConvertedPrice is the outcome of converting one sale into the display
// currency. When Converted is false, Amount is zero and Failure says why.
type ConvertedPrice struct {
	SaleID    uuid.UUID       `json:"saleId"`
	Amount    decimal.Decimal `json:"amount"`
	Converted bool            `json:"converted"`
	Failure   string          `json:"failure,omitempty"`
}

type LedgerOpenedEvent struct {
	BaseEvent
	DisplayCurrency shared.Currency `json:"displayCurrency"`
	BeginDate       time.Time       `json:"beginDate"`
	EndDate         time.Time       `json:"endDate"`
}

type SaleAddedEvent struct {
	BaseEvent
	SaleID   uuid.UUID       `json:"saleId"`
	Country  shared.Country  `json:"country"`
	Price    decimal.Decimal `json:"price"`
	Date     time.Time       `json:"date"`
	Currency shared.Currency `json:"currency"` // Display currency the price was converted into.
	Result   ConvertedPrice  `json:"result"`
	Total    decimal.Decimal `json:"total"`
}

type DisplayCurrencyChangedEvent struct {
	BaseEvent
	PreviousCurrency shared.Currency  `json:"previousCurrency"`
	Currency         shared.Currency  `json:"currency"`
	Prices           []ConvertedPrice `json:"prices"`
	Total            decimal.Decimal  `json:"total"`
}

type DateFilterChangedEvent struct {
	BaseEvent
	BeginDate time.Time       `json:"beginDate"`
	EndDate   time.Time       `json:"endDate"`
	Total     decimal.Decimal `json:"total"`
}

type SalesReresolvedEvent struct {
	BaseEvent
	Currency shared.Currency  `json:"currency"`
	Prices   []ConvertedPrice `json:"prices"`
	Total    decimal.Decimal  `json:"total"`
}
