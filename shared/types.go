package shared

// Currency is an ISO 4217 currency code such as "USD".
type Currency string

// Country is an ISO 3166-1 alpha-2 region code such as "DE".
type Country string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CHF Currency = "CHF"
)
