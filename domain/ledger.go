package domain

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realestate-ledger/events"
	"realestate-ledger/shared"
)

// Conversion is the result of resolving one sale's price into the display
// currency. A non-nil Err marks the sale as unconverted.
type Conversion struct {
	Amount decimal.Decimal
	Err    error
}

func Converted(amount decimal.Decimal) Conversion {
	return Conversion{Amount: amount}
}

func Failed(err error) Conversion {
	if err == nil {
		err = NewDomainError("conversion failed")
	}
	return Conversion{Err: err}
}

// Ledger is the aggregate root holding recorded sales, the display currency,
// the inclusive date filter and the per-sale converted price cache.
//
// Every Handle* method validates its input, emits one event and applies it.
// State only ever changes through ApplyEvent, so replaying the emitted events
// on a fresh Ledger reproduces it exactly.
type Ledger struct {
	ID      string
	Version int

	displayCurrency shared.Currency
	beginDate       time.Time
	endDate         time.Time

	sales    []Sale
	index    map[uuid.UUID]int
	prices   map[uuid.UUID]decimal.Decimal
	failures map[uuid.UUID]string
	total    Money

	changes []events.Event
}

func NewLedger(id string) *Ledger {
	return &Ledger{
		ID:       id,
		index:    make(map[uuid.UUID]int),
		prices:   make(map[uuid.UUID]decimal.Decimal),
		failures: make(map[uuid.UUID]string),
		changes:  make([]events.Event, 0),
	}
}

func (l *Ledger) GetUncommitedChanges() []events.Event {
	unCommittedChanges := l.changes
	l.changes = make([]events.Event, 0)
	return unCommittedChanges
}

func (l *Ledger) handleChange(event events.Event) error {
	if err := l.ApplyEvent(event); err != nil {
		log.Printf("ERROR: Internal Apply failed for event %T on ledger %s: %v", event, l.ID, err)
		return fmt.Errorf("internal error applying event %T: %w", event, err)
	}
	l.changes = append(l.changes, event)
	return nil
}

// --- Command Handlers ---

func (l *Ledger) HandleOpen(currency shared.Currency, begin, end time.Time) error {
	if l.Version > 0 {
		return NewDomainError("ledger %s already opened (version %d)", l.ID, l.Version)
	}
	if l.ID == "" {
		return NewDomainError("ledger ID cannot be empty")
	}
	if currency == "" {
		return NewDomainError("display currency cannot be empty")
	}

	event := events.LedgerOpenedEvent{
		BaseEvent:       events.NewBaseEvent(l.ID, l.Version+1, events.LedgerOpenedType),
		DisplayCurrency: currency,
		BeginDate:       Day(begin),
		EndDate:         Day(end),
	}
	return l.handleChange(event)
}

func (l *Ledger) HandleAddSale(sale Sale, conv Conversion) error {
	if l.Version == 0 {
		return ErrLedgerClosed
	}
	if sale.IsZero() {
		return fmt.Errorf("%w: sale was not built by NewSale", ErrValidation)
	}
	if l.HasSale(sale) {
		return fmt.Errorf("%w: %s", ErrDuplicateSale, sale.ID())
	}

	result := priceOf(sale.ID(), conv)
	total := l.total.Amount
	if result.Converted && l.InRange(sale.Date()) {
		total = total.Add(result.Amount)
	}

	event := events.SaleAddedEvent{
		BaseEvent: events.NewBaseEvent(l.ID, l.Version+1, events.SaleAddedType),
		SaleID:    sale.ID(),
		Country:   sale.Country(),
		Price:     sale.Price(),
		Date:      sale.Date(),
		Currency:  l.displayCurrency,
		Result:    result,
		Total:     total,
	}
	return l.handleChange(event)
}

// HandleChangeDisplayCurrency replaces the whole cache with conversions into
// currency. Sales missing from conversions are recorded as unconverted.
// Changing to the current currency emits nothing.
func (l *Ledger) HandleChangeDisplayCurrency(currency shared.Currency, conversions map[uuid.UUID]Conversion) error {
	if l.Version == 0 {
		return ErrLedgerClosed
	}
	if currency == "" {
		return NewDomainError("display currency cannot be empty")
	}
	if currency == l.displayCurrency {
		return nil
	}

	prices := make([]events.ConvertedPrice, 0, len(l.sales))
	total := decimal.Zero
	for _, sale := range l.sales {
		conv, ok := conversions[sale.ID()]
		if !ok {
			conv = Failed(NewDomainError("no conversion supplied for sale %s", sale.ID()))
		}
		p := priceOf(sale.ID(), conv)
		prices = append(prices, p)
		if p.Converted && l.InRange(sale.Date()) {
			total = total.Add(p.Amount)
		}
	}

	event := events.DisplayCurrencyChangedEvent{
		BaseEvent:        events.NewBaseEvent(l.ID, l.Version+1, events.DisplayCurrencyChangedType),
		PreviousCurrency: l.displayCurrency,
		Currency:         currency,
		Prices:           prices,
		Total:            total,
	}
	return l.handleChange(event)
}

// HandleSetDateRange moves the inclusive filter. Cached prices are untouched.
// A begin after end is accepted and simply selects no sales.
func (l *Ledger) HandleSetDateRange(begin, end time.Time) error {
	if l.Version == 0 {
		return ErrLedgerClosed
	}
	begin, end = Day(begin), Day(end)

	total := decimal.Zero
	for _, sale := range l.sales {
		if !l.IsConverted(sale) || sale.Date().Before(begin) || sale.Date().After(end) {
			continue
		}
		total = total.Add(l.prices[sale.ID()])
	}

	event := events.DateFilterChangedEvent{
		BaseEvent: events.NewBaseEvent(l.ID, l.Version+1, events.DateFilterChangedType),
		BeginDate: begin,
		EndDate:   end,
		Total:     total,
	}
	return l.handleChange(event)
}

// HandleReresolve records fresh conversions for currently unconverted sales.
// Conversions for sales that are already converted are ignored; if nothing
// succeeds no event is emitted.
func (l *Ledger) HandleReresolve(conversions map[uuid.UUID]Conversion) error {
	if l.Version == 0 {
		return ErrLedgerClosed
	}

	prices := make([]events.ConvertedPrice, 0, len(conversions))
	total := l.total.Amount
	for _, sale := range l.sales {
		conv, ok := conversions[sale.ID()]
		if !ok || l.IsConverted(sale) || conv.Err != nil {
			continue
		}
		p := priceOf(sale.ID(), conv)
		prices = append(prices, p)
		if l.InRange(sale.Date()) {
			total = total.Add(p.Amount)
		}
	}
	if len(prices) == 0 {
		return nil
	}

	event := events.SalesReresolvedEvent{
		BaseEvent: events.NewBaseEvent(l.ID, l.Version+1, events.SalesReresolvedType),
		Currency:  l.displayCurrency,
		Prices:    prices,
		Total:     total,
	}
	return l.handleChange(event)
}

func (l *Ledger) ApplyEvent(event events.Event) error {
	base := event.GetBase()

	if base.Version != l.Version+1 {
		return fmt.Errorf("apply failed: event version mismatch for ledger %s: expected %d, got %d for event %T (%s)",
			l.ID, l.Version+1, base.Version, event, base.EventID)
	}

	var expectedTotal *decimal.Decimal
	switch e := event.(type) {
	case events.LedgerOpenedEvent:
		l.ID = e.LedgerID
		l.displayCurrency = e.DisplayCurrency
		l.beginDate = e.BeginDate
		l.endDate = e.EndDate
		l.sales = nil
		l.index = make(map[uuid.UUID]int)
		l.prices = make(map[uuid.UUID]decimal.Decimal)
		l.failures = make(map[uuid.UUID]string)
	case events.SaleAddedEvent:
		if _, dup := l.index[e.SaleID]; dup {
			return fmt.Errorf("apply failed: sale %s already present in ledger %s", e.SaleID, l.ID)
		}
		l.index[e.SaleID] = len(l.sales)
		l.sales = append(l.sales, restoreSale(e.SaleID, e.Country, e.Price, e.Date))
		l.applyPrice(e.Result)
		expectedTotal = &e.Total
	case events.DisplayCurrencyChangedEvent:
		l.displayCurrency = e.Currency
		l.prices = make(map[uuid.UUID]decimal.Decimal, len(e.Prices))
		l.failures = make(map[uuid.UUID]string)
		for _, p := range e.Prices {
			l.applyPrice(p)
		}
		expectedTotal = &e.Total
	case events.DateFilterChangedEvent:
		l.beginDate = e.BeginDate
		l.endDate = e.EndDate
		expectedTotal = &e.Total
	case events.SalesReresolvedEvent:
		for _, p := range e.Prices {
			l.applyPrice(p)
		}
		expectedTotal = &e.Total
	default:
		return fmt.Errorf("apply failed: unknown event type %T for ledger %s", event, l.ID)
	}

	l.updateTotal()
	if expectedTotal != nil && !expectedTotal.Equal(l.total.Amount) {
		log.Printf("Warning: Ledger %s total after %T (v%d) is %s, event recorded %s. Keeping recomputed total.",
			l.ID, event, base.Version, l.total.Amount.String(), expectedTotal.String())
	}

	l.Version = base.Version
	return nil
}

func (l *Ledger) ApplyEvents(history []events.Event) error {
	for _, event := range history {
		if err := l.ApplyEvent(event); err != nil {
			base := event.GetBase()
			return fmt.Errorf("failed to apply event %s (%T) at version %d during reconstruction: %w", base.EventID, event, base.Version, err)
		}
	}
	return nil
}

func (l *Ledger) applyPrice(p events.ConvertedPrice) {
	if _, known := l.index[p.SaleID]; !known {
		log.Printf("Warning: Ledger %s ignoring price for unknown sale %s", l.ID, p.SaleID)
		return
	}
	if p.Converted {
		l.prices[p.SaleID] = p.Amount
		delete(l.failures, p.SaleID)
		return
	}
	delete(l.prices, p.SaleID)
	l.failures[p.SaleID] = p.Failure
}

// updateTotal recomputes the total from its definition: the sum of cached
// converted prices of sales dated within [beginDate, endDate].
func (l *Ledger) updateTotal() {
	total := decimal.Zero
	for _, sale := range l.sales {
		amount, ok := l.prices[sale.ID()]
		if !ok || !l.InRange(sale.Date()) {
			continue
		}
		total = total.Add(amount)
	}
	l.total = NewMoney(total, l.displayCurrency)
}

func priceOf(id uuid.UUID, conv Conversion) events.ConvertedPrice {
	if conv.Err != nil {
		return events.ConvertedPrice{SaleID: id, Amount: decimal.Zero, Failure: conv.Err.Error()}
	}
	return events.ConvertedPrice{SaleID: id, Amount: conv.Amount, Converted: true}
}

// --- Queries ---

func (l *Ledger) DisplayCurrency() shared.Currency {
	return l.displayCurrency
}

func (l *Ledger) DateRange() (begin, end time.Time) {
	return l.beginDate, l.endDate
}

// InRange reports whether date falls inside the inclusive filter.
func (l *Ledger) InRange(date time.Time) bool {
	return !date.Before(l.beginDate) && !date.After(l.endDate)
}

func (l *Ledger) Sales() []Sale {
	out := make([]Sale, len(l.sales))
	copy(out, l.sales)
	return out
}

func (l *Ledger) Len() int {
	return len(l.sales)
}

func (l *Ledger) HasSale(sale Sale) bool {
	_, ok := l.index[sale.ID()]
	return ok
}

// ConvertedPrice returns the cached price of sale in the display currency,
// or zero when the sale is unknown or could not be converted.
func (l *Ledger) ConvertedPrice(sale Sale) decimal.Decimal {
	amount, ok := l.prices[sale.ID()]
	if !ok {
		return decimal.Zero
	}
	return amount
}

func (l *Ledger) IsConverted(sale Sale) bool {
	_, ok := l.prices[sale.ID()]
	return ok
}

// Failure returns the recorded reason a sale is unconverted, if any.
func (l *Ledger) Failure(sale Sale) (string, bool) {
	reason, ok := l.failures[sale.ID()]
	return reason, ok
}

// Unconverted lists, in insertion order, the sales excluded from the total
// because their conversion failed.
func (l *Ledger) Unconverted() []Sale {
	var out []Sale
	for _, sale := range l.sales {
		if _, failed := l.failures[sale.ID()]; failed {
			out = append(out, sale)
		}
	}
	return out
}

func (l *Ledger) Total() Money {
	return l.total
}
