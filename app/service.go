package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realestate-ledger/domain"
	"realestate-ledger/events"
	"realestate-ledger/rates"
	"realestate-ledger/shared"
	"realestate-ledger/store"
)

// Options configure a LedgerService. Zero fields take the defaults noted.
type Options struct {
	LedgerID        string          // generated when empty
	DisplayCurrency shared.Currency // USD when empty
	BeginDate       time.Time       // 1980-01-01 when zero
	EndDate         time.Time       // today when zero
	Countries       domain.CountrySet
	// Historical converts each sale at the rate of its own date instead of
	// the latest rate.
	Historical bool
	Policy     ResolvePolicy
	// CurrencyFor maps a sale's country to its local currency;
	// rates.CurrencyFor when nil.
	CurrencyFor func(shared.Country) (shared.Currency, error)
}

// LedgerService is the application layer in front of the Ledger aggregate.
// It resolves conversions, hands the results to the aggregate, journals the
// resulting events and notifies subscribers.
//
// All operations are serialized. A mutation holds the lock across its
// resolver calls, so readers never see a half rebuilt cache. Subscribers run
// after the lock is released, in event order, on the goroutine of the
// mutation that produced the events. They may call the query methods but
// must not start another mutation.
type LedgerService struct {
	mu sync.Mutex
	// nextBatch numbers committed event batches. Guarded by mu.
	nextBatch uint64

	// published counts the batches handed to the bus. Guarded by publishMu.
	publishMu   sync.Mutex
	publishCond *sync.Cond
	published   uint64

	ledger      *domain.Ledger
	resolver    rates.Resolver
	eventStore  store.EventStore
	bus         *events.Bus
	countries   domain.CountrySet
	currencyFor func(shared.Country) (shared.Currency, error)
	historical  bool
	policy      ResolvePolicy
}

func NewLedgerService(resolver rates.Resolver, es store.EventStore, opts Options) (*LedgerService, error) {
	if resolver == nil || es == nil {
		log.Fatal("FATAL: Resolver and EventStore must not be nil")
	}

	if opts.LedgerID == "" {
		opts.LedgerID = uuid.NewString()
		log.Printf("No LedgerID provided, generated new ID: %s", opts.LedgerID)
	}
	if opts.DisplayCurrency == "" {
		opts.DisplayCurrency = shared.USD
	}
	display, err := rates.ParseCurrency(string(opts.DisplayCurrency))
	if err != nil {
		return nil, fmt.Errorf("invalid display currency: %w", err)
	}
	opts.DisplayCurrency = display
	if opts.BeginDate.IsZero() {
		opts.BeginDate = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.EndDate.IsZero() {
		opts.EndDate = time.Now()
	}
	if opts.Countries.Len() == 0 {
		opts.Countries = domain.DefaultCountrySet()
	}
	if opts.CurrencyFor == nil {
		opts.CurrencyFor = rates.CurrencyFor
	}

	s := &LedgerService{
		ledger:      domain.NewLedger(opts.LedgerID),
		resolver:    resolver,
		eventStore:  es,
		bus:         events.NewBus(),
		countries:   opts.Countries,
		currencyFor: opts.CurrencyFor,
		historical:  opts.Historical,
		policy:      opts.Policy,
	}
	s.publishCond = sync.NewCond(&s.publishMu)

	if err := s.ledger.HandleOpen(opts.DisplayCurrency, opts.BeginDate, opts.EndDate); err != nil {
		return nil, fmt.Errorf("ledger creation failed validation: %w", err)
	}
	if _, err := s.commit(0); err != nil {
		return nil, err
	}

	begin, end := s.ledger.DateRange()
	log.Printf("Ledger %s opened. Display currency: %s, range %s..%s",
		s.ledger.ID, opts.DisplayCurrency, begin.Format(domain.DateLayout), end.Format(domain.DateLayout))
	return s, nil
}

// --- Command Handlers ---

// RecordSale validates raw input into a Sale and adds it.
func (s *LedgerService) RecordSale(ctx context.Context, cmd RecordSaleCommand) (domain.Sale, error) {
	sale, err := domain.NewSale(s.countries, cmd.Country, cmd.Price, cmd.Year, cmd.Month, cmd.Day)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("sale rejected: %w", err)
	}
	if err := s.AddSale(ctx, sale); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

// AddSale records sale and caches its price in the display currency. A
// failed conversion does not fail the call: the sale is kept, flagged as
// unconverted and left out of the total.
func (s *LedgerService) AddSale(ctx context.Context, sale domain.Sale) error {
	s.mu.Lock()

	if s.ledger.HasSale(sale) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSale, sale.ID())
	}

	initialVersion := s.ledger.Version
	conv := s.convert(ctx, sale, s.ledger.DisplayCurrency())

	if err := s.ledger.HandleAddSale(sale, conv); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("add sale command failed for ledger %s: %w", s.ledger.ID, err)
	}

	changes, err := s.commit(initialVersion)
	log.Printf("Sale %s (%s) added to ledger %s. Converted: %t. Total: %s. New Version: %d",
		sale.ID(), sale, s.ledger.ID, conv.Err == nil, s.ledger.Total(), s.ledger.Version)
	s.release(changes)
	return err
}

// SeedSales adds each sale in order, stopping at the first error.
func (s *LedgerService) SeedSales(ctx context.Context, sales []domain.Sale) error {
	for _, sale := range sales {
		if err := s.AddSale(ctx, sale); err != nil {
			return err
		}
	}
	return nil
}

// SetDisplayCurrency converts every sale into currency and replaces the
// cache. Setting the current currency again does nothing.
func (s *LedgerService) SetDisplayCurrency(ctx context.Context, currency shared.Currency) error {
	if currency == "" {
		return domain.NewDomainError("display currency cannot be empty")
	}
	currency, err := rates.ParseCurrency(string(currency))
	if err != nil {
		return fmt.Errorf("invalid display currency: %w", err)
	}

	s.mu.Lock()

	if currency == s.ledger.DisplayCurrency() {
		s.mu.Unlock()
		log.Printf("SetDisplayCurrency for %s resulted in no state change (already %s).", s.ledgerID(), currency)
		return nil
	}

	initialVersion := s.ledger.Version
	sales := s.ledger.Sales()
	conversions := make(map[uuid.UUID]domain.Conversion, len(sales))
	failed := 0
	for _, sale := range sales {
		conv := s.convert(ctx, sale, currency)
		if conv.Err != nil {
			failed++
		}
		conversions[sale.ID()] = conv
	}

	previous := s.ledger.DisplayCurrency()
	if err := s.ledger.HandleChangeDisplayCurrency(currency, conversions); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("display currency change failed for ledger %s: %w", s.ledger.ID, err)
	}

	changes, err := s.commit(initialVersion)
	log.Printf("Ledger %s display currency %s -> %s. %d sales, %d unconverted. Total: %s. New Version: %d",
		s.ledger.ID, previous, currency, len(sales), failed, s.ledger.Total(), s.ledger.Version)
	s.release(changes)
	return err
}

// SetDisplayCountry switches to the currency that is legal tender in country.
func (s *LedgerService) SetDisplayCountry(ctx context.Context, country shared.Country) error {
	currency, err := s.currencyFor(country)
	if err != nil {
		return fmt.Errorf("cannot display in currency of %s: %w", country, err)
	}
	return s.SetDisplayCurrency(ctx, currency)
}

// SetBeginDate moves the lower, inclusive bound of the total. No rates are
// looked up.
func (s *LedgerService) SetBeginDate(date time.Time) error {
	s.mu.Lock()
	_, end := s.ledger.DateRange()
	return s.setDateRangeLocked(date, end)
}

// SetEndDate moves the upper, inclusive bound of the total. No rates are
// looked up.
func (s *LedgerService) SetEndDate(date time.Time) error {
	s.mu.Lock()
	begin, _ := s.ledger.DateRange()
	return s.setDateRangeLocked(begin, date)
}

func (s *LedgerService) setDateRangeLocked(begin, end time.Time) error {
	initialVersion := s.ledger.Version
	if err := s.ledger.HandleSetDateRange(begin, end); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("date filter change failed for ledger %s: %w", s.ledger.ID, err)
	}

	changes, err := s.commit(initialVersion)
	b, e := s.ledger.DateRange()
	log.Printf("Ledger %s date filter %s..%s. Total: %s. New Version: %d",
		s.ledger.ID, b.Format(domain.DateLayout), e.Format(domain.DateLayout), s.ledger.Total(), s.ledger.Version)
	s.release(changes)
	return err
}

// Reresolve retries the conversion of every unconverted sale and returns
// how many now have a price.
func (s *LedgerService) Reresolve(ctx context.Context) (int, error) {
	s.mu.Lock()

	pending := s.ledger.Unconverted()
	if len(pending) == 0 {
		s.mu.Unlock()
		return 0, nil
	}

	initialVersion := s.ledger.Version
	currency := s.ledger.DisplayCurrency()
	conversions := make(map[uuid.UUID]domain.Conversion, len(pending))
	recovered := 0
	for _, sale := range pending {
		conv := s.convert(ctx, sale, currency)
		if conv.Err == nil {
			recovered++
		}
		conversions[sale.ID()] = conv
	}

	if err := s.ledger.HandleReresolve(conversions); err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("re-resolution failed for ledger %s: %w", s.ledger.ID, err)
	}

	changes, err := s.commit(initialVersion)
	log.Printf("Ledger %s re-resolved %d of %d unconverted sales. Total: %s",
		s.ledger.ID, recovered, len(pending), s.ledger.Total())
	s.release(changes)
	return recovered, err
}

// --- Query Handlers ---

func (s *LedgerService) Sales() []domain.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Sales()
}

// SortedSales returns the sales ordered by key. Price order uses converted
// prices in the current display currency; unconverted sales rank as zero.
func (s *LedgerService) SortedSales(key domain.SortKey) []domain.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales := s.ledger.Sales()
	slices.SortStableFunc(sales, key.Ordering(s.ledger.ConvertedPrice))
	return sales
}

// ConvertedPrice returns sale's cached price in the display currency, or
// zero for unknown and unconverted sales.
func (s *LedgerService) ConvertedPrice(sale domain.Sale) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ConvertedPrice(sale)
}

func (s *LedgerService) IsConverted(sale domain.Sale) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.IsConverted(sale)
}

func (s *LedgerService) Total() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Total()
}

func (s *LedgerService) DisplayCurrency() shared.Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.DisplayCurrency()
}

func (s *LedgerService) DateRange() (begin, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.DateRange()
}

func (s *LedgerService) Countries() domain.CountrySet {
	return s.countries
}

// Snapshot returns a consistent view of the whole ledger.
func (s *LedgerService) Snapshot() domain.LedgerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CreateView(s.ledger)
}

// Subscribe registers h for every change event. The returned function
// cancels the subscription.
func (s *LedgerService) Subscribe(h events.Handler) (unsubscribe func()) {
	return s.bus.Subscribe(h)
}

func (s *LedgerService) GetHistory(query GetHistoryQuery) ([]events.Event, error) {
	history, err := s.eventStore.GetEvents(s.ledgerID())
	if err != nil {
		return nil, fmt.Errorf("failed to get event history for ledger %s: %w", s.ledgerID(), err)
	}

	total := len(history)
	start := query.Skip
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []events.Event{}, nil
	}

	end := start + query.Limit
	if query.Limit <= 0 || end > total {
		end = total
	}
	return history[start:end], nil
}

// Rebuild replays the journal into a fresh aggregate, for consistency checks.
func (s *LedgerService) Rebuild() (*domain.Ledger, error) {
	history, err := s.eventStore.GetEvents(s.ledgerID())
	if err != nil {
		return nil, fmt.Errorf("failed to load events for ledger %s: %w", s.ledgerID(), err)
	}
	ledger := domain.NewLedger(s.ledgerID())
	if err := ledger.ApplyEvents(history); err != nil {
		return nil, fmt.Errorf("critical error replaying ledger %s: %w", s.ledgerID(), err)
	}
	return ledger, nil
}

// --- Internals ---

func (s *LedgerService) ledgerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ID
}

// convert resolves the sale's local currency, then its price in target.
func (s *LedgerService) convert(ctx context.Context, sale domain.Sale, target shared.Currency) domain.Conversion {
	from, err := s.currencyFor(sale.Country())
	if err != nil {
		if !errors.Is(err, rates.ErrResolution) {
			err = &rates.ResolutionError{Country: sale.Country(), Err: err}
		}
		log.Printf("Warning: Sale %s left unconverted: %v", sale.ID(), err)
		return domain.Failed(err)
	}

	var asOf *time.Time
	if s.historical {
		date := sale.Date()
		asOf = &date
	}

	amount, err := s.policy.Resolve(ctx, s.resolver, from, target, sale.Price(), asOf)
	if err != nil {
		log.Printf("Warning: Sale %s left unconverted: %v", sale.ID(), err)
		return domain.Failed(err)
	}
	return domain.Converted(amount)
}

// commit journals the aggregate's pending events. Callers hold s.mu.
func (s *LedgerService) commit(initialVersion int) ([]events.Event, error) {
	changes := s.ledger.GetUncommitedChanges()
	if len(changes) == 0 {
		return nil, nil
	}
	if err := s.eventStore.SaveEvents(s.ledger.ID, initialVersion, changes); err != nil {
		log.Printf("ERROR: Failed to journal %d events for ledger %s: %v", len(changes), s.ledger.ID, err)
		return nil, fmt.Errorf("failed to save events for ledger %s: %w", s.ledger.ID, err)
	}
	return changes, nil
}

// release unlocks s.mu and publishes changes. The batch number is taken
// under s.mu, so batches reach the bus in commit order. Nothing waits for
// its turn while holding s.mu.
func (s *LedgerService) release(changes []events.Event) {
	if len(changes) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.nextBatch
	s.nextBatch++
	s.mu.Unlock()

	s.publishMu.Lock()
	for s.published != batch {
		s.publishCond.Wait()
	}
	s.publishMu.Unlock()

	defer func() {
		s.publishMu.Lock()
		s.published++
		s.publishMu.Unlock()
		s.publishCond.Broadcast()
	}()
	s.bus.Publish(changes...)
}
