package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"realestate-ledger/events"
)

func TestBus(t *testing.T) {
	bus := events.NewBus()
	var log []string

	first := bus.Subscribe(func(e events.Event) { log = append(log, "first:"+string(e.GetBase().Type)) })
	bus.Subscribe(func(e events.Event) { log = append(log, "second:"+string(e.GetBase().Type)) })
	assert.Equal(t, 2, bus.Len())

	bus.Publish(
		events.NewBaseEvent("l", 1, events.LedgerOpenedType),
		events.NewBaseEvent("l", 2, events.SaleAddedType),
	)
	assert.Equal(t, []string{
		"first:LedgerOpened", "second:LedgerOpened",
		"first:SaleAdded", "second:SaleAdded",
	}, log)

	first()
	first()
	assert.Equal(t, 1, bus.Len())

	log = nil
	bus.Publish(events.NewBaseEvent("l", 3, events.DateFilterChangedType))
	assert.Equal(t, []string{"second:DateFilterChanged"}, log)
}

func TestNewBaseEvent(t *testing.T) {
	a := events.NewBaseEvent("ledger-1", 4, events.SalesReresolvedType)
	b := events.NewBaseEvent("ledger-1", 4, events.SalesReresolvedType)

	assert.Equal(t, "ledger-1", a.LedgerID)
	assert.Equal(t, 4, a.GetBase().Version)
	assert.NotEqual(t, a.EventID, b.EventID)
	assert.False(t, a.Timestamp.IsZero())
}
