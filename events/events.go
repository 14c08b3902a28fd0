package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// BaseEvent carries the metadata shared by every ledger change.
type BaseEvent struct {
	EventID   uuid.UUID `json:"eventId"`
	LedgerID  string    `json:"ledgerId"`
	Version   int       `json:"version"` // Version of the ledger *after* this event is applied.
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

type Event interface {
	GetBase() BaseEvent
}

func (e BaseEvent) GetBase() BaseEvent {
	return e
}

const (
	LedgerOpenedType           EventType = "LedgerOpened"
	SaleAddedType              EventType = "SaleAdded"
	DisplayCurrencyChangedType EventType = "DisplayCurrencyChanged"
	DateFilterChangedType      EventType = "DateFilterChanged"
	SalesReresolvedType        EventType = "SalesReresolved"
)

func NewBaseEvent(ledgerID string, version int, eventType EventType) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New(),
		LedgerID:  ledgerID,
		Version:   version,
		Timestamp: time.Now().UTC(),
		Type:      eventType,
	}
}
