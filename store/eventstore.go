package store

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"realestate-ledger/events"
)

var (
	ErrOptimisticLock = errors.New("optimistic lock error: version conflict")
	ErrSequence       = errors.New("event sequence error")
)

// EventStore is the append-only journal of ledger changes. Each ledger has
// one stream whose versions run 1, 2, 3, ... without gaps.
type EventStore interface {
	SaveEvents(ledgerID string, expectedVersion int, eventsToSave []events.Event) error

	GetEvents(ledgerID string) ([]events.Event, error)

	GetEventsAfterVersion(ledgerID string, version int) ([]events.Event, error)
}

type InMemoryEventStore struct {
	sync.RWMutex
	streams map[string][]events.Event
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams: make(map[string][]events.Event),
	}
}

func (s *InMemoryEventStore) SaveEvents(ledgerID string, expectedVersion int, newEvents []events.Event) error {
	s.Lock()
	defer s.Unlock()

	if len(newEvents) == 0 {
		log.Printf("Warning: SaveEvents called with zero events for ledger %s", ledgerID)
		return nil
	}

	stream := s.streams[ledgerID]
	if current := currentVersion(stream); current != expectedVersion {
		return fmt.Errorf("%w: expected version %d, but current version is %d for ledger %s",
			ErrOptimisticLock, expectedVersion, current, ledgerID)
	}

	next := expectedVersion
	for _, event := range newEvents {
		base := event.GetBase()
		next++
		if base.Version != next {
			return fmt.Errorf("%w: ledger %s expected version %d for %T (%s), got %d",
				ErrSequence, ledgerID, next, event, base.EventID, base.Version)
		}
		if base.LedgerID != ledgerID {
			return fmt.Errorf("%w: stream is for ledger %s, but %T (%s) belongs to %s",
				ErrSequence, ledgerID, event, base.EventID, base.LedgerID)
		}
	}

	s.streams[ledgerID] = append(stream, newEvents...)
	return nil
}

func (s *InMemoryEventStore) GetEvents(ledgerID string) ([]events.Event, error) {
	return s.GetEventsAfterVersion(ledgerID, 0)
}

func (s *InMemoryEventStore) GetEventsAfterVersion(ledgerID string, version int) ([]events.Event, error) {
	s.RLock()
	defer s.RUnlock()

	stream := s.streams[ledgerID]
	for i, event := range stream {
		if event.GetBase().Version > version {
			out := make([]events.Event, len(stream)-i)
			copy(out, stream[i:])
			return out, nil
		}
	}
	return []events.Event{}, nil
}

// Version returns the latest saved version of a ledger, 0 if none.
func (s *InMemoryEventStore) Version(ledgerID string) int {
	s.RLock()
	defer s.RUnlock()
	return currentVersion(s.streams[ledgerID])
}

func currentVersion(stream []events.Event) int {
	if len(stream) == 0 {
		return 0
	}
	return stream[len(stream)-1].GetBase().Version
}
