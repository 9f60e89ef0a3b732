// Package events publishes notifications about committed ledger changes.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Kind identifies what happened to the ledger.
type Kind string

const (
	KindTransactionCreated   Kind = "transaction.created"
	KindTransactionDeleted   Kind = "transaction.deleted"
	KindTransactionsImported Kind = "transactions.imported"
)

// Event describes one committed change.
type Event struct {
	Kind           Kind      `json:"kind"`
	TransactionIDs []string  `json:"transaction_ids"`
	CategoryIDs    []string  `json:"category_ids,omitempty"`
	Source         string    `json:"source,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(kind Kind, transactionIDs, categoryIDs []string) Event {
	if transactionIDs == nil {
		transactionIDs = []string{}
	}
	return Event{
		Kind:           kind,
		TransactionIDs: transactionIDs,
		CategoryIDs:    categoryIDs,
		Timestamp:      time.Now().UTC(),
	}
}

// ToJSON encodes the event as a message body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

// Publish records event, or returns Err when set.
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Event, len(r.events))
	copy(result, r.events)
	return result
}

func (r *Recorder) Close() error { return nil }
