// Package events announces ledger changes to other systems.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/mmynk/splitchain/internal/money"
)

// Event types.
const (
	TypeExpenseAdded    = "expense.added"
	TypeTransferSettled = "transfer.settled"
)

// Event is the envelope every message is published in.
type Event struct {
	Type       string    `json:"type"`
	GroupID    string    `json:"groupId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

type ExpenseAdded struct {
	ExpenseID   string       `json:"expenseId"`
	Description string       `json:"description"`
	Payer       string       `json:"payer"`
	Amount      money.Amount `json:"amount"`
	Policy      string       `json:"policy"`
}

type TransferSettled struct {
	ExpenseID string       `json:"expenseId"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Amount    money.Amount `json:"amount"`
	Reference string       `json:"reference"`
}

// Publisher delivers events. Publishing is best effort: the ledger change has
// already been committed when Publish is called.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns what has been published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
