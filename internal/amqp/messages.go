package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names a ledger mutation.
type EventKind string

const (
	ExpenseCreated  EventKind = "expense.created"
	ExpenseUpdated  EventKind = "expense.updated"
	ExpenseDeleted  EventKind = "expense.deleted"
	CategoryCreated EventKind = "category.created"
	CategoryUpdated EventKind = "category.updated"
	CategoryDeleted EventKind = "category.deleted"
)

func (k EventKind) valid() bool {
	switch k {
	case ExpenseCreated, ExpenseUpdated, ExpenseDeleted,
		CategoryCreated, CategoryUpdated, CategoryDeleted:
		return true
	}
	return false
}

// LedgerEvent announces a committed change. It carries only the id; consumers
// read current state from the store.
type LedgerEvent struct {
	Kind EventKind `json:"kind"`
	ID   int64     `json:"id"`
	// CascadedExpenses is the number of expenses removed with a category.
	CascadedExpenses int       `json:"cascaded_expenses,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps an event with the current time.
func NewLedgerEvent(kind EventKind, id int64) LedgerEvent {
	return LedgerEvent{Kind: kind, ID: id, Timestamp: time.Now().UTC()}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks an event body.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	if !e.Kind.valid() {
		return LedgerEvent{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return e, nil
}
