// Package store is the account-state boundary: it admits orders into the
// execution engine, evaluates resting orders on quote ticks, and serves
// queries over orders, positions, and realized transactions.
package store

import (
	"errors"

	"simex/internal/book"
	"simex/internal/schema"
)

var (
	// ErrNoQuote means the instrument has never ticked; routing needs a quote.
	ErrNoQuote = errors.New("store: no quote for instrument")
	// ErrGroupOrder means a group parent reached the store unexpanded.
	ErrGroupOrder = errors.New("store: group order must be composed before storing")
)

// Filter narrows list queries. AccountID is required; a zero InstrumentID
// matches every instrument.
type Filter struct {
	AccountID    uint64
	InstrumentID uint32
}

// Result is the outcome of storing one admissible order.
type Result struct {
	Order       schema.Order
	Rested      bool
	Fill        *schema.Fill
	Position    *schema.Position
	Transaction *schema.RealizedTransaction
}

// Store routes admissible orders and owns per-account state. Implementations
// serialize access per account; callers need no external locking.
type Store interface {
	// Store routes one admissible flat order: immediate execution when the
	// trigger condition already holds, resting otherwise.
	Store(order schema.Order) (Result, error)
	// Remove cancels a pending order. Absent IDs report false, not an error.
	Remove(accountID, orderID uint64) (bool, error)
	// Update replaces a pending order's fields in place. Absent IDs report
	// false.
	Update(order schema.Order) (bool, error)
	// OnTick records the quote and executes every resting order it triggers.
	OnTick(quote schema.Quote) ([]book.TriggerResult, error)

	ListOrders(filter Filter) ([]schema.Order, error)
	ListPendingOrders(filter Filter) ([]schema.Order, error)
	ListPositions(filter Filter) ([]schema.Position, error)
	ListTransactions(filter Filter) ([]schema.RealizedTransaction, error)

	// Quote returns the latest quote for an instrument.
	Quote(instrumentID uint32) (schema.Quote, bool)

	Close() error
}
