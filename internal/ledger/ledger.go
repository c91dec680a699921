// Package ledger owns per-account trading state: the append-only order audit
// log, pending orders, open positions, and closed-position history. Nothing
// in a ledger is shared across accounts.
package ledger

import "simex/internal/schema"

// Ledger is the state for one account. It is not safe for concurrent use;
// callers serialize access per account.
type Ledger struct {
	accountID uint64
	orders    []schema.Order
	pending   map[uint64]schema.Order
	positions map[uint32]schema.Position
	closed    []schema.Position
}

// New creates an empty ledger for an account.
func New(accountID uint64) *Ledger {
	return &Ledger{
		accountID: accountID,
		pending:   make(map[uint64]schema.Order),
		positions: make(map[uint32]schema.Position),
	}
}

// AccountID returns the owning account.
func (l *Ledger) AccountID() uint64 {
	return l.accountID
}

// AppendOrder appends an order snapshot to the audit log. Entries are never
// mutated after append.
func (l *Ledger) AppendOrder(order schema.Order) {
	l.orders = append(l.orders, order)
}

// Orders returns the audit log (copy).
func (l *Ledger) Orders() []schema.Order {
	out := make([]schema.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// OrderCount returns the audit log length.
func (l *Ledger) OrderCount() int {
	return len(l.orders)
}

// SetPending inserts or replaces a pending order keyed by its ID.
func (l *Ledger) SetPending(order schema.Order) {
	l.pending[order.ID] = order
}

// Pending returns a pending order by ID.
func (l *Ledger) Pending(id uint64) (schema.Order, bool) {
	o, ok := l.pending[id]
	return o, ok
}

// DeletePending removes a pending order and reports whether it was present.
func (l *Ledger) DeletePending(id uint64) bool {
	if _, ok := l.pending[id]; !ok {
		return false
	}
	delete(l.pending, id)
	return true
}

// PendingOrders returns all pending orders (copy).
func (l *Ledger) PendingOrders() []schema.Order {
	out := make([]schema.Order, 0, len(l.pending))
	for _, o := range l.pending {
		out = append(out, o)
	}
	return out
}

// PendingByInstrument returns pending orders for one instrument (copy).
func (l *Ledger) PendingByInstrument(instrumentID uint32) []schema.Order {
	var out []schema.Order
	for _, o := range l.pending {
		if o.InstrumentID == instrumentID {
			out = append(out, o)
		}
	}
	return out
}

// PendingCount returns the number of pending orders.
func (l *Ledger) PendingCount() int {
	return len(l.pending)
}

// Position returns the open position for an instrument, if any.
func (l *Ledger) Position(instrumentID uint32) (schema.Position, bool) {
	pos, ok := l.positions[instrumentID]
	if !ok {
		return schema.Position{}, false
	}
	return pos.Clone(), true
}

// Positions returns all open positions (copies).
func (l *Ledger) Positions() []schema.Position {
	out := make([]schema.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos.Clone())
	}
	return out
}

// ClosedPositions returns the closed-position history (copies).
func (l *Ledger) ClosedPositions() []schema.Position {
	out := make([]schema.Position, 0, len(l.closed))
	for _, pos := range l.closed {
		out = append(out, pos.Clone())
	}
	return out
}

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int {
	return len(l.positions)
}
