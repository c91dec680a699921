// Package book holds the per-account resting order book: admitted orders
// waiting for their trigger condition, plus the maintenance operations that
// update or cancel them.
package book

import (
	"sort"

	"simex/internal/engine"
	"simex/internal/ledger"
	"simex/internal/schema"
)

// Book manages the pending orders of one account's ledger. Triggering is
// all-or-nothing per order; there is no partial-trigger state.
type Book struct {
	led *ledger.Ledger
}

// New creates a book over the account's ledger.
func New(led *ledger.Ledger) *Book {
	return &Book{led: led}
}

// Place rests an admissible order: status moves to Placed, the order joins
// the pending set, and the placement snapshot enters the audit log.
func (b *Book) Place(order schema.Order) schema.Order {
	order.Status = schema.OrderStatusPlaced
	b.led.SetPending(order)
	b.led.AppendOrder(order)
	return order
}

// TriggerResult is one triggered execution from a quote tick.
type TriggerResult struct {
	Order       schema.Order
	Fill        schema.Fill
	Position    schema.Position
	Transaction *schema.RealizedTransaction
}

// OnQuote re-evaluates every pending order on the quote's instrument as a
// crossing test and executes the triggered ones. Triggered orders leave the
// pending set before filling. Orders are evaluated in ID order so replays
// are deterministic.
func (b *Book) OnQuote(quote schema.Quote) []TriggerResult {
	pending := b.led.PendingByInstrument(quote.InstrumentID)
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ID < pending[j].ID
	})

	var results []TriggerResult
	for _, order := range pending {
		if !engine.Triggered(order, quote) {
			continue
		}
		b.led.DeletePending(order.ID)
		fill, pos, txn := engine.Execute(b.led, order, quote)
		order.Status = schema.OrderStatusFilled
		results = append(results, TriggerResult{
			Order:       order,
			Fill:        fill,
			Position:    pos,
			Transaction: txn,
		})
	}
	return results
}

// Update replaces the mutable fields of a pending order in place. An absent
// target is a no-op. Maintenance never touches the audit log.
func (b *Book) Update(order schema.Order) bool {
	current, ok := b.led.Pending(order.ID)
	if !ok {
		return false
	}
	current.Type = order.Type
	current.Side = order.Side
	current.LimitPrice = order.LimitPrice
	current.ActivationPrice = order.ActivationPrice
	current.Volume = order.Volume
	current.InstrumentID = order.InstrumentID
	current.Children = order.Children
	b.led.SetPending(current)
	return true
}

// Cancel removes a pending order. Cancelling an absent ID is a no-op.
func (b *Book) Cancel(id uint64) bool {
	return b.led.DeletePending(id)
}

// CancelWhere removes every pending order matching the predicate and
// returns how many were removed.
func (b *Book) CancelWhere(pred func(schema.Order) bool) int {
	removed := 0
	for _, o := range b.led.PendingOrders() {
		if pred(o) && b.led.DeletePending(o.ID) {
			removed++
		}
	}
	return removed
}
