// Package engine decides whether an admissible order fills immediately or
// rests, computes the execution price, and applies fills to a ledger. It
// assumes admissibility: orders reaching it have passed validation, and any
// unknown side or type here is a programmer error.
package engine

import (
	"simex/internal/ledger"
	"simex/internal/schema"
)

// RouteDecision is the outcome of routing an order against a quote.
type RouteDecision uint16

const (
	RouteUnknown RouteDecision = iota
	RouteFillNow
	RouteRest
)

// Route decides between immediate execution and resting. Market orders
// always fill now; Stop/Limit/StopLimit rest unless their trigger condition
// is already satisfied by the quote.
func Route(order schema.Order, quote schema.Quote) RouteDecision {
	if Triggered(order, quote) {
		return RouteFillNow
	}
	return RouteRest
}

// Triggered evaluates the trigger condition as a crossing test against the
// quote. Market orders trigger unconditionally.
func Triggered(order schema.Order, quote schema.Quote) bool {
	switch order.Type {
	case schema.OrderTypeMarket:
		return true
	case schema.OrderTypeStop:
		switch order.Side {
		case schema.SideBuy:
			return quote.Ask >= order.LimitPrice
		case schema.SideSell:
			return quote.Bid <= order.LimitPrice
		}
	case schema.OrderTypeLimit:
		switch order.Side {
		case schema.SideBuy:
			return quote.Ask <= order.LimitPrice
		case schema.SideSell:
			return quote.Bid >= order.LimitPrice
		}
	case schema.OrderTypeStopLimit:
		switch order.Side {
		case schema.SideBuy:
			return quote.Ask >= order.ActivationPrice && quote.Ask <= order.LimitPrice
		case schema.SideSell:
			return quote.Bid <= order.ActivationPrice && quote.Bid >= order.LimitPrice
		}
	}
	panic("engine: trigger check on unknown order type/side")
}

// FillPrice is the execution price for an aggressor on the given side: the
// ask when buying exposure, the bid when selling it. Filling against an
// empty quote is a caller bug and panics.
func FillPrice(side schema.Side, quote schema.Quote) schema.Price {
	if quote.Empty() {
		panic("engine: fill against empty quote")
	}
	switch side {
	case schema.SideBuy:
		return quote.Ask
	case schema.SideSell:
		return quote.Bid
	default:
		panic("engine: fill with unknown side")
	}
}

// NewFill matches an order against a quote.
func NewFill(order schema.Order, quote schema.Quote) schema.Fill {
	return schema.Fill{
		OrderID:      order.ID,
		AccountID:    order.AccountID,
		InstrumentID: order.InstrumentID,
		Side:         order.Side,
		Price:        FillPrice(order.Side, quote),
		Volume:       order.Volume,
		Time:         quote.Time,
	}
}

// Execute fills the order at the quote and nets it into the ledger. The
// audit log receives the filled order snapshot.
func Execute(led *ledger.Ledger, order schema.Order, quote schema.Quote) (schema.Fill, schema.Position, *schema.RealizedTransaction) {
	fill := NewFill(order, quote)
	order.Status = schema.OrderStatusFilled
	pos, txn := led.Apply(order, fill)
	return fill, pos, txn
}
