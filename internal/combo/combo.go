// Package combo expands grouped (bracket) orders into independent child
// orders sharing the parent's context.
package combo

import "simex/internal/schema"

// Compose expands a Group parent into its legs against the latest quote.
// Children without volume are dropped, fail-soft. Retained children inherit
// the parent's type and time-in-force, take the quote time, and price from
// the quote side: ask for buys, bid for sells, unset when the side is unset.
// The parent itself is not part of the result.
func Compose(parent schema.Order, quote schema.Quote) []schema.Order {
	if parent.Instruction != schema.InstructionGroup {
		return nil
	}
	out := make([]schema.Order, 0, len(parent.Children))
	for _, child := range parent.Children {
		if child.Instruction == schema.InstructionGroup {
			continue
		}
		if child.Volume <= 0 {
			continue
		}
		child.AccountID = parent.AccountID
		if child.InstrumentID == 0 {
			child.InstrumentID = parent.InstrumentID
		}
		child.Type = parent.Type
		child.TimeInForce = parent.TimeInForce
		child.Instruction = schema.InstructionSide
		child.Time = quote.Time
		switch child.Side {
		case schema.SideBuy:
			child.LimitPrice = quote.Ask
		case schema.SideSell:
			child.LimitPrice = quote.Bid
		default:
			child.LimitPrice = 0
		}
		child.Children = nil
		out = append(out, child)
	}
	return out
}
