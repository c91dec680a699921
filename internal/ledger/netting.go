package ledger

import (
	"github.com/shopspring/decimal"

	"simex/internal/schema"
)

// Apply nets a fill into the account's positions and appends the originating
// order snapshot to the audit log, exactly once regardless of branch.
//
// The branches:
//   - no open position: open one with the fill price as cost basis
//   - same side: volume-weighted average entry price, volume added
//   - opposite side, fill < position: partial decrease, basis unchanged
//   - opposite side, fill == position: close, moved to closed history
//   - opposite side, fill > position: close the matched part, reopen the
//     remainder on the opposite side at the fill price
//
// A realized transaction is returned for every reduction, close, or
// inversion; nil otherwise. The returned position is the post-fill snapshot
// (volume 0 for a close).
//
// A non-positive fill volume is a caller bug and panics: a silently corrupt
// cost basis is unrecoverable downstream.
func (l *Ledger) Apply(order schema.Order, fill schema.Fill) (schema.Position, *schema.RealizedTransaction) {
	l.AppendOrder(order)
	return l.ApplyFill(fill)
}

// ApplyFill nets a fill without touching the audit log. Journal replay uses
// it directly: the audit entries are replayed as order records on their own.
func (l *Ledger) ApplyFill(fill schema.Fill) (schema.Position, *schema.RealizedTransaction) {
	if fill.Volume <= 0 {
		panic("ledger: non-positive fill volume")
	}

	pos, ok := l.positions[fill.InstrumentID]
	if !ok {
		next := openPosition(l.accountID, fill)
		l.positions[fill.InstrumentID] = next
		return next.Clone(), nil
	}

	if pos.Side == fill.Side {
		next := pos.Clone()
		next.AvgEntryPrice = weightedAverage(pos.Volume, pos.AvgEntryPrice, fill.Volume, fill.Price)
		next.Volume = pos.Volume + fill.Volume
		next = touch(next, fill)
		l.positions[fill.InstrumentID] = next
		return next.Clone(), nil
	}

	matched := fill.Volume
	if pos.Volume < matched {
		matched = pos.Volume
	}
	txn := &schema.RealizedTransaction{
		OrderID:      fill.OrderID,
		AccountID:    l.accountID,
		InstrumentID: fill.InstrumentID,
		Side:         pos.Side,
		EntryPrice:   pos.AvgEntryPrice,
		ExitPrice:    fill.Price,
		Volume:       matched,
		Time:         fill.Time,
	}

	switch {
	case fill.Volume < pos.Volume:
		// Partial decrease: the cost basis of the surviving volume is untouched.
		next := pos.Clone()
		next.Volume = pos.Volume - fill.Volume
		next = touch(next, fill)
		l.positions[fill.InstrumentID] = next
		return next.Clone(), txn

	case fill.Volume == pos.Volume:
		closed := pos.Clone()
		closed.Volume = 0
		closed = touch(closed, fill)
		delete(l.positions, fill.InstrumentID)
		l.closed = append(l.closed, closed)
		return closed.Clone(), txn

	default:
		// Inversion: only the matched portion is realized; the excess reopens
		// on the fill side with a fresh cost basis.
		closed := pos.Clone()
		closed.Volume = 0
		closed = touch(closed, fill)
		l.closed = append(l.closed, closed)

		reopen := fill
		reopen.Volume = fill.Volume - pos.Volume
		next := openPosition(l.accountID, reopen)
		l.positions[fill.InstrumentID] = next
		return next.Clone(), txn
	}
}

func openPosition(accountID uint64, fill schema.Fill) schema.Position {
	return schema.Position{
		AccountID:     accountID,
		InstrumentID:  fill.InstrumentID,
		Side:          fill.Side,
		Volume:        fill.Volume,
		AvgEntryPrice: fill.Price,
		History:       []schema.Fill{fill},
		LastOrderID:   fill.OrderID,
		LastPrice:     fill.Price,
		LastTime:      fill.Time,
	}
}

func touch(pos schema.Position, fill schema.Fill) schema.Position {
	pos.History = append(pos.History, fill)
	pos.LastOrderID = fill.OrderID
	pos.LastPrice = fill.Price
	pos.LastTime = fill.Time
	return pos
}

// weightedAverage computes (v*avg + d*p) / (v+d) in exact decimal arithmetic.
// The scale factors of price and quantity cancel out, so the result is back
// in scaled price units. int64 products would overflow first at scale 8.
func weightedAverage(v schema.Quantity, avg schema.Price, d schema.Quantity, p schema.Price) schema.Price {
	vd := decimal.NewFromInt(int64(v))
	dd := decimal.NewFromInt(int64(d))
	num := vd.Mul(decimal.NewFromInt(int64(avg))).Add(dd.Mul(decimal.NewFromInt(int64(p))))
	den := vd.Add(dd)
	return schema.Price(num.DivRound(den, 0).IntPart())
}
