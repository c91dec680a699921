package schema

// Price is a scaled integer. The scale is defined per instrument.
type Price int64

// Quantity is a scaled integer. The scale is defined per instrument.
type Quantity int64

// Notional is a scaled integer. The scale is defined per instrument.
type Notional int64

// Fee is a scaled integer. The scale is defined per instrument.
type Fee int64

// Side describes order direction.
type Side uint16

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

// Long/Short are historical aliases for the same two values. Position-side
// call sites read better with them; there is no third semantic.
const (
	SideLong  = SideBuy
	SideShort = SideSell
)

// Opposite returns the other direction, or SideUnknown.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return SideUnknown
	}
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderType describes order type.
type OrderType uint16

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
	OrderTypeStop
	OrderTypeStopLimit
)

// TimeInForce describes order time-in-force.
type TimeInForce uint16

const (
	TimeInForceUnknown TimeInForce = iota
	TimeInForceGTC
	TimeInForceIOC
	TimeInForceFOK
)

// OrderStatus tracks the order lifecycle.
type OrderStatus uint16

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusNew
	OrderStatusPlaced
	OrderStatusFilled
	OrderStatusCancelled
)

// Instruction marks an order as standalone, a group parent, or a group leg.
type Instruction uint16

const (
	InstructionSingle Instruction = iota
	InstructionGroup
	InstructionSide
)

// Quote is the latest top-of-book view for an instrument.
type Quote struct {
	InstrumentID uint32
	Bid          Price
	Ask          Price
	Last         Price
	Time         int64
}

// Empty reports whether the quote carries no market data at all.
func (q Quote) Empty() bool {
	return q.Bid == 0 && q.Ask == 0 && q.Last == 0 && q.Time == 0
}

// Order is a submitted order. Orders are value types: once filled they are
// immutable, and any update replaces the whole ledger entry.
type Order struct {
	ID              uint64
	AccountID       uint64
	InstrumentID    uint32
	Side            Side
	Type            OrderType
	TimeInForce     TimeInForce
	Status          OrderStatus
	Instruction     Instruction
	Volume          Quantity
	LimitPrice      Price // 0 = unset
	ActivationPrice Price // stop-limit only, 0 = unset
	Time            int64
	Children        []Order
}

// Fill is the execution of an order against a quote.
type Fill struct {
	OrderID      uint64
	AccountID    uint64
	InstrumentID uint32
	Side         Side
	Price        Price
	Volume       Quantity
	Time         int64
}

// RealizedTransaction is the closed-out P&L leg produced when an
// opposite-side fill reduces, closes, or inverts a position.
type RealizedTransaction struct {
	OrderID      uint64
	AccountID    uint64
	InstrumentID uint32
	Side         Side // side of the position being closed
	EntryPrice   Price
	ExitPrice    Price
	Volume       Quantity
	Time         int64
}

// Position is the net exposure for one instrument. Volume is always > 0 for
// an open position; a closed position keeps Volume 0 in the history.
type Position struct {
	AccountID     uint64
	InstrumentID  uint32
	Side          Side
	Volume        Quantity
	AvgEntryPrice Price
	History       []Fill
	LastOrderID   uint64
	LastPrice     Price
	LastTime      int64
}

// Clone returns a deep copy so ledger snapshots never share history slices.
func (p Position) Clone() Position {
	cp := p
	if len(p.History) > 0 {
		cp.History = make([]Fill, len(p.History))
		copy(cp.History, p.History)
	}
	return cp
}
