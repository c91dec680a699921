package store

import "simex/internal/schema"

// OrderRow is one audit-log entry. Order IDs repeat across snapshots, so
// rows carry their own key.
type OrderRow struct {
	RowID           uint64 `gorm:"primaryKey;autoIncrement"`
	OrderID         uint64 `gorm:"index"`
	AccountID       uint64 `gorm:"index"`
	InstrumentID    uint32
	Side            uint16
	Type            uint16
	TimeInForce     uint16
	Status          uint16
	Instruction     uint16
	Volume          int64
	LimitPrice      int64
	ActivationPrice int64
	Time            int64
}

// TableName sets the orders table name.
func (OrderRow) TableName() string { return "orders" }

// PositionRow mirrors one open position; closed positions are deleted.
type PositionRow struct {
	AccountID     uint64 `gorm:"primaryKey;autoIncrement:false"`
	InstrumentID  uint32 `gorm:"primaryKey;autoIncrement:false"`
	Side          uint16
	Volume        int64
	AvgEntryPrice int64
	LastOrderID   uint64
	LastPrice     int64
	LastTime      int64
}

// TableName sets the positions table name.
func (PositionRow) TableName() string { return "positions" }

// TransactionRow is one realized transaction.
type TransactionRow struct {
	RowID        uint64 `gorm:"primaryKey;autoIncrement"`
	OrderID      uint64 `gorm:"index"`
	AccountID    uint64 `gorm:"index"`
	InstrumentID uint32
	Side         uint16
	EntryPrice   int64
	ExitPrice    int64
	Volume       int64
	Time         int64
}

// TableName sets the transactions table name.
func (TransactionRow) TableName() string { return "transactions" }

func newOrderRow(order schema.Order) OrderRow {
	return OrderRow{
		OrderID:         order.ID,
		AccountID:       order.AccountID,
		InstrumentID:    order.InstrumentID,
		Side:            uint16(order.Side),
		Type:            uint16(order.Type),
		TimeInForce:     uint16(order.TimeInForce),
		Status:          uint16(order.Status),
		Instruction:     uint16(order.Instruction),
		Volume:          int64(order.Volume),
		LimitPrice:      int64(order.LimitPrice),
		ActivationPrice: int64(order.ActivationPrice),
		Time:            order.Time,
	}
}

func newPositionRow(pos schema.Position) PositionRow {
	return PositionRow{
		AccountID:     pos.AccountID,
		InstrumentID:  pos.InstrumentID,
		Side:          uint16(pos.Side),
		Volume:        int64(pos.Volume),
		AvgEntryPrice: int64(pos.AvgEntryPrice),
		LastOrderID:   pos.LastOrderID,
		LastPrice:     int64(pos.LastPrice),
		LastTime:      pos.LastTime,
	}
}

func newTransactionRow(txn schema.RealizedTransaction) TransactionRow {
	return TransactionRow{
		OrderID:      txn.OrderID,
		AccountID:    txn.AccountID,
		InstrumentID: txn.InstrumentID,
		Side:         uint16(txn.Side),
		EntryPrice:   int64(txn.EntryPrice),
		ExitPrice:    int64(txn.ExitPrice),
		Volume:       int64(txn.Volume),
		Time:         txn.Time,
	}
}
