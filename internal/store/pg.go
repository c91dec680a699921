package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yanun0323/logs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"simex/internal/book"
	"simex/internal/schema"
)

const defaultPersistQueueSize = 4096

// WriteBehind decorates a store with asynchronous PostgreSQL persistence.
// The execution path never waits on the database: persistence jobs go
// through a bounded queue and overflow is logged and dropped. The in-memory
// state stays authoritative.
type WriteBehind struct {
	inner *Memory
	db    *gorm.DB
	ch    chan func(*gorm.DB) error
	wg    sync.WaitGroup

	started uint32
	closed  uint32
}

// NewWriteBehind wraps the in-memory store with database persistence.
func NewWriteBehind(inner *Memory, db *gorm.DB, queueSize int) *WriteBehind {
	if queueSize <= 0 {
		queueSize = defaultPersistQueueSize
	}
	return &WriteBehind{
		inner: inner,
		db:    db,
		ch:    make(chan func(*gorm.DB) error, queueSize),
	}
}

// Migrate creates the backing tables.
func (w *WriteBehind) Migrate() error {
	return w.db.AutoMigrate(&OrderRow{}, &PositionRow{}, &TransactionRow{})
}

// Start runs the persistence loop in a new goroutine.
func (w *WriteBehind) Start(ctx context.Context) {
	if !atomic.CompareAndSwapUint32(&w.started, 0, 1) {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-w.ch:
				if !ok {
					return
				}
				if err := job(w.db); err != nil {
					logs.Errorf("persist: %+v", err)
				}
			}
		}
	}()
}

func (w *WriteBehind) enqueue(job func(*gorm.DB) error) {
	if atomic.LoadUint32(&w.closed) != 0 || atomic.LoadUint32(&w.started) == 0 {
		return
	}
	select {
	case w.ch <- job:
	default:
		logs.Error("persist: queue full, dropping job")
	}
}

func (w *WriteBehind) persistOrder(order schema.Order) {
	row := newOrderRow(order)
	w.enqueue(func(db *gorm.DB) error {
		return db.Create(&row).Error
	})
}

func (w *WriteBehind) persistPosition(pos schema.Position) {
	if pos.Volume == 0 {
		accountID, instrumentID := pos.AccountID, pos.InstrumentID
		w.enqueue(func(db *gorm.DB) error {
			return db.Delete(&PositionRow{}, "account_id = ? AND instrument_id = ?", accountID, instrumentID).Error
		})
		return
	}
	row := newPositionRow(pos)
	w.enqueue(func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "instrument_id"}},
			UpdateAll: true,
		}).Create(&row).Error
	})
}

func (w *WriteBehind) persistTransaction(txn schema.RealizedTransaction) {
	row := newTransactionRow(txn)
	w.enqueue(func(db *gorm.DB) error {
		return db.Create(&row).Error
	})
}

func (w *WriteBehind) removePending(accountID, orderID uint64) {
	w.enqueue(func(db *gorm.DB) error {
		return db.Model(&OrderRow{}).
			Where("account_id = ? AND order_id = ? AND status = ?", accountID, orderID, uint16(schema.OrderStatusPlaced)).
			Update("status", uint16(schema.OrderStatusCancelled)).Error
	})
}

// Store routes the order through the in-memory store and persists the
// outcome.
func (w *WriteBehind) Store(order schema.Order) (Result, error) {
	result, err := w.inner.Store(order)
	if err != nil {
		return result, err
	}
	w.persistOrder(result.Order)
	if result.Position != nil {
		w.persistPosition(*result.Position)
	}
	if result.Transaction != nil {
		w.persistTransaction(*result.Transaction)
	}
	return result, nil
}

// Remove cancels a pending order and marks its audit row cancelled.
func (w *WriteBehind) Remove(accountID, orderID uint64) (bool, error) {
	removed, err := w.inner.Remove(accountID, orderID)
	if err != nil || !removed {
		return removed, err
	}
	w.removePending(accountID, orderID)
	return true, nil
}

// Update replaces a pending order's fields in place.
func (w *WriteBehind) Update(order schema.Order) (bool, error) {
	return w.inner.Update(order)
}

// OnTick evaluates resting orders and persists triggered executions.
func (w *WriteBehind) OnTick(quote schema.Quote) ([]book.TriggerResult, error) {
	results, err := w.inner.OnTick(quote)
	if err != nil {
		return results, err
	}
	for _, t := range results {
		w.persistOrder(t.Order)
		w.persistPosition(t.Position)
		if t.Transaction != nil {
			w.persistTransaction(*t.Transaction)
		}
	}
	return results, nil
}

// ListOrders serves from memory.
func (w *WriteBehind) ListOrders(filter Filter) ([]schema.Order, error) {
	return w.inner.ListOrders(filter)
}

// ListPendingOrders serves from memory.
func (w *WriteBehind) ListPendingOrders(filter Filter) ([]schema.Order, error) {
	return w.inner.ListPendingOrders(filter)
}

// ListPositions serves from memory.
func (w *WriteBehind) ListPositions(filter Filter) ([]schema.Position, error) {
	return w.inner.ListPositions(filter)
}

// ListTransactions serves from memory.
func (w *WriteBehind) ListTransactions(filter Filter) ([]schema.RealizedTransaction, error) {
	return w.inner.ListTransactions(filter)
}

// Quote returns the latest quote for an instrument.
func (w *WriteBehind) Quote(instrumentID uint32) (schema.Quote, bool) {
	return w.inner.Quote(instrumentID)
}

// Close stops the persistence loop after draining queued jobs.
func (w *WriteBehind) Close() error {
	if atomic.CompareAndSwapUint32(&w.closed, 0, 1) {
		close(w.ch)
	}
	w.wg.Wait()
	return w.inner.Close()
}
