package store

import (
	"sort"
	"sync"

	"simex/internal/book"
	"simex/internal/engine"
	"simex/internal/ledger"
	"simex/internal/schema"
)

// Memory keeps all account state in process: one ledger and one resting
// book per account, plus the latest quote per instrument.
type Memory struct {
	mu           sync.RWMutex
	accounts     map[uint64]*account
	quotes       map[uint32]schema.Quote
	transactions []schema.RealizedTransaction
}

type account struct {
	led  *ledger.Ledger
	book *book.Book
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[uint64]*account),
		quotes:   make(map[uint32]schema.Quote),
	}
}

func (m *Memory) account(accountID uint64) *account {
	acct, ok := m.accounts[accountID]
	if !ok {
		led := ledger.New(accountID)
		acct = &account{led: led, book: book.New(led)}
		m.accounts[accountID] = acct
	}
	return acct
}

// Store routes one admissible flat order against the latest quote.
func (m *Memory) Store(order schema.Order) (Result, error) {
	if order.Instruction == schema.InstructionGroup {
		return Result{}, ErrGroupOrder
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	quote, ok := m.quotes[order.InstrumentID]
	if !ok || quote.Empty() {
		return Result{}, ErrNoQuote
	}

	acct := m.account(order.AccountID)
	if engine.Route(order, quote) == engine.RouteRest {
		placed := acct.book.Place(order)
		return Result{Order: placed, Rested: true}, nil
	}

	fill, pos, txn := engine.Execute(acct.led, order, quote)
	if txn != nil {
		m.transactions = append(m.transactions, *txn)
	}
	order.Status = schema.OrderStatusFilled
	return Result{
		Order:       order,
		Fill:        &fill,
		Position:    &pos,
		Transaction: txn,
	}, nil
}

// Remove cancels a pending order. Cancelling an absent ID is a no-op.
func (m *Memory) Remove(accountID, orderID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[accountID]
	if !ok {
		return false, nil
	}
	return acct.book.Cancel(orderID), nil
}

// Update replaces a pending order's fields in place.
func (m *Memory) Update(order schema.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[order.AccountID]
	if !ok {
		return false, nil
	}
	return acct.book.Update(order), nil
}

// OnTick records the quote and re-evaluates every account's resting orders
// on that instrument. Triggered executions are returned in account order.
func (m *Memory) OnTick(quote schema.Quote) ([]book.TriggerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quotes[quote.InstrumentID] = quote

	accountIDs := make([]uint64, 0, len(m.accounts))
	for id := range m.accounts {
		accountIDs = append(accountIDs, id)
	}
	sort.Slice(accountIDs, func(i, j int) bool { return accountIDs[i] < accountIDs[j] })

	var results []book.TriggerResult
	for _, id := range accountIDs {
		triggered := m.accounts[id].book.OnQuote(quote)
		for _, t := range triggered {
			if t.Transaction != nil {
				m.transactions = append(m.transactions, *t.Transaction)
			}
		}
		results = append(results, triggered...)
	}
	return results, nil
}

// ListOrders returns the account's audit log, oldest first.
func (m *Memory) ListOrders(filter Filter) ([]schema.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[filter.AccountID]
	if !ok {
		return nil, nil
	}
	orders := acct.led.Orders()
	if filter.InstrumentID == 0 {
		return orders, nil
	}
	out := orders[:0]
	for _, o := range orders {
		if o.InstrumentID == filter.InstrumentID {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListPendingOrders returns the account's resting orders sorted by ID.
func (m *Memory) ListPendingOrders(filter Filter) ([]schema.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[filter.AccountID]
	if !ok {
		return nil, nil
	}
	var pending []schema.Order
	if filter.InstrumentID == 0 {
		pending = acct.led.PendingOrders()
	} else {
		pending = acct.led.PendingByInstrument(filter.InstrumentID)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

// ListPositions returns the account's open positions sorted by instrument.
func (m *Memory) ListPositions(filter Filter) ([]schema.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[filter.AccountID]
	if !ok {
		return nil, nil
	}
	positions := acct.led.Positions()
	if filter.InstrumentID != 0 {
		out := positions[:0]
		for _, p := range positions {
			if p.InstrumentID == filter.InstrumentID {
				out = append(out, p)
			}
		}
		positions = out
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].InstrumentID < positions[j].InstrumentID
	})
	return positions, nil
}

// ListTransactions returns realized transactions for the account, oldest
// first.
func (m *Memory) ListTransactions(filter Filter) ([]schema.RealizedTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []schema.RealizedTransaction
	for _, txn := range m.transactions {
		if txn.AccountID != filter.AccountID {
			continue
		}
		if filter.InstrumentID != 0 && txn.InstrumentID != filter.InstrumentID {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

// Quote returns the latest quote for an instrument.
func (m *Memory) Quote(instrumentID uint32) (schema.Quote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	quote, ok := m.quotes[instrumentID]
	return quote, ok
}

// Ledger exposes the account's ledger for snapshotting.
func (m *Memory) Ledger(accountID uint64) *ledger.Ledger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[accountID]
	if !ok {
		return nil
	}
	return acct.led
}

// Ledgers returns every account ledger sorted by account.
func (m *Memory) Ledgers() []*ledger.Ledger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*ledger.Ledger, 0, len(m.accounts))
	for _, acct := range m.accounts {
		out = append(out, acct.led)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID() < out[j].AccountID() })
	return out
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
