package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simex/internal/schema"
)

func tick(m *Memory, bid, ask schema.Price, ts int64) {
	_, err := m.OnTick(schema.Quote{InstrumentID: 1, Bid: bid, Ask: ask, Last: bid, Time: ts})
	if err != nil {
		panic(err)
	}
}

func marketBuy(id, account uint64, volume schema.Quantity) schema.Order {
	return schema.Order{
		ID:           id,
		AccountID:    account,
		InstrumentID: 1,
		Side:         schema.SideBuy,
		Type:         schema.OrderTypeMarket,
		TimeInForce:  schema.TimeInForceGTC,
		Volume:       volume,
	}
}

func TestStoreWithoutQuote(t *testing.T) {
	m := NewMemory()
	_, err := m.Store(marketBuy(1, 7, 2))
	require.ErrorIs(t, err, ErrNoQuote)
}

func TestStoreRejectsGroupParent(t *testing.T) {
	m := NewMemory()
	tick(m, 99, 101, 1)

	parent := marketBuy(1, 7, 2)
	parent.Instruction = schema.InstructionGroup
	_, err := m.Store(parent)
	require.ErrorIs(t, err, ErrGroupOrder)
}

func TestStoreFillsMarketImmediately(t *testing.T) {
	m := NewMemory()
	tick(m, 99, 101, 1)

	result, err := m.Store(marketBuy(1, 7, 2))
	require.NoError(t, err)

	assert.False(t, result.Rested)
	require.NotNil(t, result.Fill)
	assert.Equal(t, schema.Price(101), result.Fill.Price)
	assert.Equal(t, schema.OrderStatusFilled, result.Order.Status)

	positions, err := m.ListPositions(Filter{AccountID: 7})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, schema.Quantity(2), positions[0].Volume)
}

func TestStoreRestsUntriggeredOrder(t *testing.T) {
	m := NewMemory()
	tick(m, 99, 101, 1)

	stop := marketBuy(1, 7, 2)
	stop.Type = schema.OrderTypeStop
	stop.LimitPrice = 110

	result, err := m.Store(stop)
	require.NoError(t, err)
	assert.True(t, result.Rested)
	assert.Equal(t, schema.OrderStatusPlaced, result.Order.Status)
	assert.Nil(t, result.Fill)

	pending, err := m.ListPendingOrders(Filter{AccountID: 7})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	triggered, err := m.OnTick(schema.Quote{InstrumentID: 1, Bid: 109, Ask: 110, Last: 109, Time: 2})
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, schema.Price(110), triggered[0].Fill.Price)

	pending, _ = m.ListPendingOrders(Filter{AccountID: 7})
	assert.Empty(t, pending)
}

func TestOnTickRecordsTransactions(t *testing.T) {
	m := NewMemory()
	tick(m, 99, 101, 1)

	_, err := m.Store(marketBuy(1, 7, 2))
	require.NoError(t, err)

	exit := marketBuy(2, 7, 2)
	exit.Side = schema.SideSell
	exit.Type = schema.OrderTypeLimit
	exit.LimitPrice = 120

	result, err := m.Store(exit)
	require.NoError(t, err)
	require.True(t, result.Rested)

	triggered, err := m.OnTick(schema.Quote{InstrumentID: 1, Bid: 120, Ask: 121, Last: 120, Time: 2})
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	require.NotNil(t, triggered[0].Transaction)

	txns, err := m.ListTransactions(Filter{AccountID: 7})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, schema.Price(101), txns[0].EntryPrice)
	assert.Equal(t, schema.Price(120), txns[0].ExitPrice)

	positions, _ := m.ListPositions(Filter{AccountID: 7})
	assert.Empty(t, positions)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	m := NewMemory()
	removed, err := m.Remove(7, 42)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRemoveCancelsPending(t *testing.T) {
	m := NewMemory()
	tick(m, 99, 101, 1)

	stop := marketBuy(1, 7, 2)
	stop.Type = schema.OrderTypeStop
	stop.LimitPrice = 110
	_, err := m.Store(stop)
	require.NoError(t, err)

	removed, err := m.Remove(7, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, _ = m.Remove(7, 1)
	assert.False(t, removed)
}

func TestUpdatePending(t *testing.T) {
	m := NewMemory()
	tick(m, 99, 101, 1)

	stop := marketBuy(1, 7, 2)
	stop.Type = schema.OrderTypeStop
	stop.LimitPrice = 110
	_, err := m.Store(stop)
	require.NoError(t, err)

	stop.LimitPrice = 130
	ok, err := m.Update(stop)
	require.NoError(t, err)
	require.True(t, ok)

	pending, _ := m.ListPendingOrders(Filter{AccountID: 7})
	require.Len(t, pending, 1)
	assert.Equal(t, schema.Price(130), pending[0].LimitPrice)

	triggered, err := m.OnTick(schema.Quote{InstrumentID: 1, Bid: 109, Ask: 110, Last: 109, Time: 2})
	require.NoError(t, err)
	assert.Empty(t, triggered, "updated trigger price must be the one evaluated")
}

func TestListOrdersIsAuditLog(t *testing.T) {
	m := NewMemory()
	tick(m, 99, 101, 1)

	_, err := m.Store(marketBuy(1, 7, 2))
	require.NoError(t, err)

	stop := marketBuy(2, 7, 1)
	stop.Type = schema.OrderTypeStop
	stop.LimitPrice = 110
	_, err = m.Store(stop)
	require.NoError(t, err)

	orders, err := m.ListOrders(Filter{AccountID: 7})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, schema.OrderStatusFilled, orders[0].Status)
	assert.Equal(t, schema.OrderStatusPlaced, orders[1].Status)
}

func TestAccountsAreIsolated(t *testing.T) {
	m := NewMemory()
	tick(m, 99, 101, 1)

	_, err := m.Store(marketBuy(1, 7, 2))
	require.NoError(t, err)
	_, err = m.Store(marketBuy(2, 8, 3))
	require.NoError(t, err)

	p7, _ := m.ListPositions(Filter{AccountID: 7})
	p8, _ := m.ListPositions(Filter{AccountID: 8})
	require.Len(t, p7, 1)
	require.Len(t, p8, 1)
	assert.Equal(t, schema.Quantity(2), p7[0].Volume)
	assert.Equal(t, schema.Quantity(3), p8[0].Volume)
}
