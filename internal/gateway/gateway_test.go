package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simex/internal/obs"
	"simex/internal/schema"
	"simex/internal/store"
	"simex/internal/validate"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	venueID, err := reg.AddVenue("SIM")
	require.NoError(t, err)
	_, err = reg.AddInstrument("SIM-USD", venueID, schema.InstrumentSpec{
		Commission:   10,
		ContractSize: 100,
		StepSize:     1,
		StepValue:    100,
	})
	require.NoError(t, err)
	return reg
}

func testGateway(t *testing.T) (*Gateway, *store.Memory, *obs.Metrics) {
	t.Helper()
	memory := store.NewMemory()
	metrics := obs.NewMetrics()
	gw := New(Config{}, testRegistry(t), memory, nil, metrics)

	_, err := memory.OnTick(schema.Quote{InstrumentID: 1, Bid: 99, Ask: 101, Last: 100, Time: 1})
	require.NoError(t, err)
	return gw, memory, metrics
}

func marketBuy(volume schema.Quantity) schema.Order {
	return schema.Order{
		AccountID:    7,
		InstrumentID: 1,
		Side:         schema.SideBuy,
		Type:         schema.OrderTypeMarket,
		TimeInForce:  schema.TimeInForceGTC,
		Volume:       volume,
	}
}

func TestSubmitFillsAdmissibleOrder(t *testing.T) {
	gw, _, metrics := testGateway(t)

	result, err := gw.Submit(marketBuy(2))
	require.NoError(t, err)
	require.Len(t, result.Results, 1)

	stored := result.Results[0]
	assert.NotZero(t, stored.Order.ID, "gateway assigns IDs")
	require.NotNil(t, stored.Fill)
	assert.Equal(t, schema.Price(101), stored.Fill.Price)
	assert.Equal(t, uint64(1), metrics.Snapshot().Fills)
}

func TestSubmitRejectsInadmissibleOrder(t *testing.T) {
	gw, _, metrics := testGateway(t)

	bad := marketBuy(0)
	result, err := gw.Submit(bad)
	require.NoError(t, err)

	assert.True(t, result.Rejected())
	require.NotEmpty(t, result.Rejections)
	assert.Equal(t, validate.KindMissingField, result.Rejections[0].Kind)
	assert.Equal(t, uint64(1), metrics.Snapshot().Rejections)
}

func TestSubmitWithoutQuote(t *testing.T) {
	memory := store.NewMemory()
	gw := New(Config{}, testRegistry(t), memory, nil, nil)

	_, err := gw.Submit(marketBuy(2))
	require.ErrorIs(t, err, ErrNoQuote)
}

func TestSubmitUnknownInstrument(t *testing.T) {
	gw, memory, _ := testGateway(t)
	_, err := memory.OnTick(schema.Quote{InstrumentID: 9, Bid: 99, Ask: 101, Last: 100, Time: 1})
	require.NoError(t, err)

	order := marketBuy(2)
	order.InstrumentID = 9
	_, err = gw.Submit(order)
	require.ErrorIs(t, err, ErrUnknownInstrument)
}

func TestSubmitExpandsGroupParent(t *testing.T) {
	gw, _, _ := testGateway(t)

	parent := marketBuy(5)
	parent.Instruction = schema.InstructionGroup
	parent.Children = []schema.Order{
		{Side: schema.SideBuy, Volume: 2, Instruction: schema.InstructionSide},
		{Side: schema.SideSell, Volume: 0, Instruction: schema.InstructionSide},
		{Side: schema.SideSell, Volume: 3, Instruction: schema.InstructionSide},
	}

	result, err := gw.Submit(parent)
	require.NoError(t, err)
	assert.Len(t, result.Results, 2, "volume-less legs are dropped")
}

func TestCancelAbsentIsNoop(t *testing.T) {
	gw, _, metrics := testGateway(t)

	removed, err := gw.Cancel(7, 42)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, metrics.Snapshot().Cancels)
}

func TestCancelPendingOrder(t *testing.T) {
	gw, _, metrics := testGateway(t)

	stop := marketBuy(2)
	stop.Type = schema.OrderTypeStop
	stop.LimitPrice = 110
	result, err := gw.Submit(stop)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	require.True(t, result.Results[0].Rested)

	removed, err := gw.Cancel(7, result.Results[0].Order.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, uint64(1), metrics.Snapshot().Cancels)
}

func TestQuoteFlowTriggersRestingOrders(t *testing.T) {
	gw, _, metrics := testGateway(t)

	stop := marketBuy(2)
	stop.Type = schema.OrderTypeStop
	stop.LimitPrice = 110
	_, err := gw.Submit(stop)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		gw.Run(ctx)
	}()

	require.NoError(t, gw.OnQuote(schema.Quote{InstrumentID: 1, Bid: 109, Ask: 110, Last: 109, Time: 2}))

	require.Eventually(t, func() bool {
		return metrics.Snapshot().Triggers == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	gw.Close()
	wg.Wait()
}
