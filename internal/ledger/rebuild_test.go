package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simex/internal/codec"
	"simex/internal/schema"
)

type journaled struct {
	order schema.Order
	fill  schema.Fill
}

func sellOrder(id uint64, volume schema.Quantity) schema.Order {
	o := buyOrder(id, volume)
	o.Side = schema.SideSell
	return o
}

func replaySequence() []journaled {
	records := make([]journaled, 0, 4)
	for _, step := range []struct {
		order schema.Order
		price schema.Price
	}{
		{buyOrder(1, 2), 101},
		{buyOrder(2, 1), 110},
		{sellOrder(3, 3), 120},
		{buyOrder(4, 5), 90},
	} {
		records = append(records, journaled{order: step.order, fill: fillFor(step.order, step.price)})
	}
	return records
}

func TestRebuildMatchesLiveLedger(t *testing.T) {
	live := New(7)
	for _, rec := range replaySequence() {
		live.Apply(rec.order, rec.fill)
	}

	rebuilder := NewRebuilder()
	seq := uint64(0)
	for _, rec := range replaySequence() {
		seq++
		orderHeader := schema.NewHeader(schema.EventOrder, 7, seq, rec.order.Time)
		require.NoError(t, rebuilder.Handle(orderHeader, codec.EncodeOrder(nil, rec.order)))

		seq++
		fillHeader := schema.NewHeader(schema.EventFill, 7, seq, rec.fill.Time)
		require.NoError(t, rebuilder.Handle(fillHeader, codec.EncodeFill(nil, rec.fill)))
	}

	rebuilt := rebuilder.Ledger(7)
	require.NotNil(t, rebuilt)
	assert.Equal(t, live.OrderCount(), rebuilt.OrderCount())
	assert.Equal(t, live.Orders(), rebuilt.Orders())
	assert.Equal(t, uint64(8), rebuilder.LastSeq())

	expected := BuildSnapshot([]*Ledger{live}, rebuilder.LastSeq())
	require.NoError(t, CompareSnapshots(expected, rebuilder.Snapshot()))
}

func TestRebuildSkipsDerivableRecords(t *testing.T) {
	rebuilder := NewRebuilder()

	quote := schema.Quote{InstrumentID: 1, Bid: 99, Ask: 101, Last: 100, Time: 1}
	header := schema.NewHeader(schema.EventQuote, 0, 1, quote.Time)
	require.NoError(t, rebuilder.Handle(header, codec.EncodeQuote(nil, quote)))

	assert.Empty(t, rebuilder.Ledgers())
	assert.Equal(t, uint64(1), rebuilder.LastSeq())
}

func TestRebuildRejectsShortPayload(t *testing.T) {
	rebuilder := NewRebuilder()
	header := schema.NewHeader(schema.EventOrder, 7, 1, 1)
	require.Error(t, rebuilder.Handle(header, []byte{0x01}))
}

func TestRebuildSeparatesAccounts(t *testing.T) {
	rebuilder := NewRebuilder()

	for i, account := range []uint64{9, 3} {
		order := buyOrder(uint64(i+1), 1)
		order.AccountID = account
		fill := fillFor(order, 100)
		header := schema.NewHeader(schema.EventFill, account, uint64(i+1), fill.Time)
		require.NoError(t, rebuilder.Handle(header, codec.EncodeFill(nil, fill)))
	}

	ledgers := rebuilder.Ledgers()
	require.Len(t, ledgers, 2)
	assert.Equal(t, uint64(3), ledgers[0].AccountID())
	assert.Equal(t, uint64(9), ledgers[1].AccountID())
}
