package combo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simex/internal/schema"
)

var quote = schema.Quote{InstrumentID: 1, Bid: 99, Ask: 101, Last: 100, Time: 42}

func groupParent(children ...schema.Order) schema.Order {
	return schema.Order{
		ID:           1,
		AccountID:    7,
		InstrumentID: 1,
		Side:         schema.SideBuy,
		Type:         schema.OrderTypeLimit,
		TimeInForce:  schema.TimeInForceIOC,
		Instruction:  schema.InstructionGroup,
		Volume:       10,
		Children:     children,
	}
}

func TestComposeNonGroupReturnsNil(t *testing.T) {
	single := groupParent()
	single.Instruction = schema.InstructionSingle
	assert.Nil(t, Compose(single, quote))
}

func TestComposeInheritsParentContext(t *testing.T) {
	parent := groupParent(
		schema.Order{Side: schema.SideBuy, Volume: 2, Instruction: schema.InstructionSide},
		schema.Order{Side: schema.SideSell, Volume: 3, Instruction: schema.InstructionSide},
	)

	legs := Compose(parent, quote)
	require.Len(t, legs, 2)

	for _, leg := range legs {
		assert.Equal(t, parent.AccountID, leg.AccountID)
		assert.Equal(t, parent.InstrumentID, leg.InstrumentID)
		assert.Equal(t, parent.Type, leg.Type)
		assert.Equal(t, parent.TimeInForce, leg.TimeInForce)
		assert.Equal(t, schema.InstructionSide, leg.Instruction)
		assert.Equal(t, quote.Time, leg.Time)
	}
	assert.Equal(t, quote.Ask, legs[0].LimitPrice, "buy legs price at the ask")
	assert.Equal(t, quote.Bid, legs[1].LimitPrice, "sell legs price at the bid")
}

func TestComposeDropsVolumelessChildren(t *testing.T) {
	parent := groupParent(
		schema.Order{Side: schema.SideBuy, Volume: 0, Instruction: schema.InstructionSide},
		schema.Order{Side: schema.SideSell, Volume: 3, Instruction: schema.InstructionSide},
	)

	legs := Compose(parent, quote)
	require.Len(t, legs, 1)
	assert.Equal(t, schema.SideSell, legs[0].Side)
}

func TestComposeSidelessChildKeepsNoPrice(t *testing.T) {
	parent := groupParent(
		schema.Order{Volume: 2, Instruction: schema.InstructionSide},
	)

	legs := Compose(parent, quote)
	require.Len(t, legs, 1)
	assert.Equal(t, schema.SideUnknown, legs[0].Side)
	assert.Equal(t, schema.Price(0), legs[0].LimitPrice)
}

func TestComposeSkipsNestedGroups(t *testing.T) {
	parent := groupParent(
		schema.Order{Side: schema.SideBuy, Volume: 2, Instruction: schema.InstructionGroup},
		schema.Order{Side: schema.SideSell, Volume: 3},
	)

	legs := Compose(parent, quote)
	require.Len(t, legs, 1)
	assert.Equal(t, schema.SideSell, legs[0].Side)
}
