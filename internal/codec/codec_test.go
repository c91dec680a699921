package codec

import (
	"reflect"
	"testing"

	"simex/internal/schema"
)

func TestOrderRoundTrip(t *testing.T) {
	orig := schema.Order{
		ID:              42,
		AccountID:       7,
		InstrumentID:    3,
		Side:            schema.SideSell,
		Type:            schema.OrderTypeStopLimit,
		TimeInForce:     schema.TimeInForceGTC,
		Status:          schema.OrderStatusPlaced,
		Instruction:     schema.InstructionSide,
		Volume:          500,
		LimitPrice:      10_050_000,
		ActivationPrice: 10_100_000,
		Time:            1700000000123,
	}

	encoded := EncodeOrder(nil, orig)
	if len(encoded) != OrderPayloadSize {
		t.Fatalf("unexpected payload size: %d", len(encoded))
	}
	decoded, ok := DecodeOrder(encoded)
	if !ok {
		t.Fatal("decode failed")
	}
	if len(decoded.Children) != 0 {
		t.Fatalf("children must not survive the wire: %+v", decoded.Children)
	}
	if !reflect.DeepEqual(decoded, orig) {
		t.Fatalf("order round-trip mismatch: got %+v want %+v", decoded, orig)
	}
}

func TestFillRoundTrip(t *testing.T) {
	orig := schema.Fill{
		OrderID:      42,
		AccountID:    7,
		InstrumentID: 3,
		Side:         schema.SideBuy,
		Price:        10_050_000,
		Volume:       500,
		Time:         1700000000123,
	}

	decoded, ok := DecodeFill(EncodeFill(nil, orig))
	if !ok {
		t.Fatal("decode failed")
	}
	if decoded != orig {
		t.Fatalf("fill round-trip mismatch: got %+v want %+v", decoded, orig)
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	orig := schema.Quote{
		InstrumentID: 3,
		Bid:          10_000_000,
		Ask:          10_010_000,
		Last:         10_005_000,
		Time:         1700000000123,
	}

	decoded, ok := DecodeQuote(EncodeQuote(nil, orig))
	if !ok {
		t.Fatal("decode failed")
	}
	if decoded != orig {
		t.Fatalf("quote round-trip mismatch: got %+v want %+v", decoded, orig)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	orig := schema.RealizedTransaction{
		OrderID:      42,
		AccountID:    7,
		InstrumentID: 3,
		Side:         schema.SideShort,
		EntryPrice:   10_100_000,
		ExitPrice:    10_000_000,
		Volume:       500,
		Time:         1700000000123,
	}

	decoded, ok := DecodeTransaction(EncodeTransaction(nil, orig))
	if !ok {
		t.Fatal("decode failed")
	}
	if decoded != orig {
		t.Fatalf("transaction round-trip mismatch: got %+v want %+v", decoded, orig)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	if _, ok := DecodeOrder(make([]byte, OrderPayloadSize-1)); ok {
		t.Fatal("short order buffer must not decode")
	}
	if _, ok := DecodeFill(make([]byte, FillPayloadSize-1)); ok {
		t.Fatal("short fill buffer must not decode")
	}
	if _, ok := DecodeQuote(make([]byte, QuotePayloadSize-1)); ok {
		t.Fatal("short quote buffer must not decode")
	}
	if _, ok := DecodeTransaction(make([]byte, TransactionPayloadSize-1)); ok {
		t.Fatal("short transaction buffer must not decode")
	}
}

func TestEncodeReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 128)
	out := EncodeFill(buf, schema.Fill{OrderID: 1})
	if &out[0] != &buf[:1][0] {
		t.Fatal("encode should reuse a buffer with enough capacity")
	}
}
