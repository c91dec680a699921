package codec

import (
	"encoding/binary"

	"simex/internal/schema"
)

const OrderPayloadSize = 64

// EncodeOrder serializes an order into a fixed-size payload. Children are
// not part of the wire form: group parents are expanded before they reach
// the journal, so only flat orders are recorded.
func EncodeOrder(dst []byte, order schema.Order) []byte {
	if cap(dst) < OrderPayloadSize {
		dst = make([]byte, OrderPayloadSize)
	} else {
		dst = dst[:OrderPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], order.ID)
	binary.LittleEndian.PutUint64(dst[8:16], order.AccountID)
	binary.LittleEndian.PutUint32(dst[16:20], order.InstrumentID)
	binary.LittleEndian.PutUint16(dst[20:22], uint16(order.Side))
	binary.LittleEndian.PutUint16(dst[22:24], uint16(order.Type))
	binary.LittleEndian.PutUint16(dst[24:26], uint16(order.TimeInForce))
	binary.LittleEndian.PutUint16(dst[26:28], uint16(order.Status))
	binary.LittleEndian.PutUint16(dst[28:30], uint16(order.Instruction))
	binary.LittleEndian.PutUint16(dst[30:32], 0)
	binary.LittleEndian.PutUint64(dst[32:40], uint64(order.Volume))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(order.LimitPrice))
	binary.LittleEndian.PutUint64(dst[48:56], uint64(order.ActivationPrice))
	binary.LittleEndian.PutUint64(dst[56:64], uint64(order.Time))

	return dst
}

// DecodeOrder parses a fixed-size order payload.
func DecodeOrder(src []byte) (schema.Order, bool) {
	if len(src) < OrderPayloadSize {
		return schema.Order{}, false
	}
	return schema.Order{
		ID:              binary.LittleEndian.Uint64(src[0:8]),
		AccountID:       binary.LittleEndian.Uint64(src[8:16]),
		InstrumentID:    binary.LittleEndian.Uint32(src[16:20]),
		Side:            schema.Side(binary.LittleEndian.Uint16(src[20:22])),
		Type:            schema.OrderType(binary.LittleEndian.Uint16(src[22:24])),
		TimeInForce:     schema.TimeInForce(binary.LittleEndian.Uint16(src[24:26])),
		Status:          schema.OrderStatus(binary.LittleEndian.Uint16(src[26:28])),
		Instruction:     schema.Instruction(binary.LittleEndian.Uint16(src[28:30])),
		Volume:          schema.Quantity(int64(binary.LittleEndian.Uint64(src[32:40]))),
		LimitPrice:      schema.Price(int64(binary.LittleEndian.Uint64(src[40:48]))),
		ActivationPrice: schema.Price(int64(binary.LittleEndian.Uint64(src[48:56]))),
		Time:            int64(binary.LittleEndian.Uint64(src[56:64])),
	}, true
}
