package codec

import (
	"encoding/binary"

	"simex/internal/schema"
)

const TransactionPayloadSize = 56

// EncodeTransaction serializes a realized transaction into a fixed-size
// payload.
func EncodeTransaction(dst []byte, txn schema.RealizedTransaction) []byte {
	if cap(dst) < TransactionPayloadSize {
		dst = make([]byte, TransactionPayloadSize)
	} else {
		dst = dst[:TransactionPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], txn.OrderID)
	binary.LittleEndian.PutUint64(dst[8:16], txn.AccountID)
	binary.LittleEndian.PutUint32(dst[16:20], txn.InstrumentID)
	binary.LittleEndian.PutUint16(dst[20:22], uint16(txn.Side))
	binary.LittleEndian.PutUint16(dst[22:24], 0)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(txn.EntryPrice))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(txn.ExitPrice))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(txn.Volume))
	binary.LittleEndian.PutUint64(dst[48:56], uint64(txn.Time))

	return dst
}

// DecodeTransaction parses a fixed-size realized transaction payload.
func DecodeTransaction(src []byte) (schema.RealizedTransaction, bool) {
	if len(src) < TransactionPayloadSize {
		return schema.RealizedTransaction{}, false
	}
	return schema.RealizedTransaction{
		OrderID:      binary.LittleEndian.Uint64(src[0:8]),
		AccountID:    binary.LittleEndian.Uint64(src[8:16]),
		InstrumentID: binary.LittleEndian.Uint32(src[16:20]),
		Side:         schema.Side(binary.LittleEndian.Uint16(src[20:22])),
		EntryPrice:   schema.Price(int64(binary.LittleEndian.Uint64(src[24:32]))),
		ExitPrice:    schema.Price(int64(binary.LittleEndian.Uint64(src[32:40]))),
		Volume:       schema.Quantity(int64(binary.LittleEndian.Uint64(src[40:48]))),
		Time:         int64(binary.LittleEndian.Uint64(src[48:56])),
	}, true
}
