package codec

import (
	"encoding/binary"

	"simex/internal/schema"
)

const QuotePayloadSize = 40

// EncodeQuote serializes a quote into a fixed-size payload.
func EncodeQuote(dst []byte, quote schema.Quote) []byte {
	if cap(dst) < QuotePayloadSize {
		dst = make([]byte, QuotePayloadSize)
	} else {
		dst = dst[:QuotePayloadSize]
	}

	binary.LittleEndian.PutUint32(dst[0:4], quote.InstrumentID)
	binary.LittleEndian.PutUint32(dst[4:8], 0)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(quote.Bid))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(quote.Ask))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(quote.Last))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(quote.Time))

	return dst
}

// DecodeQuote parses a fixed-size quote payload.
func DecodeQuote(src []byte) (schema.Quote, bool) {
	if len(src) < QuotePayloadSize {
		return schema.Quote{}, false
	}
	return schema.Quote{
		InstrumentID: binary.LittleEndian.Uint32(src[0:4]),
		Bid:          schema.Price(int64(binary.LittleEndian.Uint64(src[8:16]))),
		Ask:          schema.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		Last:         schema.Price(int64(binary.LittleEndian.Uint64(src[24:32]))),
		Time:         int64(binary.LittleEndian.Uint64(src[32:40])),
	}, true
}
