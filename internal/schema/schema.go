package schema

// SchemaVersion is the current audit event schema version.
const SchemaVersion uint16 = 1

// EventType defines the category of an event stored in the audit journal.
type EventType uint16

const (
	EventUnknown EventType = iota
	EventQuote
	EventOrder
	EventFill
	EventTransaction
)

// EventHeader is the common metadata attached to every audit event.
type EventHeader struct {
	Type      EventType
	Version   uint16
	Flags     uint16
	AccountID uint64
	Seq       uint64
	Ts        int64
	TraceID   uint64
}

// NewHeader builds a header with the current schema version.
func NewHeader(eventType EventType, accountID, seq uint64, ts int64) EventHeader {
	return EventHeader{
		Type:      eventType,
		Version:   SchemaVersion,
		AccountID: accountID,
		Seq:       seq,
		Ts:        ts,
	}
}
