package obs

import (
	"sync/atomic"
	"time"

	"simex/internal/schema"
)

const maxEventType = int(schema.EventTransaction)

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	eventCounts [maxEventType + 1]uint64
	rejections  uint64
	fills       uint64
	triggers    uint64
	cancels     uint64
	queueDrops  uint64
	queueClosed uint64

	submitLatency LatencyStats
	tickLatency   LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts   map[schema.EventType]uint64
	Rejections    uint64
	Fills         uint64
	Triggers      uint64
	Cancels       uint64
	QueueDrops    uint64
	QueueClosed   uint64
	SubmitLatency LatencySnapshot
	TickLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent increments the per-type event counter.
func (m *Metrics) ObserveEvent(header schema.EventHeader) {
	if m == nil {
		return
	}
	idx := int(header.Type)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
}

// IncRejection records an order rejected by validation.
func (m *Metrics) IncRejection() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.rejections, 1)
}

// IncFill records an executed fill.
func (m *Metrics) IncFill() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.fills, 1)
}

// IncTrigger records a resting order triggered by a quote.
func (m *Metrics) IncTrigger() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.triggers, 1)
}

// IncCancel records a cancelled pending order.
func (m *Metrics) IncCancel() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.cancels, 1)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// ObserveSubmit measures end-to-end order submission latency.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(d)
}

// ObserveTick measures quote tick evaluation latency.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[schema.EventType]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			eventCounts[schema.EventType(i)] = v
		}
	}
	return Snapshot{
		EventCounts:   eventCounts,
		Rejections:    atomic.LoadUint64(&m.rejections),
		Fills:         atomic.LoadUint64(&m.fills),
		Triggers:      atomic.LoadUint64(&m.triggers),
		Cancels:       atomic.LoadUint64(&m.cancels),
		QueueDrops:    atomic.LoadUint64(&m.queueDrops),
		QueueClosed:   atomic.LoadUint64(&m.queueClosed),
		SubmitLatency: m.submitLatency.Snapshot(),
		TickLatency:   m.tickLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
