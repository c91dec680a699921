// Package gateway is the order entry point: it validates incoming orders
// against the latest quote, expands grouped orders, hands admissible ones to
// the store, and feeds the audit journal and metrics along the way.
package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"simex/internal/bus"
	"simex/internal/codec"
	"simex/internal/combo"
	"simex/internal/journal"
	"simex/internal/obs"
	"simex/internal/schema"
	"simex/internal/store"
	"simex/internal/validate"
)

var (
	ErrUnknownInstrument = errors.New("gateway: unknown instrument")
	ErrNoQuote           = errors.New("gateway: no quote for instrument")
)

// Config controls gateway behavior.
type Config struct {
	QueueSize int
}

// Gateway validates, expands, and routes orders. Quote ticks flow through a
// bounded queue so publishers never block on trigger evaluation.
type Gateway struct {
	cfg      Config
	registry *schema.Registry
	store    store.Store
	journal  *journal.Writer
	metrics  *obs.Metrics
	trace    *obs.TraceGenerator
	queue    *bus.Queue

	seq    uint64
	nextID uint64
}

// New creates a gateway. The journal writer and metrics are optional.
func New(cfg Config, registry *schema.Registry, st store.Store, jw *journal.Writer, metrics *obs.Metrics) *Gateway {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4096
	}
	return &Gateway{
		cfg:      cfg,
		registry: registry,
		store:    st,
		journal:  jw,
		metrics:  metrics,
		trace:    obs.NewTraceGenerator(0),
		queue:    bus.NewQueue(cfg.QueueSize),
	}
}

// SubmitResult reports the outcome of one submission. A group parent yields
// one store result per admitted leg; rejected legs carry their own
// rejection lists.
type SubmitResult struct {
	Rejections []validate.Error
	Results    []store.Result
}

// Rejected reports whether nothing was admitted.
func (r SubmitResult) Rejected() bool {
	return len(r.Results) == 0
}

// Submit validates the order against the latest quote and routes it. Group
// parents are expanded first; each admissible leg is routed independently
// and rejected legs are dropped, fail-soft.
func (g *Gateway) Submit(order schema.Order) (SubmitResult, error) {
	start := time.Now()

	quote, ok := g.store.Quote(order.InstrumentID)
	if !ok || quote.Empty() {
		return SubmitResult{}, ErrNoQuote
	}

	flat := []schema.Order{order}
	if order.Instruction == schema.InstructionGroup {
		flat = combo.Compose(order, quote)
	}

	var result SubmitResult
	for _, o := range flat {
		spec, ok := g.registry.Instrument(schema.InstrumentID(o.InstrumentID))
		if !ok {
			return result, ErrUnknownInstrument
		}
		if errs := validate.Check(o, quote, spec.Spec); len(errs) > 0 {
			g.metrics.IncRejection()
			result.Rejections = append(result.Rejections, errs...)
			continue
		}

		if o.ID == 0 {
			o.ID = atomic.AddUint64(&g.nextID, 1)
		}
		if o.Time == 0 {
			o.Time = quote.Time
		}

		stored, err := g.store.Store(o)
		if err != nil {
			return result, err
		}
		g.record(stored)
		result.Results = append(result.Results, stored)
	}

	g.metrics.ObserveSubmit(time.Since(start))
	return result, nil
}

// Cancel removes a pending order. Cancelling an absent ID is a no-op.
func (g *Gateway) Cancel(accountID, orderID uint64) (bool, error) {
	removed, err := g.store.Remove(accountID, orderID)
	if err != nil {
		return false, err
	}
	if removed {
		g.metrics.IncCancel()
	}
	return removed, nil
}

// Modify replaces a pending order's fields in place.
func (g *Gateway) Modify(order schema.Order) (bool, error) {
	return g.store.Update(order)
}

// OnQuote publishes a quote tick to the evaluation queue without blocking.
func (g *Gateway) OnQuote(quote schema.Quote) error {
	payload := codec.EncodeQuote(nil, quote)
	header := schema.NewHeader(schema.EventQuote, 0, atomic.AddUint64(&g.seq, 1), quote.Time)
	header.TraceID = g.trace.Next()

	err := g.queue.TryPublish(bus.Event{Header: header, Payload: payload})
	switch {
	case errors.Is(err, bus.ErrQueueFull):
		g.metrics.IncQueueDrop()
	case errors.Is(err, bus.ErrQueueClosed):
		g.metrics.IncQueueClosed()
	}
	return err
}

// Run consumes quote ticks and evaluates resting orders until the context
// is done or the queue is closed.
func (g *Gateway) Run(ctx context.Context) {
	g.queue.Run(ctx, func(e bus.Event) {
		if e.Header.Type != schema.EventQuote {
			return
		}
		quote, ok := codec.DecodeQuote(e.Payload)
		if !ok {
			logs.Errorf("gateway: short quote payload: seq=%d", e.Header.Seq)
			return
		}
		g.handleTick(quote)
	})
}

// Close stops the quote queue.
func (g *Gateway) Close() {
	g.queue.Close()
}

// Seq returns the last assigned event sequence number.
func (g *Gateway) Seq() uint64 {
	return atomic.LoadUint64(&g.seq)
}

func (g *Gateway) handleTick(quote schema.Quote) {
	start := time.Now()
	g.metrics.ObserveEvent(schema.NewHeader(schema.EventQuote, 0, 0, quote.Time))

	triggered, err := g.store.OnTick(quote)
	if err != nil {
		logs.Errorf("gateway: tick: %+v", err)
		return
	}
	for _, t := range triggered {
		g.metrics.IncTrigger()
		g.record(store.Result{
			Order:       t.Order,
			Fill:        &t.Fill,
			Position:    &t.Position,
			Transaction: t.Transaction,
		})
	}
	g.metrics.ObserveTick(time.Since(start))
}

// record journals the outcome of one routed order.
func (g *Gateway) record(result store.Result) {
	if result.Fill != nil {
		g.metrics.IncFill()
	}
	if g.journal == nil {
		return
	}

	g.append(schema.EventOrder, result.Order.AccountID, result.Order.Time,
		codec.EncodeOrder(nil, result.Order))
	if result.Fill != nil {
		g.append(schema.EventFill, result.Fill.AccountID, result.Fill.Time,
			codec.EncodeFill(nil, *result.Fill))
	}
	if result.Transaction != nil {
		g.append(schema.EventTransaction, result.Transaction.AccountID, result.Transaction.Time,
			codec.EncodeTransaction(nil, *result.Transaction))
	}
}

func (g *Gateway) append(eventType schema.EventType, accountID uint64, ts int64, payload []byte) {
	header := schema.NewHeader(eventType, accountID, atomic.AddUint64(&g.seq, 1), ts)
	header.TraceID = g.trace.Next()
	if err := g.journal.TryAppend(header, payload); err != nil {
		logs.Errorf("gateway: journal append: %+v", err)
	}
}
