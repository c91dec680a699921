package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/shopspring/decimal"

	"simex/internal/gateway"
	"simex/internal/journal"
	"simex/internal/ledger"
	"simex/internal/obs"
	"simex/internal/ops"
	"simex/internal/schema"
	"simex/internal/store"
	"simex/pkg/conn"
)

type runtimeConfig struct {
	v atomic.Value
}

func newRuntimeConfig(loaded ops.Loaded) *runtimeConfig {
	var rc runtimeConfig
	rc.v.Store(loaded)
	return &rc
}

func (r *runtimeConfig) Load() ops.Loaded {
	return r.v.Load().(ops.Loaded)
}

func (r *runtimeConfig) Update(loaded ops.Loaded) {
	r.v.Store(loaded)
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	snapshotPath := flag.String("snapshot-path", "", "Position snapshot output (default: <journal-dir>/positions.json)")
	tickInterval := flag.Duration("tick-interval", 100*time.Millisecond, "Synthetic quote interval")
	snapshotInterval := flag.Duration("snapshot-interval", time.Minute, "Snapshot write interval (0=disable)")
	metricsInterval := flag.Duration("metrics-interval", 30*time.Second, "Metrics log interval (0=disable)")
	startPrice := flag.String("start-price", "100", "Starting quote price")
	spread := flag.String("spread", "0.01", "Bid/ask spread")
	accounts := flag.Int("accounts", 2, "Number of demo accounts")
	seed := flag.Int64("seed", 0, "Quote walk seed (0=time based)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	runtime := newRuntimeConfig(loaded)

	if loaded.Features.EnableProfiler {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "simexd",
			ServerAddress:   "http://localhost:4040",
			Tags: map[string]string{
				"env": "local",
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	if watcher, err := ops.NewWatcher(*configPath, 0); err == nil {
		defer watcher.Close()
		go watcher.Run(ctx, func(next ops.Loaded) {
			runtime.Update(next)
			log.Printf("config reloaded: %s", *configPath)
		})
	} else {
		log.Printf("config watch disabled: %v", err)
	}

	memory := store.NewMemory()
	var st store.Store = memory
	if loaded.PostgresEnabled {
		client, err := conn.New(loaded.Postgres)
		if err != nil {
			log.Fatalf("postgres connect failed: %v", err)
		}
		defer client.Close()
		wb := store.NewWriteBehind(memory, client.DB(), loaded.PostgresQueue)
		if err := wb.Migrate(); err != nil {
			log.Fatalf("postgres migrate failed: %v", err)
		}
		wb.Start(ctx)
		st = wb
	}

	var jw *journal.Writer
	if loaded.Features.EnableJournal {
		jw, err = journal.NewWriter(loaded.Journal)
		if err != nil {
			log.Fatalf("journal init failed: %v", err)
		}
		if err := jw.Start(ctx); err != nil {
			log.Fatalf("journal start failed: %v", err)
		}
	}

	metrics := obs.NewMetrics()
	gw := gateway.New(gateway.Config{QueueSize: loaded.GatewayQueueSize}, loaded.Registry, st, jw, metrics)
	go gw.Run(ctx)

	if err := runSession(ctx, sessionConfig{
		runtime:          runtime,
		gateway:          gw,
		memory:           memory,
		tickInterval:     *tickInterval,
		snapshotInterval: *snapshotInterval,
		metricsInterval:  *metricsInterval,
		startPrice:       *startPrice,
		spread:           *spread,
		accounts:         *accounts,
		seed:             *seed,
		metrics:          metrics,
	}); err != nil {
		log.Fatalf("session failed: %v", err)
	}

	gw.Close()
	if jw != nil {
		if err := jw.Close(); err != nil {
			log.Printf("journal close: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		log.Printf("store close: %v", err)
	}

	out := resolveSnapshotPath(loaded.Journal.Dir, *snapshotPath)
	snapshot := ledger.BuildSnapshot(memory.Ledgers(), gw.Seq())
	if err := ledger.WriteSnapshot(out, snapshot); err != nil {
		log.Fatalf("snapshot write failed: %v", err)
	}
	log.Printf("snapshot written: %s accounts=%d", out, len(snapshot.Accounts))

	m := metrics.Snapshot()
	log.Printf("metrics: events=%v fills=%d triggers=%d cancels=%d rejections=%d drops=%d submit=%+v tick=%+v",
		m.EventCounts, m.Fills, m.Triggers, m.Cancels, m.Rejections, m.QueueDrops, m.SubmitLatency, m.TickLatency)
}

type sessionConfig struct {
	runtime          *runtimeConfig
	gateway          *gateway.Gateway
	memory           *store.Memory
	tickInterval     time.Duration
	snapshotInterval time.Duration
	metricsInterval  time.Duration
	startPrice       string
	spread           string
	accounts         int
	seed             int64
	metrics          *obs.Metrics
}

// runSession streams a synthetic quote walk over every instrument, seeds a
// demo order set per account, and keeps evaluating until shutdown.
func runSession(ctx context.Context, cfg sessionConfig) error {
	loaded := cfg.runtime.Load()
	registry := loaded.Registry
	if registry.InstrumentCount() == 0 {
		log.Printf("no instruments configured, idling")
		<-ctx.Done()
		return nil
	}

	seed := cfg.seed
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	walks := make([]*quoteWalk, 0, registry.InstrumentCount())
	for i := 0; i < registry.InstrumentCount(); i++ {
		inst, _ := registry.InstrumentAt(i)
		walk, err := newQuoteWalk(inst, cfg.startPrice, cfg.spread, rng)
		if err != nil {
			return err
		}
		walks = append(walks, walk)
	}

	ticker := time.NewTicker(cfg.tickInterval)
	defer ticker.Stop()

	var snapshotC, metricsC <-chan time.Time
	if cfg.snapshotInterval > 0 {
		t := time.NewTicker(cfg.snapshotInterval)
		defer t.Stop()
		snapshotC = t.C
	}
	if cfg.metricsInterval > 0 {
		t := time.NewTicker(cfg.metricsInterval)
		defer t.Stop()
		metricsC = t.C
	}

	// Prime every instrument with a first quote, then seed demo orders so
	// the books have something to trigger.
	for _, walk := range walks {
		if err := cfg.gateway.OnQuote(walk.next()); err != nil {
			log.Printf("quote publish: %v", err)
		}
	}
	time.Sleep(cfg.tickInterval)
	seedDemoOrders(cfg.gateway, walks, cfg.accounts, rng)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, walk := range walks {
				if err := cfg.gateway.OnQuote(walk.next()); err != nil {
					log.Printf("quote publish: %v", err)
				}
			}
		case <-snapshotC:
			loaded = cfg.runtime.Load()
			out := resolveSnapshotPath(loaded.Journal.Dir, "")
			snapshot := ledger.BuildSnapshot(cfg.memory.Ledgers(), cfg.gateway.Seq())
			if err := ledger.WriteSnapshot(out, snapshot); err != nil {
				log.Printf("snapshot write: %v", err)
			}
		case <-metricsC:
			m := cfg.metrics.Snapshot()
			log.Printf("metrics: fills=%d triggers=%d rejections=%d drops=%d tick=%+v",
				m.Fills, m.Triggers, m.Rejections, m.QueueDrops, m.TickLatency)
		}
	}
}

// quoteWalk is a bounded random walk in scaled price units.
type quoteWalk struct {
	instrumentID uint32
	mid          schema.Price
	halfSpread   schema.Price
	step         schema.Price
	floor        schema.Price
	rng          *rand.Rand
}

func newQuoteWalk(inst schema.Instrument, startPrice, spread string, rng *rand.Rand) (*quoteWalk, error) {
	scale := inst.Spec.Scale.PriceScale
	mid, err := parsePrice(startPrice, scale)
	if err != nil {
		return nil, err
	}
	spreadPrice, err := parsePrice(spread, scale)
	if err != nil {
		return nil, err
	}
	half := spreadPrice / 2
	if half <= 0 {
		half = 1
	}
	step := mid / 1000
	if step <= 0 {
		step = 1
	}
	return &quoteWalk{
		instrumentID: uint32(inst.ID),
		mid:          mid,
		halfSpread:   half,
		step:         step,
		floor:        half * 4,
		rng:          rng,
	}, nil
}

func (w *quoteWalk) next() schema.Quote {
	delta := schema.Price(w.rng.Int63n(int64(w.step)*2+1)) - w.step
	w.mid += delta
	if w.mid < w.floor {
		w.mid = w.floor
	}
	return schema.Quote{
		InstrumentID: w.instrumentID,
		Bid:          w.mid - w.halfSpread,
		Ask:          w.mid + w.halfSpread,
		Last:         w.mid,
		Time:         time.Now().UTC().UnixNano(),
	}
}

func parsePrice(s string, scale schema.Scale) (schema.Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return schema.Price(d.Shift(int32(scale)).IntPart()), nil
}

// seedDemoOrders opens a market position per account and brackets it with a
// resting stop and limit on each instrument.
func seedDemoOrders(gw *gateway.Gateway, walks []*quoteWalk, accounts int, rng *rand.Rand) {
	for acct := 1; acct <= accounts; acct++ {
		for _, walk := range walks {
			volume := schema.Quantity(1 + rng.Int63n(5))
			parent := schema.Order{
				AccountID:    uint64(acct),
				InstrumentID: walk.instrumentID,
				Side:         schema.SideBuy,
				Type:         schema.OrderTypeMarket,
				TimeInForce:  schema.TimeInForceGTC,
				Instruction:  schema.InstructionSingle,
				Volume:       volume,
			}
			if _, err := gw.Submit(parent); err != nil {
				log.Printf("demo order: %v", err)
				continue
			}

			stop := parent
			stop.Type = schema.OrderTypeStop
			stop.LimitPrice = walk.mid + walk.step*20
			if _, err := gw.Submit(stop); err != nil {
				log.Printf("demo stop: %v", err)
			}

			exit := parent
			exit.Side = schema.SideSell
			exit.Type = schema.OrderTypeLimit
			exit.LimitPrice = walk.mid + walk.step*40
			if _, err := gw.Submit(exit); err != nil {
				log.Printf("demo limit: %v", err)
			}
		}
	}
}

func resolveSnapshotPath(dir string, path string) string {
	if path != "" {
		return path
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "positions.json")
}

type emptyLogger struct{}

func (emptyLogger) Infof(string, ...interface{})  {}
func (emptyLogger) Debugf(string, ...interface{}) {}
func (emptyLogger) Errorf(string, ...interface{}) {}
