package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"simex/internal/gateway"
	"simex/internal/journal"
	"simex/internal/ledger"
	"simex/internal/obs"
	"simex/internal/ops"
	"simex/internal/schema"
	"simex/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (default: built-in registry)")
	journalDir := flag.String("journal-dir", "testdata/journal", "Journal root directory")
	ticks := flag.Int("ticks", 1000, "Number of quote ticks")
	accounts := flag.Int("accounts", 3, "Number of accounts")
	orderRate := flag.Float64("order-rate", 0.2, "Probability of a new order per account per tick")
	cancelRate := flag.Float64("cancel-rate", 0.05, "Probability of cancelling a pending order per account per tick")
	seed := flag.Int64("seed", 1, "Random seed")
	startPrice := flag.String("price", "100", "Starting quote price")
	spread := flag.String("spread", "0.01", "Bid/ask spread")
	flag.Parse()

	runID := uuid.NewString()
	dir := filepath.Join(*journalDir, runID)
	log.Printf("sim run: id=%s journal=%s", runID, dir)

	registry, err := loadRegistry(*configPath)
	if err != nil {
		log.Fatalf("registry load failed: %v", err)
	}
	if registry.InstrumentCount() == 0 {
		log.Fatalf("registry has no instruments")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jw, err := journal.NewWriter(journal.DefaultConfig(dir))
	if err != nil {
		log.Fatalf("journal init failed: %v", err)
	}
	if err := jw.Start(ctx); err != nil {
		log.Fatalf("journal start failed: %v", err)
	}

	memory := store.NewMemory()
	metrics := obs.NewMetrics()
	gw := gateway.New(gateway.Config{}, registry, memory, jw, metrics)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		gw.Run(ctx)
	}()

	if err := runScenario(gw, registry, scenario{
		ticks:      *ticks,
		accounts:   *accounts,
		orderRate:  *orderRate,
		cancelRate: *cancelRate,
		seed:       *seed,
		startPrice: *startPrice,
		spread:     *spread,
	}); err != nil {
		log.Fatalf("scenario failed: %v", err)
	}

	gw.Close()
	wg.Wait()
	if err := jw.Close(); err != nil {
		log.Fatalf("journal close failed: %v", err)
	}

	snapshotPath := filepath.Join(dir, "positions.json")
	snapshot := ledger.BuildSnapshot(memory.Ledgers(), gw.Seq())
	if err := ledger.WriteSnapshot(snapshotPath, snapshot); err != nil {
		log.Fatalf("snapshot write failed: %v", err)
	}

	m := metrics.Snapshot()
	log.Printf("sim done: accounts=%d fills=%d triggers=%d cancels=%d rejections=%d",
		len(snapshot.Accounts), m.Fills, m.Triggers, m.Cancels, m.Rejections)
	log.Printf("verify with: replay -journal-dir %s -snapshot %s", dir, snapshotPath)
}

type scenario struct {
	ticks      int
	accounts   int
	orderRate  float64
	cancelRate float64
	seed       int64
	startPrice string
	spread     string
}

// runScenario drives a deterministic random session: a quote walk per
// instrument with a mix of market, resting, and bracket orders on top.
// Ticks are synchronous; every quote is fully evaluated before the next.
func runScenario(gw *gateway.Gateway, registry *schema.Registry, cfg scenario) error {
	rng := rand.New(rand.NewSource(cfg.seed))

	inst, _ := registry.InstrumentAt(0)
	scale := inst.Spec.Scale.PriceScale
	mid, err := parsePrice(cfg.startPrice, scale)
	if err != nil {
		return err
	}
	spreadPrice, err := parsePrice(cfg.spread, scale)
	if err != nil {
		return err
	}
	half := spreadPrice / 2
	if half <= 0 {
		half = 1
	}
	step := mid / 500
	if step <= 0 {
		step = 1
	}

	pending := make(map[uint64][]uint64)
	now := time.Now().UTC().UnixNano()

	for tick := 0; tick < cfg.ticks; tick++ {
		delta := schema.Price(rng.Int63n(int64(step)*2+1)) - step
		mid += delta
		if mid < half*4 {
			mid = half * 4
		}
		now += int64(time.Millisecond)

		quote := schema.Quote{
			InstrumentID: uint32(inst.ID),
			Bid:          mid - half,
			Ask:          mid + half,
			Last:         mid,
			Time:         now,
		}
		if err := gw.OnQuote(quote); err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
		// The gateway queue is drained by one consumer; yield so the tick
		// lands before orders arrive against it.
		time.Sleep(time.Millisecond)

		for acct := 1; acct <= cfg.accounts; acct++ {
			accountID := uint64(acct)
			if rng.Float64() < cfg.orderRate {
				order := randomOrder(rng, accountID, uint32(inst.ID), quote, step)
				result, err := gw.Submit(order)
				if err != nil {
					return fmt.Errorf("submit: %w", err)
				}
				for _, r := range result.Results {
					if r.Rested {
						pending[accountID] = append(pending[accountID], r.Order.ID)
					}
				}
			}
			if ids := pending[accountID]; len(ids) > 0 && rng.Float64() < cfg.cancelRate {
				idx := rng.Intn(len(ids))
				if _, err := gw.Cancel(accountID, ids[idx]); err != nil {
					return fmt.Errorf("cancel: %w", err)
				}
				pending[accountID] = append(ids[:idx], ids[idx+1:]...)
			}
		}
	}
	return nil
}

func randomOrder(rng *rand.Rand, accountID uint64, instrumentID uint32, quote schema.Quote, step schema.Price) schema.Order {
	volume := schema.Quantity(1 + rng.Int63n(10))
	side := schema.SideBuy
	if rng.Intn(2) == 1 {
		side = schema.SideSell
	}

	order := schema.Order{
		AccountID:    accountID,
		InstrumentID: instrumentID,
		Side:         side,
		TimeInForce:  schema.TimeInForceGTC,
		Instruction:  schema.InstructionSingle,
		Volume:       volume,
		Time:         quote.Time,
	}

	offset := schema.Price(1+rng.Int63n(30)) * step
	switch rng.Intn(4) {
	case 0:
		order.Type = schema.OrderTypeMarket
	case 1:
		order.Type = schema.OrderTypeLimit
		if side == schema.SideBuy {
			order.LimitPrice = quote.Ask - offset
		} else {
			order.LimitPrice = quote.Bid + offset
		}
	case 2:
		order.Type = schema.OrderTypeStop
		if side == schema.SideBuy {
			order.LimitPrice = quote.Ask + offset
		} else {
			order.LimitPrice = quote.Bid - offset
		}
	default:
		// Bracket: market parent with a stop child and a limit child.
		order.Type = schema.OrderTypeMarket
		order.Instruction = schema.InstructionGroup
		order.Children = []schema.Order{
			{Side: side, Volume: volume, Instruction: schema.InstructionSide},
			{Side: side.Opposite(), Volume: volume, Instruction: schema.InstructionSide},
		}
	}
	return order
}

func parsePrice(s string, scale schema.Scale) (schema.Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return schema.Price(d.Shift(int32(scale)).IntPart()), nil
}

func loadRegistry(path string) (*schema.Registry, error) {
	if path != "" {
		return ops.LoadRegistry(path)
	}
	reg := schema.NewRegistry()
	venueID, err := reg.AddVenue("SIM")
	if err != nil {
		return nil, err
	}
	scale := schema.ScaleSpec{
		PriceScale:    5,
		QuantityScale: 2,
		NotionalScale: 5,
		FeeScale:      5,
	}
	if _, err := reg.AddInstrument("SIM-USD", venueID, schema.InstrumentSpec{
		Commission:   schema.Fee(250_000),
		ContractSize: schema.Quantity(100),
		StepSize:     schema.Quantity(1),
		StepValue:    schema.Notional(100_000),
		Scale:        scale,
	}); err != nil {
		return nil, err
	}
	return reg, nil
}
