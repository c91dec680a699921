// Package ops loads the runtime configuration: venue and instrument
// definitions, journal and database settings, and feature flags.
package ops

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"simex/internal/journal"
	"simex/internal/schema"
	"simex/pkg/conn"
)

// FileConfig mirrors the YAML config layout.
type FileConfig struct {
	Registry RegistryConfig     `yaml:"registry"`
	Journal  JournalConfig      `yaml:"journal"`
	Postgres PostgresConfig     `yaml:"postgres"`
	Gateway  GatewayConfig      `yaml:"gateway"`
	Features FeatureFlagsConfig `yaml:"features"`
}

// RegistryConfig defines venue and instrument mappings.
type RegistryConfig struct {
	Venues      []VenueConfig      `yaml:"venues"`
	Instruments []InstrumentConfig `yaml:"instruments"`
}

// VenueConfig describes a venue entry.
type VenueConfig struct {
	Name string `yaml:"name"`
}

// ScaleConfig describes decimal scaling per numeric field.
type ScaleConfig struct {
	Price    schema.Scale `yaml:"price"`
	Quantity schema.Scale `yaml:"quantity"`
	Notional schema.Scale `yaml:"notional"`
	Fee      schema.Scale `yaml:"fee"`
}

// InstrumentConfig describes an instrument entry. Monetary fields are
// decimal strings; they are shifted into scaled integers on load.
type InstrumentConfig struct {
	Name         string      `yaml:"name"`
	Venue        string      `yaml:"venue"`
	Scale        ScaleConfig `yaml:"scale"`
	Commission   string      `yaml:"commission"`
	ContractSize string      `yaml:"contractSize"`
	StepSize     string      `yaml:"stepSize"`
	StepValue    string      `yaml:"stepValue"`
}

// JournalConfig describes the audit journal settings.
type JournalConfig struct {
	Dir             string `yaml:"dir"`
	FilePrefix      string `yaml:"filePrefix"`
	SegmentMaxBytes int64  `yaml:"segmentMaxBytes"`
	QueueSize       int    `yaml:"queueSize"`
	BufferSize      int    `yaml:"bufferSize"`
	FlushInterval   string `yaml:"flushInterval"`
	SyncInterval    string `yaml:"syncInterval"`
}

// PostgresConfig describes the optional database connection.
type PostgresConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	SSLMode   string `yaml:"sslMode"`
	QueueSize int    `yaml:"queueSize"`
}

// GatewayConfig describes the gateway queue.
type GatewayConfig struct {
	QueueSize int `yaml:"queueSize"`
}

// FeatureFlagsConfig captures optional runtime flags.
type FeatureFlagsConfig struct {
	EnableJournal  *bool `yaml:"enableJournal"`
	EnableProfiler *bool `yaml:"enableProfiler"`
}

// FeatureFlags are resolved runtime flags.
type FeatureFlags struct {
	EnableJournal  bool
	EnableProfiler bool
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Registry         *schema.Registry
	Journal          journal.Config
	PostgresEnabled  bool
	Postgres         conn.Option
	PostgresQueue    int
	GatewayQueueSize int
	Features         FeatureFlags
}

// Load reads a YAML config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}

	registry, err := buildRegistry(cfg.Registry)
	if err != nil {
		return Loaded{}, err
	}
	journalCfg, err := resolveJournal(cfg.Journal)
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Registry:        registry,
		Journal:         journalCfg,
		PostgresEnabled: cfg.Postgres.Enabled,
		Postgres: conn.Option{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		},
		PostgresQueue:    cfg.Postgres.QueueSize,
		GatewayQueueSize: cfg.Gateway.QueueSize,
		Features:         resolveFeatures(cfg.Features),
	}, nil
}

// LoadRegistry reads a YAML config file and only builds the registry.
func LoadRegistry(path string) (*schema.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return buildRegistry(cfg.Registry)
}

func buildRegistry(cfg RegistryConfig) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, venue := range cfg.Venues {
		if _, err := reg.AddVenue(venue.Name); err != nil {
			return nil, err
		}
	}
	for _, inst := range cfg.Instruments {
		venueID, ok := reg.VenueIDByName(inst.Venue)
		if !ok {
			return nil, fmt.Errorf("venue not found: %s", inst.Venue)
		}
		spec, err := resolveInstrumentSpec(inst)
		if err != nil {
			return nil, fmt.Errorf("invalid instrument %s: %w", inst.Name, err)
		}
		if _, err := reg.AddInstrument(inst.Name, venueID, spec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func resolveInstrumentSpec(cfg InstrumentConfig) (schema.InstrumentSpec, error) {
	scale := schema.ScaleSpec{
		PriceScale:    cfg.Scale.Price,
		QuantityScale: cfg.Scale.Quantity,
		NotionalScale: cfg.Scale.Notional,
		FeeScale:      cfg.Scale.Fee,
	}
	if err := validateScale(scale); err != nil {
		return schema.InstrumentSpec{}, err
	}

	commission, err := scaledInt(cfg.Commission, scale.FeeScale)
	if err != nil {
		return schema.InstrumentSpec{}, fmt.Errorf("commission: %w", err)
	}
	contractSize, err := scaledInt(cfg.ContractSize, scale.QuantityScale)
	if err != nil {
		return schema.InstrumentSpec{}, fmt.Errorf("contractSize: %w", err)
	}
	stepSize, err := scaledInt(cfg.StepSize, scale.QuantityScale)
	if err != nil {
		return schema.InstrumentSpec{}, fmt.Errorf("stepSize: %w", err)
	}
	stepValue, err := scaledInt(cfg.StepValue, scale.NotionalScale)
	if err != nil {
		return schema.InstrumentSpec{}, fmt.Errorf("stepValue: %w", err)
	}

	return schema.InstrumentSpec{
		Commission:   schema.Fee(commission),
		ContractSize: schema.Quantity(contractSize),
		StepSize:     schema.Quantity(stepSize),
		StepValue:    schema.Notional(stepValue),
		Scale:        scale,
	}, nil
}

func validateScale(scale schema.ScaleSpec) error {
	if scale.PriceScale < 0 || scale.QuantityScale < 0 || scale.NotionalScale < 0 || scale.FeeScale < 0 {
		return fmt.Errorf("scale must be >= 0")
	}
	return nil
}

// scaledInt shifts a decimal string into a scaled integer. A value that does
// not fit the scale exactly is a config error, not a rounding candidate.
func scaledInt(s string, scale schema.Scale) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("value is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	shifted := d.Shift(int32(scale))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("value %s does not fit scale %d", s, scale)
	}
	return shifted.IntPart(), nil
}

func resolveJournal(cfg JournalConfig) (journal.Config, error) {
	out := journal.DefaultConfig(cfg.Dir)
	if cfg.FilePrefix != "" {
		out.FilePrefix = cfg.FilePrefix
	}
	if cfg.SegmentMaxBytes > 0 {
		out.SegmentMaxBytes = cfg.SegmentMaxBytes
	}
	if cfg.QueueSize > 0 {
		out.QueueSize = cfg.QueueSize
	}
	if cfg.BufferSize > 0 {
		out.BufferSize = cfg.BufferSize
	}
	if cfg.FlushInterval != "" {
		d, err := time.ParseDuration(cfg.FlushInterval)
		if err != nil {
			return journal.Config{}, fmt.Errorf("flushInterval: %w", err)
		}
		out.FlushInterval = d
	}
	if cfg.SyncInterval != "" {
		d, err := time.ParseDuration(cfg.SyncInterval)
		if err != nil {
			return journal.Config{}, fmt.Errorf("syncInterval: %w", err)
		}
		out.SyncInterval = d
	}
	return out, nil
}

func resolveFeatures(cfg FeatureFlagsConfig) FeatureFlags {
	flags := FeatureFlags{
		EnableJournal:  true,
		EnableProfiler: false,
	}
	if cfg.EnableJournal != nil {
		flags.EnableJournal = *cfg.EnableJournal
	}
	if cfg.EnableProfiler != nil {
		flags.EnableProfiler = *cfg.EnableProfiler
	}
	return flags
}
