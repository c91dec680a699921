package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simex/internal/schema"
)

const sampleConfig = `
registry:
  venues:
    - name: SIM
  instruments:
    - name: SIM-USD
      venue: SIM
      scale:
        price: 5
        quantity: 2
        notional: 5
        fee: 5
      commission: "2.5"
      contractSize: "100"
      stepSize: "0.01"
      stepValue: "1"
journal:
  dir: /tmp/audit
  filePrefix: trail
  segmentMaxBytes: 1024
  queueSize: 32
  flushInterval: 250ms
  syncInterval: 2s
postgres:
  enabled: true
  host: localhost
  port: 5432
  user: sim
  password: sim
  database: simex
  sslMode: disable
  queueSize: 128
gateway:
  queueSize: 64
features:
  enableJournal: false
  enableProfiler: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadResolvesScaledValues(t *testing.T) {
	loaded, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	id, ok := loaded.Registry.InstrumentIDByName("SIM-USD")
	require.True(t, ok)
	inst, ok := loaded.Registry.Instrument(id)
	require.True(t, ok)
	assert.Equal(t, schema.Fee(250_000), inst.Spec.Commission)
	assert.Equal(t, schema.Quantity(10_000), inst.Spec.ContractSize)
	assert.Equal(t, schema.Quantity(1), inst.Spec.StepSize)
	assert.Equal(t, schema.Notional(100_000), inst.Spec.StepValue)
	assert.Equal(t, schema.Scale(5), inst.Spec.Scale.PriceScale)
}

func TestLoadResolvesJournal(t *testing.T) {
	loaded, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/audit", loaded.Journal.Dir)
	assert.Equal(t, "trail", loaded.Journal.FilePrefix)
	assert.Equal(t, int64(1024), loaded.Journal.SegmentMaxBytes)
	assert.Equal(t, 32, loaded.Journal.QueueSize)
	assert.Equal(t, 250*time.Millisecond, loaded.Journal.FlushInterval)
	assert.Equal(t, 2*time.Second, loaded.Journal.SyncInterval)
}

func TestLoadResolvesFlagsAndQueues(t *testing.T) {
	loaded, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.True(t, loaded.PostgresEnabled)
	assert.Equal(t, "simex", loaded.Postgres.Database)
	assert.Equal(t, 128, loaded.PostgresQueue)
	assert.Equal(t, 64, loaded.GatewayQueueSize)
	assert.False(t, loaded.Features.EnableJournal)
	assert.True(t, loaded.Features.EnableProfiler)
}

func TestLoadFeatureDefaults(t *testing.T) {
	loaded, err := Load(writeConfig(t, "registry:\n  venues: []\n"))
	require.NoError(t, err)
	assert.True(t, loaded.Features.EnableJournal)
	assert.False(t, loaded.Features.EnableProfiler)
}

func TestLoadRejectsValueOutsideScale(t *testing.T) {
	body := `
registry:
  venues:
    - name: SIM
  instruments:
    - name: SIM-USD
      venue: SIM
      scale:
        price: 5
        quantity: 2
        notional: 5
        fee: 5
      commission: "2.5"
      contractSize: "100"
      stepSize: "0.001"
      stepValue: "1"
`
	_, err := Load(writeConfig(t, body))
	require.ErrorContains(t, err, "does not fit scale")
}

func TestLoadRejectsUnknownVenue(t *testing.T) {
	body := `
registry:
  venues:
    - name: SIM
  instruments:
    - name: SIM-USD
      venue: NOPE
      scale: {price: 5, quantity: 2, notional: 5, fee: 5}
      commission: "0"
      contractSize: "1"
      stepSize: "1"
      stepValue: "1"
`
	_, err := Load(writeConfig(t, body))
	require.ErrorContains(t, err, "venue not found")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	body := `
registry:
  venues: []
journal:
  dir: /tmp/audit
  flushInterval: soon
`
	_, err := Load(writeConfig(t, body))
	require.ErrorContains(t, err, "flushInterval")
}
