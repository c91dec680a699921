package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simex/internal/schema"
)

func testConfig(dir string) Config {
	cfg := DefaultConfig(dir)
	cfg.QueueSize = 16
	return cfg
}

func TestWriteScanRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(testConfig(dir))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	headers := []schema.EventHeader{
		schema.NewHeader(schema.EventOrder, 7, 1, 100),
		schema.NewHeader(schema.EventFill, 7, 2, 200),
		schema.NewHeader(schema.EventTransaction, 8, 3, 300),
	}
	payloads := [][]byte{
		[]byte("order payload"),
		[]byte("fill payload"),
		nil,
	}
	for i, h := range headers {
		require.NoError(t, w.TryAppend(h, payloads[i]))
	}
	require.NoError(t, w.Close())

	var got []schema.EventHeader
	var gotPayloads []string
	err = Scan(context.Background(), ScanConfig{Dir: dir}, func(h schema.EventHeader, p []byte) error {
		got = append(got, h)
		gotPayloads = append(gotPayloads, string(p))
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, len(headers))
	for i, h := range headers {
		if h.Version == 0 {
			h.Version = schema.SchemaVersion
		}
		assert.Equal(t, h, got[i])
	}
	assert.Equal(t, "order payload", gotPayloads[0])
	assert.Equal(t, "fill payload", gotPayloads[1])
	assert.Equal(t, "", gotPayloads[2])
}

func TestScanDetectsCorruption(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(testConfig(dir))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.TryAppend(schema.NewHeader(schema.EventOrder, 7, 1, 100), []byte("payload")))
	require.NoError(t, w.Close())

	files, err := collectSegments(dir, defaultFilePrefix)
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	data[recordHeaderSize] ^= 0xFF
	require.NoError(t, os.WriteFile(files[0], data, 0o644))

	err = Scan(context.Background(), ScanConfig{Dir: dir}, func(schema.EventHeader, []byte) error {
		return nil
	})
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestScanSkipsChecksumWhenDisabled(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(testConfig(dir))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.TryAppend(schema.NewHeader(schema.EventOrder, 7, 1, 100), []byte("payload")))
	require.NoError(t, w.Close())

	files, _ := collectSegments(dir, defaultFilePrefix)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	data[recordHeaderSize] ^= 0xFF
	require.NoError(t, os.WriteFile(files[0], data, 0o644))

	count := 0
	err = Scan(context.Background(), ScanConfig{Dir: dir, DisableChecksum: true}, func(schema.EventHeader, []byte) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScanIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "positions.json"), []byte("{}"), 0o644))

	err := Scan(context.Background(), ScanConfig{Dir: dir}, func(schema.EventHeader, []byte) error {
		t.Fatal("no records expected")
		return nil
	})
	require.NoError(t, err)
}

func TestTryAppendBeforeStart(t *testing.T) {
	w, err := NewWriter(testConfig(t.TempDir()))
	require.NoError(t, err)
	err = w.TryAppend(schema.NewHeader(schema.EventOrder, 7, 1, 100), nil)
	require.ErrorIs(t, err, ErrNotStarted)
	require.NoError(t, w.Close())
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.NoError(t, DefaultConfig(t.TempDir()).Validate())
}
