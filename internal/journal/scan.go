package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"simex/internal/schema"
)

// ScanConfig controls journal scanning.
type ScanConfig struct {
	Dir             string
	FilePrefix      string
	DisableChecksum bool
	MaxPayloadSize  int
}

func (c ScanConfig) withDefaults() ScanConfig {
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	return c
}

// Validate checks if the config is usable.
func (c ScanConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("invalid scan config: Dir is empty")
	}
	if c.MaxPayloadSize < 0 {
		return fmt.Errorf("invalid scan config: MaxPayloadSize must be >= 0")
	}
	return nil
}

// Scan replays every record under the journal directory in segment order and
// calls the handler for each. Segment file names sort chronologically.
func Scan(ctx context.Context, cfg ScanConfig, handler func(schema.EventHeader, []byte) error) error {
	if handler == nil {
		return errors.New("scan handler is nil")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := collectSegments(cfg.Dir, cfg.FilePrefix)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := scanFile(ctx, cfg, path, handler); err != nil {
			return err
		}
	}
	return nil
}

func collectSegments(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	want := prefix + "-"
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, want) || !strings.HasSuffix(name, ".aud") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func scanFile(ctx context.Context, cfg ScanConfig, path string, handler func(schema.EventHeader, []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := NewReader(file, ReaderOptions{
		DisableChecksum: cfg.DisableChecksum,
		MaxPayloadSize:  cfg.MaxPayloadSize,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, payload, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := handler(header, payload); err != nil {
			return err
		}
	}
}
