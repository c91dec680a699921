package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"simex/internal/journal"
	"simex/internal/ledger"
)

func main() {
	journalDir := flag.String("journal-dir", "", "Journal directory to replay")
	filePrefix := flag.String("file-prefix", "", "Journal file prefix (default: audit)")
	snapshotPath := flag.String("snapshot", "", "Expected snapshot (default: <journal-dir>/positions.json)")
	verify := flag.Bool("verify", true, "Verify rebuilt positions against the snapshot")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	flag.Parse()

	if *journalDir == "" {
		log.Fatalf("journal-dir is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rebuilder := ledger.NewRebuilder()
	err := journal.Scan(ctx, journal.ScanConfig{
		Dir:             *journalDir,
		FilePrefix:      *filePrefix,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	}, rebuilder.Handle)
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	actual := rebuilder.Snapshot()
	log.Printf("replay completed: accounts=%d last_seq=%d", len(actual.Accounts), rebuilder.LastSeq())

	if !*verify {
		return
	}
	path := *snapshotPath
	if path == "" {
		path = filepath.Join(*journalDir, "positions.json")
	}
	expected, err := ledger.ReadSnapshot(path)
	if err != nil {
		log.Fatalf("snapshot read failed: %v", err)
	}
	if err := ledger.CompareSnapshots(expected, actual); err != nil {
		log.Fatalf("snapshot mismatch: %v", err)
	}
	log.Printf("snapshot verified: %s", path)
}
