package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"simex/internal/schema"
)

// Snapshot captures open positions across accounts at a point in time.
type Snapshot struct {
	Timestamp int64             `json:"timestamp"`
	LastSeq   uint64            `json:"lastSeq"`
	Accounts  []AccountSnapshot `json:"accounts"`
}

// AccountSnapshot holds one account's open positions.
type AccountSnapshot struct {
	AccountID uint64          `json:"accountId"`
	Positions []PositionEntry `json:"positions"`
}

// PositionEntry is a single open-position entry.
type PositionEntry struct {
	InstrumentID  uint32          `json:"instrumentId"`
	Side          schema.Side     `json:"side"`
	Volume        schema.Quantity `json:"volume"`
	AvgEntryPrice schema.Price    `json:"avgEntryPrice"`
}

// Snapshot builds the account's snapshot, sorted by instrument.
func (l *Ledger) Snapshot() AccountSnapshot {
	entries := make([]PositionEntry, 0, len(l.positions))
	for instrumentID, pos := range l.positions {
		entries = append(entries, PositionEntry{
			InstrumentID:  instrumentID,
			Side:          pos.Side,
			Volume:        pos.Volume,
			AvgEntryPrice: pos.AvgEntryPrice,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].InstrumentID < entries[j].InstrumentID
	})
	return AccountSnapshot{AccountID: l.accountID, Positions: entries}
}

// BuildSnapshot collects account snapshots, sorted by account.
func BuildSnapshot(ledgers []*Ledger, lastSeq uint64) Snapshot {
	accounts := make([]AccountSnapshot, 0, len(ledgers))
	for _, led := range ledgers {
		accounts = append(accounts, led.Snapshot())
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountID < accounts[j].AccountID
	})
	return Snapshot{
		Timestamp: time.Now().UTC().UnixNano(),
		LastSeq:   lastSeq,
		Accounts:  accounts,
	}
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CompareSnapshots checks that two snapshots describe the same positions.
func CompareSnapshots(expected, actual Snapshot) error {
	if len(expected.Accounts) != len(actual.Accounts) {
		return fmt.Errorf("snapshot account count mismatch: expected=%d actual=%d", len(expected.Accounts), len(actual.Accounts))
	}
	expectedByAccount := make(map[uint64][]PositionEntry, len(expected.Accounts))
	for _, acct := range expected.Accounts {
		expectedByAccount[acct.AccountID] = acct.Positions
	}
	for _, acct := range actual.Accounts {
		want, ok := expectedByAccount[acct.AccountID]
		if !ok {
			return fmt.Errorf("snapshot missing account: %d", acct.AccountID)
		}
		if err := comparePositions(acct.AccountID, want, acct.Positions); err != nil {
			return err
		}
	}
	return nil
}

func comparePositions(accountID uint64, expected, actual []PositionEntry) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("snapshot position count mismatch: account=%d expected=%d actual=%d", accountID, len(expected), len(actual))
	}
	expectedByInstrument := make(map[uint32]PositionEntry, len(expected))
	for _, entry := range expected {
		expectedByInstrument[entry.InstrumentID] = entry
	}
	for _, entry := range actual {
		want, ok := expectedByInstrument[entry.InstrumentID]
		if !ok {
			return fmt.Errorf("snapshot missing instrument: account=%d instrument=%d", accountID, entry.InstrumentID)
		}
		if want != entry {
			return fmt.Errorf("snapshot position mismatch: account=%d instrument=%d expected=%+v actual=%+v", accountID, entry.InstrumentID, want, entry)
		}
	}
	return nil
}
