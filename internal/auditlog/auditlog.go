package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rvenkat/swing-trader/internal/executor"
)

// RunRecord is one cycle's audit entry: the account snapshot, the signals the
// models produced, and the per-instrument trade outcomes.
type RunRecord struct {
	RunTime        time.Time                `json:"run_time"`
	Cash           float64                  `json:"cash"`
	PortfolioValue float64                  `json:"portfolio_value"`
	Signals        map[string]string        `json:"signals"`
	Trades         []executor.TradeLogEntry `json:"trades"`
}

// Store is an append-only sequence of RunRecords persisted as a JSON array.
// Each append reads the whole file back and rewrites it atomically; run
// frequency is daily, so the full rewrite is acceptable.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// ReadAll returns every recorded run, oldest first. A missing file is an
// empty history, not an error.
func (s *Store) ReadAll() ([]RunRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	var records []RunRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse audit log %s: %w", s.path, err)
	}
	return records, nil
}

// Append adds one record to the end of the history. Records are never
// mutated or dropped once written.
func (s *Store) Append(rec RunRecord) error {
	records, err := s.ReadAll()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	// temp file + rename so a crash mid-write never truncates the history
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename audit log: %w", err)
	}
	return nil
}
