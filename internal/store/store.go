// Package store persists the validated datasets between the validation step
// and the report step. It is a single JSON file holding named slots, each a
// JSON array of row objects.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// Slot names for the hand-off.
const (
	SlotRevenue = "revenueData"
	SlotRefund  = "refundData"
)

// SlotFor maps a dataset kind onto its slot.
func SlotFor(kind types.Kind) string {
	if kind == types.Refund {
		return SlotRefund
	}
	return SlotRevenue
}

// Store is a file-backed key/value store.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a store at path. The file is created on first Save.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path is the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) readAll() map[string]json.RawMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]json.RawMessage{}
	}
	slots := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &slots); err != nil {
		return map[string]json.RawMessage{}
	}
	return slots
}

// Save replaces a slot's rows.
func (s *Store) Save(slot string, rows []types.NormalizedRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rows == nil {
		rows = []types.NormalizedRow{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", slot, err)
	}
	slots := s.readAll()
	slots[slot] = payload
	return s.writeAll(slots)
}

func (s *Store) writeAll(slots map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

// Load returns a slot's rows. A missing file, missing slot or malformed
// payload all yield an empty dataset.
func (s *Store) Load(slot string) []types.NormalizedRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.readAll()[slot]
	if !ok {
		return nil
	}
	var rows []types.NormalizedRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil
	}
	return rows
}

// SaveDatasets writes both hand-off slots.
func (s *Store) SaveDatasets(revenue, refund []types.NormalizedRow) error {
	if err := s.Save(SlotRevenue, revenue); err != nil {
		return err
	}
	return s.Save(SlotRefund, refund)
}

// LoadDatasets reads both hand-off slots.
func (s *Store) LoadDatasets() (revenue, refund []types.NormalizedRow) {
	return s.Load(SlotRevenue), s.Load(SlotRefund)
}

// Clear removes the backing file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}
