package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"glreport/internal/core"
	"glreport/internal/ledger"
	"glreport/internal/report"
)

// Store keeps GL entries in memory. It implements ledger.Store and
// ledger.EntryWriter.
type Store struct {
	mu      sync.RWMutex
	entries []core.LedgerEntry
}

func New(entries []core.LedgerEntry) *Store {
	s := &Store{}
	s.entries = append(s.entries, entries...)
	return s
}

// NewFromFile seeds the store from a JSON array of entries. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	entries, err := DecodeEntries(b)
	if err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(entries), nil
}

// DecodeEntries parses a JSON array of GL entries and validates each one.
func DecodeEntries(b []byte) ([]core.LedgerEntry, error) {
	var entries []core.LedgerEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Name, err)
		}
	}
	return entries, nil
}

func (s *Store) QueryEntries(_ context.Context, conds []report.Predicate) ([]core.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if report.MatchAll(conds, e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].PostingDate.Compare(out[j].PostingDate); c != 0 {
			return c < 0
		}
		return out[i].Creation.Before(out[j].Creation)
	})
	return out, nil
}

func (s *Store) BalanceOn(ctx context.Context, q ledger.BalanceQuery) (decimal.Decimal, error) {
	entries, err := s.QueryEntries(ctx, q.Conditions())
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Sum(entries), nil
}

// InsertEntries appends valid entries and returns how many were stored.
func (s *Store) InsertEntries(_ context.Context, entries []core.LedgerEntry) (int, error) {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.Name, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return len(entries), nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
