package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"scadenze/internal/core"
	"scadenze/internal/source"
)

// SeedFile is read from the data directory by NewFromDir.
const SeedFile = "transactions.csv"

type Store struct {
	mu    sync.Mutex
	items map[string]core.Transaction
}

var _ source.Store = (*Store)(nil)

func New(seed []core.Transaction) *Store {
	s := &Store{items: make(map[string]core.Transaction, len(seed))}
	for _, tx := range seed {
		s.items[tx.ID] = tx
	}
	return s
}

// NewFromDir seeds the store from base/transactions.csv. A missing file
// yields an empty store.
func NewFromDir(base string) (*Store, error) {
	path := filepath.Join(base, SeedFile)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	txs, skipped, err := source.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(skipped) > 0 {
		slog.Warn("Skipped malformed seed rows", "path", path, "skipped", len(skipped))
	}
	return New(txs), nil
}

// ListTransactions returns a copy ordered by date, then ID.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, tx := range s.items {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ImportTransactions upserts by ID and returns how many were stored.
func (s *Store) ImportTransactions(_ context.Context, txs []core.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tx := range txs {
		if tx.ID == "" {
			continue
		}
		s.items[tx.ID] = tx
		n++
	}
	return n, nil
}
