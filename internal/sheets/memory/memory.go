// Package memory is an in-memory sheets backend used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"foyer/internal/core"
)

type Store struct {
	mu    sync.Mutex
	cats  []string
	items []core.LedgerEntry
}

func New(cats []string) *Store {
	return &Store{cats: dedupe(cats)}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

// Items returns a copy of everything appended so far.
func (s *Store) Items() []core.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LedgerEntry(nil), s.items...)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
