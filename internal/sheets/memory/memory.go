package memory

import (
	"context"
	"sort"
	"sync"

	"fluxo/internal/core"
	ports "fluxo/internal/sheets"
)

// Store keeps exported periods in memory, one tab per owner and period.
type Store struct {
	mu      sync.Mutex
	tabs    map[string][]ports.Row
	exports int
}

var (
	_ ports.LedgerExporter = (*Store)(nil)
	_ ports.PeriodReader   = (*Store)(nil)
)

func New() *Store {
	return &Store{tabs: make(map[string][]ports.Row)}
}

// ExportPeriod replaces the tab's rows.
func (s *Store) ExportPeriod(_ context.Context, ownerID, period string, entries []core.LedgerEntry) error {
	rows := ports.RowsFromEntries(entries)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[ports.SheetTitle(ownerID, period)] = rows
	s.exports++
	return nil
}

func (s *Store) ReadPeriod(_ context.Context, ownerID, period string) ([]ports.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[ports.SheetTitle(ownerID, period)]
	if !ok {
		return nil, nil
	}
	return append([]ports.Row(nil), rows...), nil
}

// Tabs lists the exported tab titles in order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tabs))
	for t := range s.tabs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Exports counts ExportPeriod calls.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
