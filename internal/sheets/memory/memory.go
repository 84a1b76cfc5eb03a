// Package memory is an in-process ReportWriter for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"donortrack/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	tables map[string]sheets.Table
}

var _ sheets.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string]sheets.Table{}}
}

// WriteTable replaces the stored tab with a copy of t.
func (s *Store) WriteTable(_ context.Context, t sheets.Table) error {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]string(nil), r...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Name] = sheets.Table{
		Name:   t.Name,
		Header: append([]string(nil), t.Header...),
		Rows:   rows,
	}
	return nil
}

func (s *Store) Table(name string) (sheets.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	return t, ok
}

// Tabs returns the names of every written tab, sorted.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
