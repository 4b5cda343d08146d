// Package memory is an in-process mirror destination used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"financas/internal/mirror"
)

type Store struct {
	mu   sync.Mutex
	rows []mirror.Row
}

var _ mirror.RowAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r mirror.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []mirror.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mirror.Row(nil), s.rows...)
}
