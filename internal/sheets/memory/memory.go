package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetwise/internal/core"
	ports "budgetwise/internal/sheets"
)

var _ ports.TransactionExporter = (*Store)(nil)

// Row is one exported transaction.
type Row struct {
	Username    string
	Transaction core.Transaction
}

// Store keeps exported rows in memory, for tests and local runs.
type Store struct {
	mu   sync.Mutex
	rows []Row
}

func New() *Store {
	return &Store{}
}

// Export stores the transaction and returns a synthetic row reference.
func (s *Store) Export(_ context.Context, username string, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Row{Username: username, Transaction: tx})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything exported so far.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}
