package app

import (
	"context"
	"sync"

	"fungible-token-demo/internal/model"
)

type Journal interface {
	Record(ctx context.Context, tx model.Transaction) error
	Recent(ctx context.Context, limit int) ([]model.Transaction, error)
}

// MemoryJournal keeps transaction references for the lifetime of the process.
type MemoryJournal struct {
	mu  sync.Mutex
	txs []model.Transaction
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Record(_ context.Context, tx model.Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.txs = append(j.txs, tx)
	return nil
}

func (j *MemoryJournal) Recent(_ context.Context, limit int) ([]model.Transaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := len(j.txs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Transaction, 0, n)
	for i := len(j.txs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.txs[i])
	}
	return out, nil
}
