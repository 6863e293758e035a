package finance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-memory twin of PGStore, used by handler tests and
// database-less local runs.
type MemoryStore struct {
	mu           sync.Mutex
	budgets      map[string]*Budget
	transactions map[string]*Transaction
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		budgets:      make(map[string]*Budget),
		transactions: make(map[string]*Transaction),
	}
}

func (m *MemoryStore) Budgets(context.Context) BudgetStore           { return (*memoryBudgets)(m) }
func (m *MemoryStore) Transactions(context.Context) TransactionStore { return (*memoryTransactions)(m) }

type memoryBudgets MemoryStore

func (m *memoryBudgets) Create(_ context.Context, b *Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	m.budgets[cp.ID] = &cp
	return nil
}

func (m *memoryBudgets) ListByUser(_ context.Context, userID string) ([]Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []Budget{}
	for _, b := range m.budgets {
		if b.UserID == userID {
			res = append(res, *b)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (m *memoryBudgets) Update(_ context.Context, userID, id string, category string, limit int64) (*Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}
	b.Category = category
	b.Limit = limit
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	return &cp, nil
}

func (m *memoryBudgets) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

type memoryTransactions MemoryStore

func (m *memoryTransactions) Create(_ context.Context, t *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	m.transactions[cp.ID] = &cp
	return nil
}

func (m *memoryTransactions) ListByUser(_ context.Context, userID string) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []Transaction{}
	for _, t := range m.transactions {
		if t.UserID == userID {
			res = append(res, *t)
		}
	}
	sortTransactions(res)
	return res, nil
}

func (m *memoryTransactions) ListInRange(_ context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []Transaction{}
	for _, t := range m.transactions {
		if t.UserID != userID {
			continue
		}
		if t.OccurredAt.Before(from) || t.OccurredAt.After(to) {
			continue
		}
		res = append(res, *t)
	}
	sortTransactions(res)
	return res, nil
}

func sortTransactions(res []Transaction) {
	sort.Slice(res, func(i, j int) bool {
		if !res[i].OccurredAt.Equal(res[j].OccurredAt) {
			return res[i].OccurredAt.After(res[j].OccurredAt)
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
}

func (m *memoryTransactions) Update(_ context.Context, userID, id string, upd Transaction) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	t.Description = upd.Description
	t.Amount = upd.Amount
	t.Type = upd.Type
	t.Category = upd.Category
	t.OccurredAt = upd.OccurredAt
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (m *memoryTransactions) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}
