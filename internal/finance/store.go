package finance

import (
	"context"
	"time"
)

// Store is the persistence contract shared by budgets and transactions.
// Every operation other than Create is scoped to the owning user: an id that
// exists but belongs to another user behaves exactly like a missing id.
type Store interface {
	Budgets(ctx context.Context) BudgetStore
	Transactions(ctx context.Context) TransactionStore
}

// BudgetStore manages budget rows for their owner.
type BudgetStore interface {
	Create(ctx context.Context, b *Budget) error
	ListByUser(ctx context.Context, userID string) ([]Budget, error)
	Update(ctx context.Context, userID, id string, category string, limit int64) (*Budget, error)
	Delete(ctx context.Context, userID, id string) error
}

// TransactionStore manages transaction rows for their owner.
type TransactionStore interface {
	Create(ctx context.Context, t *Transaction) error
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
	ListInRange(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error)
	Update(ctx context.Context, userID, id string, upd Transaction) (*Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}
