package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db), mock
}

func TestPGBudgetsCreateFillsTimestamps(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery("insert into budgets").
		WithArgs("b1", "u1", "Food", int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	b := &Budget{ID: "b1", UserID: "u1", Category: "Food", Limit: 1000}
	if err := store.Budgets(ctx).Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.CreatedAt.IsZero() || b.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not populated: %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGBudgetsListScopedToUser(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "category", "budget_limit", "created_at", "updated_at"}).
		AddRow("b1", "u1", "Food", int64(1000), now, now).
		AddRow("b2", "u1", "Entertainment", int64(500), now, now)
	mock.ExpectQuery("select .* from budgets where user_id").WithArgs("u1").WillReturnRows(rows)

	budgets, err := store.Budgets(ctx).ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(budgets) != 2 || budgets[1].Category != "Entertainment" {
		t.Fatalf("unexpected budgets: %+v", budgets)
	}
}

func TestPGBudgetsUpdateForeignID(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("update budgets set").
		WithArgs("b1", "intruder", "Food", int64(1500)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category", "budget_limit", "created_at", "updated_at"}))

	_, err := store.Budgets(ctx).Update(ctx, "intruder", "b1", "Food", 1500)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGBudgetsDeleteMissing(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("delete from budgets").
		WithArgs("ghost", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Budgets(ctx).Delete(ctx, "u1", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGTransactionsListInRange(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	from := time.Now().Add(-24 * time.Hour)
	to := time.Now().Add(24 * time.Hour)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "description", "amount", "tx_type", "category", "occurred_at", "created_at", "updated_at"}).
		AddRow("t1", "u1", "Groceries", int64(100), TypeExpense, "Food", now, now, now)
	mock.ExpectQuery("select .* from transactions").
		WithArgs("u1", from, to).
		WillReturnRows(rows)

	items, err := store.Transactions(ctx).ListInRange(ctx, "u1", from, to)
	if err != nil {
		t.Fatalf("ListInRange: %v", err)
	}
	if len(items) != 1 || items[0].Description != "Groceries" {
		t.Fatalf("unexpected transactions: %+v", items)
	}
}

func TestPGTransactionsUpdateMissing(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("update transactions").
		WithArgs("ghost", "u1", "x", int64(1), TypeExpense, "Misc", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "description", "amount", "tx_type", "category", "occurred_at", "created_at", "updated_at"}))

	_, err := store.Transactions(ctx).Update(ctx, "u1", "ghost", Transaction{
		Description: "x", Amount: 1, Type: TypeExpense, Category: "Misc", OccurredAt: time.Now(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
