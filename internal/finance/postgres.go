package finance

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Ownership scoping is part of
// every WHERE clause, so a foreign id updates or deletes zero rows.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Budgets(context.Context) BudgetStore           { return &pgBudgets{db: s.db} }
func (s *PGStore) Transactions(context.Context) TransactionStore { return &pgTransactions{db: s.db} }

// Budget store -------------------------------------------------------------

type pgBudgets struct{ db *sql.DB }

const budgetCols = `id, user_id, category, budget_limit, created_at, updated_at`

func (s *pgBudgets) Create(ctx context.Context, b *Budget) error {
	row := s.db.QueryRowContext(ctx,
		`insert into budgets(id, user_id, category, budget_limit) values($1,$2,$3,$4)
		 returning created_at, updated_at`,
		b.ID, b.UserID, b.Category, b.Limit,
	)
	return row.Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (s *pgBudgets) ListByUser(ctx context.Context, userID string) ([]Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+budgetCols+` from budgets where user_id=$1 order by created_at asc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Budget{}
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (s *pgBudgets) Update(ctx context.Context, userID, id string, category string, limit int64) (*Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`update budgets set category=$3, budget_limit=$4, updated_at=now()
		 where id=$1 and user_id=$2
		 returning `+budgetCols,
		id, userID, category, limit,
	)
	var b Budget
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *pgBudgets) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from budgets where id=$1 and user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Transaction store --------------------------------------------------------

type pgTransactions struct{ db *sql.DB }

const txCols = `id, user_id, description, amount, tx_type, category, occurred_at, created_at, updated_at`

func scanTransaction(rows *sql.Rows) (Transaction, error) {
	var t Transaction
	err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount, &t.Type, &t.Category, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *pgTransactions) Create(ctx context.Context, t *Transaction) error {
	row := s.db.QueryRowContext(ctx,
		`insert into transactions(id, user_id, description, amount, tx_type, category, occurred_at)
		 values($1,$2,$3,$4,$5,$6,$7)
		 returning created_at, updated_at`,
		t.ID, t.UserID, t.Description, t.Amount, t.Type, t.Category, t.OccurredAt,
	)
	return row.Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (s *pgTransactions) ListByUser(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+txCols+` from transactions where user_id=$1 order by occurred_at desc, created_at desc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (s *pgTransactions) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+txCols+` from transactions
		 where user_id=$1 and occurred_at >= $2 and occurred_at <= $3
		 order by occurred_at desc, created_at desc`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	res := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *pgTransactions) Update(ctx context.Context, userID, id string, upd Transaction) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`update transactions
		 set description=$3, amount=$4, tx_type=$5, category=$6, occurred_at=$7, updated_at=now()
		 where id=$1 and user_id=$2
		 returning `+txCols,
		id, userID, upd.Description, upd.Amount, upd.Type, upd.Category, upd.OccurredAt,
	)
	var t Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount, &t.Type, &t.Category, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *pgTransactions) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from transactions where id=$1 and user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
