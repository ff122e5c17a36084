package storage

import (
	"context"
	"database/sql"
)

// DBTX is the minimal database interface the queries run against.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// TransactionRow mirrors one transactions table row. Timestamps are stored
// as RFC 3339 strings.
type TransactionRow struct {
	ID          int64
	RecordedAt  string
	TxType      string
	AmountCents int64
	Category    string
	Place       string
	Note        string
	SyncStatus  string
}

type TransferRow struct {
	ID          int64
	RecordedAt  string
	AmountCents int64
	FromPlace   string
	ToPlace     string
	Note        string
}

type BalanceRow struct {
	Place       string
	AmountCents int64
}

type BudgetRow struct {
	Category   string
	LimitCents int64
}

type CreateTransactionParams struct {
	RecordedAt  string
	TxType      string
	AmountCents int64
	Category    string
	Place       string
	Note        string
}

const createTransaction = `
INSERT INTO transactions (recorded_at, tx_type, amount_cents, category, place, note)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, recorded_at, tx_type, amount_cents, category, place, note, sync_status
`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.RecordedAt, arg.TxType, arg.AmountCents, arg.Category, arg.Place, arg.Note)
	var t TransactionRow
	err := row.Scan(&t.ID, &t.RecordedAt, &t.TxType, &t.AmountCents, &t.Category, &t.Place, &t.Note, &t.SyncStatus)
	return t, err
}

const listTransactions = `
SELECT id, recorded_at, tx_type, amount_cents, category, place, note, sync_status
FROM transactions
ORDER BY id
`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var t TransactionRow
		if err := rows.Scan(&t.ID, &t.RecordedAt, &t.TxType, &t.AmountCents, &t.Category, &t.Place, &t.Note, &t.SyncStatus); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTransaction = `
SELECT id, recorded_at, tx_type, amount_cents, category, place, note, sync_status
FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var t TransactionRow
	err := row.Scan(&t.ID, &t.RecordedAt, &t.TxType, &t.AmountCents, &t.Category, &t.Place, &t.Note, &t.SyncStatus)
	return t, err
}

const getLastTransaction = `
SELECT id, recorded_at, tx_type, amount_cents, category, place, note, sync_status
FROM transactions
ORDER BY id DESC
LIMIT 1
`

func (q *Queries) GetLastTransaction(ctx context.Context) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getLastTransaction)
	var t TransactionRow
	err := row.Scan(&t.ID, &t.RecordedAt, &t.TxType, &t.AmountCents, &t.Category, &t.Place, &t.Note, &t.SyncStatus)
	return t, err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

const getPendingSyncTransactions = `
SELECT id, recorded_at, tx_type, amount_cents, category, place, note, sync_status
FROM transactions
WHERE sync_status = 'pending'
ORDER BY id
LIMIT ?
`

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var t TransactionRow
		if err := rows.Scan(&t.ID, &t.RecordedAt, &t.TxType, &t.AmountCents, &t.Category, &t.Place, &t.Note, &t.SyncStatus); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const markTransactionSynced = `
UPDATE transactions
SET sync_status = 'synced', synced_at = datetime('now')
WHERE id = ?
`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, id)
	return err
}

const markTransactionSyncError = `
UPDATE transactions
SET sync_status = 'error'
WHERE id = ?
`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}

const listBalances = `SELECT place, amount_cents FROM balances ORDER BY rowid`

func (q *Queries) ListBalances(ctx context.Context) ([]BalanceRow, error) {
	rows, err := q.db.QueryContext(ctx, listBalances)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BalanceRow
	for rows.Next() {
		var b BalanceRow
		if err := rows.Scan(&b.Place, &b.AmountCents); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const upsertBalance = `
INSERT INTO balances (place, amount_cents)
VALUES (?, ?)
ON CONFLICT(place) DO UPDATE SET amount_cents = excluded.amount_cents
`

func (q *Queries) UpsertBalance(ctx context.Context, place string, amountCents int64) error {
	_, err := q.db.ExecContext(ctx, upsertBalance, place, amountCents)
	return err
}

const adjustBalance = `
INSERT INTO balances (place, amount_cents)
VALUES (?, ?)
ON CONFLICT(place) DO UPDATE SET amount_cents = balances.amount_cents + excluded.amount_cents
RETURNING amount_cents
`

func (q *Queries) AdjustBalance(ctx context.Context, place string, delta int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, adjustBalance, place, delta)
	var cents int64
	err := row.Scan(&cents)
	return cents, err
}

const deleteAllBalances = `DELETE FROM balances`

func (q *Queries) DeleteAllBalances(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllBalances)
	return err
}

const listCategories = `SELECT name FROM categories ORDER BY rowid`

func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

const listBudgets = `SELECT category, limit_cents FROM budgets ORDER BY rowid`

func (q *Queries) ListBudgets(ctx context.Context) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetRow
	for rows.Next() {
		var b BudgetRow
		if err := rows.Scan(&b.Category, &b.LimitCents); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const upsertBudget = `
INSERT INTO budgets (category, limit_cents)
VALUES (?, ?)
ON CONFLICT(category) DO UPDATE SET limit_cents = excluded.limit_cents
`

func (q *Queries) UpsertBudget(ctx context.Context, category string, limitCents int64) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, category, limitCents)
	return err
}

type CreateTransferParams struct {
	RecordedAt  string
	AmountCents int64
	FromPlace   string
	ToPlace     string
	Note        string
}

const createTransfer = `
INSERT INTO transfers (recorded_at, amount_cents, from_place, to_place, note)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

func (q *Queries) CreateTransfer(ctx context.Context, arg CreateTransferParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransfer,
		arg.RecordedAt, arg.AmountCents, arg.FromPlace, arg.ToPlace, arg.Note)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listTransfers = `
SELECT id, recorded_at, amount_cents, from_place, to_place, note
FROM transfers
ORDER BY id
`

func (q *Queries) ListTransfers(ctx context.Context) ([]TransferRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransfers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransferRow
	for rows.Next() {
		var t TransferRow
		if err := rows.Scan(&t.ID, &t.RecordedAt, &t.AmountCents, &t.FromPlace, &t.ToPlace, &t.Note); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

type UpsertReportParams struct {
	Month        string
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64
	GeneratedAt  string
}

const upsertReport = `
INSERT INTO reports (month, income_cents, expense_cents, net_cents, generated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(month) DO UPDATE SET
    income_cents = excluded.income_cents,
    expense_cents = excluded.expense_cents,
    net_cents = excluded.net_cents,
    generated_at = excluded.generated_at
`

func (q *Queries) UpsertReport(ctx context.Context, arg UpsertReportParams) error {
	_, err := q.db.ExecContext(ctx, upsertReport,
		arg.Month, arg.IncomeCents, arg.ExpenseCents, arg.NetCents, arg.GeneratedAt)
	return err
}
