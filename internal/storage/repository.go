// Package storage is the SQLite adapter: an offline-first journal of the
// same tabs the spreadsheet holds, plus the pending-sync queue consumed by
// the sync worker.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	loc     *time.Location
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, loc *time.Location) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		loc:     loc,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) rowToTransaction(row TransactionRow) (core.Transaction, error) {
	ts, err := time.Parse(time.RFC3339, row.RecordedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse recorded_at %q: %w", row.RecordedAt, err)
	}
	return core.Transaction{
		Time:     ts.In(r.loc),
		Type:     core.TransactionType(row.TxType),
		Amount:   core.Money{Cents: row.AmountCents},
		Category: row.Category,
		Place:    row.Place,
		Note:     row.Note,
	}, nil
}

// Append implements sheets.TransactionStore. New rows enter the sync queue
// as pending.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		RecordedAt:  t.Time.Format(time.RFC3339),
		TxType:      string(t.Type),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Place:       t.Place,
		Note:        t.Note,
	})
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"tx_type", row.TxType,
		"amount_cents", row.AmountCents,
		"category", row.Category,
		"place", row.Place)

	return fmt.Sprintf("sqlite:%d", row.ID), nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := r.rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteLast(ctx context.Context) (*core.Transaction, error) {
	row, err := r.queries.GetLastTransaction(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last transaction: %w", err)
	}
	t, err := r.rowToTransaction(row)
	if err != nil {
		return nil, err
	}
	if err := r.queries.DeleteTransaction(ctx, row.ID); err != nil {
		return nil, fmt.Errorf("delete transaction %d: %w", row.ID, err)
	}
	return &t, nil
}

func (r *SQLiteRepository) DeleteSince(ctx context.Context, since time.Time) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var removed []core.Transaction
	for _, row := range rows {
		t, err := r.rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		if t.Time.Before(since) {
			continue
		}
		if err := r.queries.DeleteTransaction(ctx, row.ID); err != nil {
			return removed, fmt.Errorf("delete transaction %d: %w", row.ID, err)
		}
		removed = append(removed, t)
	}
	return removed, nil
}

func (r *SQLiteRepository) Balances(ctx context.Context) ([]core.PlaceBalance, error) {
	rows, err := r.queries.ListBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	out := make([]core.PlaceBalance, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.PlaceBalance{Place: row.Place, Cents: row.AmountCents})
	}
	return out, nil
}

func (r *SQLiteRepository) SetBalance(ctx context.Context, place string, cents int64) error {
	if err := r.queries.UpsertBalance(ctx, place, cents); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AdjustBalance(ctx context.Context, place string, delta int64) (int64, error) {
	cents, err := r.queries.AdjustBalance(ctx, place, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}
	return cents, nil
}

func (r *SQLiteRepository) ReplaceBalances(ctx context.Context, balances []core.PlaceBalance) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := New(tx)
	if err := qtx.DeleteAllBalances(ctx); err != nil {
		return fmt.Errorf("clear balances: %w", err)
	}
	for _, b := range balances {
		if err := qtx.UpsertBalance(ctx, b.Place, b.Cents); err != nil {
			return fmt.Errorf("write balance for %s: %w", b.Place, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit balances: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) Budgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Budget{Category: row.Category, Limit: core.Money{Cents: row.LimitCents}})
	}
	return out, nil
}

func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	if err := r.queries.UpsertBudget(ctx, b.Category, b.Limit.Cents); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AppendTransfer(ctx context.Context, tr core.Transfer) (string, error) {
	if err := tr.Validate(); err != nil {
		return "", err
	}
	id, err := r.queries.CreateTransfer(ctx, CreateTransferParams{
		RecordedAt:  tr.Time.Format(time.RFC3339),
		AmountCents: tr.Amount.Cents,
		FromPlace:   tr.From,
		ToPlace:     tr.To,
		Note:        tr.Note,
	})
	if err != nil {
		return "", fmt.Errorf("create transfer: %w", err)
	}
	return fmt.Sprintf("sqlite:t%d", id), nil
}

func (r *SQLiteRepository) ListTransfers(ctx context.Context) ([]core.Transfer, error) {
	rows, err := r.queries.ListTransfers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	out := make([]core.Transfer, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339, row.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", row.RecordedAt, err)
		}
		out = append(out, core.Transfer{
			Time:   ts.In(r.loc),
			Amount: core.Money{Cents: row.AmountCents},
			From:   row.FromPlace,
			To:     row.ToPlace,
			Note:   row.Note,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) WriteReport(ctx context.Context, rep core.MonthReport) error {
	err := r.queries.UpsertReport(ctx, UpsertReportParams{
		Month:        rep.Month.String(),
		IncomeCents:  rep.Income.Cents,
		ExpenseCents: rep.Expense.Cents,
		NetCents:     rep.Net(),
		GeneratedAt:  rep.GeneratedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

// PendingSyncTransaction carries the minimal data for sync queue messages.
type PendingSyncTransaction struct {
	ID         int64
	RecordedAt time.Time
}

// GetPendingSyncTransactions returns transactions not yet written to the
// spreadsheet.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	out := make([]PendingSyncTransaction, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339, row.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", row.RecordedAt, err)
		}
		out = append(out, PendingSyncTransaction{ID: row.ID, RecordedAt: ts.In(r.loc)})
	}
	return out, nil
}

// GetTransaction retrieves one transaction by its row ID. Returns nil when
// the row was deleted in the meantime.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	t, err := r.rowToTransaction(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkSynced marks a transaction as successfully written to the spreadsheet.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having sync errors.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}
