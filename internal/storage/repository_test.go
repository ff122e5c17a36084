package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kakeibo/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func tx(day int, typ core.TransactionType, cents int64, category, place, note string) core.Transaction {
	return core.Transaction{
		Time:     time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC),
		Type:     typ,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Place:    place,
		Note:     note,
	}
}

func TestAppendAndListAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ref, err := repo.Append(ctx, tx(1, core.Expense, 50000, "food", "cash", "lunch"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref == "" {
		t.Fatal("empty row ref")
	}
	repo.Append(ctx, tx(2, core.Income, 300000, "salary", "bank", ""))

	txs, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("len = %d, want 2", len(txs))
	}
	if txs[0].Category != "food" || txs[0].Note != "lunch" {
		t.Fatalf("first tx = %+v", txs[0])
	}
	if !txs[0].Time.Equal(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp round trip: %v", txs[0].Time)
	}
	if txs[1].Type != core.Income {
		t.Fatalf("second tx = %+v", txs[1])
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	bad := tx(1, core.Expense, -5, "food", "cash", "")
	if _, err := repo.Append(context.Background(), bad); err == nil {
		t.Fatal("negative amount should fail validation")
	}
}

func TestDeleteLast(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if got, err := repo.DeleteLast(ctx); err != nil || got != nil {
		t.Fatalf("DeleteLast on empty = %+v, %v", got, err)
	}

	repo.Append(ctx, tx(1, core.Expense, 100, "food", "cash", ""))
	repo.Append(ctx, tx(2, core.Expense, 200, "transport", "cash", ""))

	got, err := repo.DeleteLast(ctx)
	if err != nil || got == nil {
		t.Fatalf("DeleteLast = %+v, %v", got, err)
	}
	if got.Category != "transport" {
		t.Fatalf("deleted wrong row: %+v", got)
	}
	txs, _ := repo.ListAll(ctx)
	if len(txs) != 1 {
		t.Fatalf("remaining = %d, want 1", len(txs))
	}
}

func TestDeleteSince(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	repo.Append(ctx, tx(1, core.Expense, 100, "food", "cash", ""))
	repo.Append(ctx, tx(10, core.Expense, 200, "food", "cash", ""))
	repo.Append(ctx, tx(20, core.Expense, 300, "food", "cash", ""))

	removed, err := repo.DeleteSince(ctx, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DeleteSince: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed %d rows, want 2", len(removed))
	}
	txs, _ := repo.ListAll(ctx)
	if len(txs) != 1 || txs[0].Amount.Cents != 100 {
		t.Fatalf("remaining = %+v", txs)
	}
}

func TestBalances(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetBalance(ctx, "cash", 10000); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	got, err := repo.AdjustBalance(ctx, "cash", -2500)
	if err != nil || got != 7500 {
		t.Fatalf("AdjustBalance = %d, %v; want 7500", got, err)
	}
	// NOCASE collation folds place names
	got, err = repo.AdjustBalance(ctx, "Cash", -500)
	if err != nil || got != 7000 {
		t.Fatalf("AdjustBalance case-insensitive = %d, %v; want 7000", got, err)
	}
	// Unknown places start from zero
	got, err = repo.AdjustBalance(ctx, "bank", 100)
	if err != nil || got != 100 {
		t.Fatalf("AdjustBalance new place = %d, %v; want 100", got, err)
	}

	if err := repo.ReplaceBalances(ctx, []core.PlaceBalance{{Place: "wallet", Cents: 42}}); err != nil {
		t.Fatalf("ReplaceBalances: %v", err)
	}
	balances, err := repo.Balances(ctx)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if len(balances) != 1 || balances[0].Place != "wallet" || balances[0].Cents != 42 {
		t.Fatalf("balances = %+v", balances)
	}
}

func TestSeededCategories(t *testing.T) {
	repo := newTestRepo(t)
	cats, err := repo.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 4 || cats[0] != "food" {
		t.Fatalf("categories = %+v", cats)
	}
}

func TestBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := core.Budget{Category: "food", Limit: core.Money{Cents: 40000}}
	if err := repo.SetBudget(ctx, b); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	// Upsert replaces the limit
	b.Limit.Cents = 50000
	if err := repo.SetBudget(ctx, b); err != nil {
		t.Fatalf("SetBudget update: %v", err)
	}
	budgets, err := repo.Budgets(ctx)
	if err != nil {
		t.Fatalf("Budgets: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Limit.Cents != 50000 {
		t.Fatalf("budgets = %+v", budgets)
	}
}

func TestTransfers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tr := core.Transfer{
		Time:   time.Date(2026, 8, 5, 9, 0, 0, 0, time.UTC),
		Amount: core.Money{Cents: 30000},
		From:   "bank",
		To:     "cash",
		Note:   "atm",
	}
	if _, err := repo.AppendTransfer(ctx, tr); err != nil {
		t.Fatalf("AppendTransfer: %v", err)
	}
	transfers, err := repo.ListTransfers(ctx)
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(transfers) != 1 || transfers[0].From != "bank" || transfers[0].Amount.Cents != 30000 {
		t.Fatalf("transfers = %+v", transfers)
	}
}

func TestWriteReport(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rep := core.MonthReport{
		Month:       core.MonthKey{Year: 2026, Month: 8},
		Income:      core.Money{Cents: 500000},
		Expense:     core.Money{Cents: 30000},
		GeneratedAt: time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.WriteReport(ctx, rep); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	// Upsert keeps one row per month
	rep.Expense.Cents = 40000
	if err := repo.WriteReport(ctx, rep); err != nil {
		t.Fatalf("WriteReport update: %v", err)
	}
}

func TestSyncQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Append(ctx, tx(1, core.Expense, 100, "food", "cash", ""))
	repo.Append(ctx, tx(2, core.Expense, 200, "food", "cash", ""))

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	got, err := repo.GetTransaction(ctx, pending[0].ID)
	if err != nil || got == nil {
		t.Fatalf("GetTransaction = %+v, %v", got, err)
	}
	if got.Amount.Cents != 100 {
		t.Fatalf("transaction = %+v", got)
	}

	if err := repo.MarkSynced(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, pending[1].ID); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions after mark: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after mark = %d, want 0", len(pending))
	}

	// Deleted rows vanish from lookups
	if got, err := repo.GetTransaction(ctx, 9999); err != nil || got != nil {
		t.Fatalf("GetTransaction missing = %+v, %v", got, err)
	}
}
