package core

import (
	"testing"
	"time"
)

func tx(day int, typ TransactionType, cents int64, category, place string) Transaction {
	return Transaction{
		Time:     time.Date(2026, 8, day, 10, 0, 0, 0, time.UTC),
		Type:     typ,
		Amount:   Money{Cents: cents},
		Category: category,
		Place:    place,
	}
}

func TestBuildMonthReport(t *testing.T) {
	txs := []Transaction{
		tx(1, Expense, 30000, "food", "cash"),
		tx(2, Expense, 20000, "food", "bank"),
		tx(3, Expense, 15000, "transport", "cash"),
		tx(5, Income, 500000, "salary", "bank"),
		// Out of the reported month, must be ignored
		{Time: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), Type: Expense, Amount: Money{Cents: 99900}, Category: "food", Place: "cash"},
	}
	budgets := []Budget{
		{Category: "food", Limit: Money{Cents: 40000}},
		{Category: "fun", Limit: Money{Cents: 10000}},
	}

	r := BuildMonthReport(MonthKey{Year: 2026, Month: 8}, txs, budgets)

	if r.Income.Cents != 500000 {
		t.Errorf("income = %d, want 500000", r.Income.Cents)
	}
	if r.Expense.Cents != 65000 {
		t.Errorf("expense = %d, want 65000", r.Expense.Cents)
	}
	if r.Net() != 435000 {
		t.Errorf("net = %d, want 435000", r.Net())
	}

	if len(r.ByCategory) != 3 {
		t.Fatalf("categories = %d, want 3 (%+v)", len(r.ByCategory), r.ByCategory)
	}
	food := r.ByCategory[0]
	if food.Category != "food" || food.Spent.Cents != 50000 || food.Limit.Cents != 40000 {
		t.Errorf("unexpected food row: %+v", food)
	}
	if !food.Overspent() {
		t.Error("food should be overspent")
	}
	if r.ByCategory[1].Category != "transport" || r.ByCategory[1].Overspent() {
		t.Errorf("unexpected transport row: %+v", r.ByCategory[1])
	}
	// Budgeted category without spending still shows up
	fun := r.ByCategory[2]
	if fun.Category != "fun" || fun.Spent.Cents != 0 || fun.Limit.Cents != 10000 {
		t.Errorf("unexpected fun row: %+v", fun)
	}
}

func TestRecomputeBalances(t *testing.T) {
	txs := []Transaction{
		tx(1, Income, 100000, "salary", "bank"),
		tx(2, Expense, 20000, "food", "cash"),
		tx(3, Expense, 5000, "food", "bank"),
	}
	transfers := []Transfer{
		{Time: time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC), Amount: Money{Cents: 30000}, From: "bank", To: "cash"},
	}

	got := RecomputeBalances(txs, transfers)
	want := []PlaceBalance{
		{Place: "bank", Cents: 100000 - 5000 - 30000},
		{Place: "cash", Cents: -20000 + 30000},
	}
	if len(got) != len(want) {
		t.Fatalf("balances = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("balance[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
