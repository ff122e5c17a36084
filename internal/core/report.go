package core

import "time"

// CategorySpend pairs a category's expense total for a month with its budget
// limit. Limit.Cents == 0 means no budget is set for the category.
type CategorySpend struct {
	Category string
	Spent    Money
	Limit    Money
}

// Overspent reports whether the category has a budget and exceeded it.
func (c CategorySpend) Overspent() bool {
	return c.Limit.Cents > 0 && c.Spent.Cents > c.Limit.Cents
}

// MonthReport is the monthly summary produced by the "report" command and by
// the report worker.
type MonthReport struct {
	Month       MonthKey
	Income      Money
	Expense     Money
	ByCategory  []CategorySpend
	GeneratedAt time.Time
}

// Net returns income minus expense in cents.
func (r MonthReport) Net() int64 {
	return r.Income.Cents - r.Expense.Cents
}

// BuildMonthReport aggregates the month's transactions by category and joins
// budgets in. Categories keep first-seen order from the transaction history;
// budgeted categories without spending in the month are appended after, so a
// budget never silently disappears from the report.
func BuildMonthReport(month MonthKey, txs []Transaction, budgets []Budget) MonthReport {
	limits := make(map[string]Money, len(budgets))
	for _, b := range budgets {
		limits[b.Category] = b.Limit
	}

	var income, expense int64
	spent := map[string]int64{}
	order := make([]string, 0)
	for _, t := range txs {
		if !month.Contains(t.Time) {
			continue
		}
		if t.Type == Income {
			income += t.Amount.Cents
			continue
		}
		expense += t.Amount.Cents
		if _, seen := spent[t.Category]; !seen {
			order = append(order, t.Category)
		}
		spent[t.Category] += t.Amount.Cents
	}

	byCat := make([]CategorySpend, 0, len(order)+len(budgets))
	for _, name := range order {
		byCat = append(byCat, CategorySpend{
			Category: name,
			Spent:    Money{Cents: spent[name]},
			Limit:    limits[name],
		})
	}
	for _, b := range budgets {
		if _, hasSpend := spent[b.Category]; hasSpend {
			continue
		}
		byCat = append(byCat, CategorySpend{Category: b.Category, Limit: b.Limit})
	}

	return MonthReport{
		Month:      month,
		Income:     Money{Cents: income},
		Expense:    Money{Cents: expense},
		ByCategory: byCat,
	}
}

// RecomputeBalances rebuilds every place balance from the full transaction
// and transfer history. Places keep first-seen order.
func RecomputeBalances(txs []Transaction, transfers []Transfer) []PlaceBalance {
	sums := map[string]int64{}
	order := make([]string, 0)
	touch := func(place string, delta int64) {
		if _, seen := sums[place]; !seen {
			order = append(order, place)
		}
		sums[place] += delta
	}
	for _, t := range txs {
		touch(t.Place, t.Signed())
	}
	for _, tr := range transfers {
		touch(tr.From, -tr.Amount.Cents)
		touch(tr.To, tr.Amount.Cents)
	}
	out := make([]PlaceBalance, 0, len(order))
	for _, place := range order {
		out = append(out, PlaceBalance{Place: place, Cents: sums[place]})
	}
	return out
}
