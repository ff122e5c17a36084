package bot

import (
	"fmt"
	"strings"

	"kakeibo/internal/core"
)

const helpText = `Commands:
e|expense <amount> <category> <place> [note]
i|income <amount> <category> <place> [note]
balance
setbalance <place> <amount>
transfer <amount> <from> <to> [note]
report [YYYY-MM]
setbudget <category> <amount>
budget
search <keyword> [YYYY-MM-DD]
delete last
reset daily|weekly|monthly
refresh
help`

func formatRecorded(t core.Transaction, balance int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recorded %s %s (%s) at %s", t.Type, t.Amount.Format(), t.Category, t.Place)
	if t.Note != "" {
		fmt.Fprintf(&b, ": %s", t.Note)
	}
	fmt.Fprintf(&b, "\n%s balance: %s", t.Place, core.FormatCents(balance))
	return b.String()
}

func formatBalances(balances []core.PlaceBalance, total int64) string {
	if len(balances) == 0 {
		return "No balances yet. Use: setbalance <place> <amount>"
	}
	var b strings.Builder
	b.WriteString("Balances:\n")
	for _, pb := range balances {
		fmt.Fprintf(&b, "%s: %s\n", pb.Place, core.FormatCents(pb.Cents))
	}
	fmt.Fprintf(&b, "Total: %s", core.FormatCents(total))
	return b.String()
}

func formatSetBalance(place string, cents int64) string {
	return fmt.Sprintf("%s balance set to %s", place, core.FormatCents(cents))
}

func formatTransfer(t core.Transfer, fromBalance, toBalance int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transferred %s from %s to %s", t.Amount.Format(), t.From, t.To)
	if t.Note != "" {
		fmt.Fprintf(&b, ": %s", t.Note)
	}
	fmt.Fprintf(&b, "\n%s: %s\n%s: %s",
		t.From, core.FormatCents(fromBalance),
		t.To, core.FormatCents(toBalance))
	return b.String()
}

// FormatMonthReport renders a month report as chat text. Shared with the
// report push worker.
func FormatMonthReport(r core.MonthReport) string {
	return formatReport(r)
}

func formatReport(r core.MonthReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report %s\n", r.Month)
	fmt.Fprintf(&b, "Income: %s\n", r.Income.Format())
	fmt.Fprintf(&b, "Expense: %s\n", r.Expense.Format())
	fmt.Fprintf(&b, "Net: %s", core.FormatCents(r.Net()))
	for _, c := range r.ByCategory {
		if c.Spent.Cents == 0 && c.Limit.Cents == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", c.Category, c.Spent.Format())
		if c.Limit.Cents > 0 {
			fmt.Fprintf(&b, " / %s", c.Limit.Format())
			if c.Overspent() {
				b.WriteString(" OVER")
			}
		}
	}
	return b.String()
}

func formatSetBudget(b core.Budget) string {
	return fmt.Sprintf("Budget for %s set to %s per month", b.Category, b.Limit.Format())
}

func formatBudgetStatus(status []core.CategorySpend, month core.MonthKey) string {
	if len(status) == 0 {
		return "No budgets set. Use: setbudget <category> <amount>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Budgets %s:", month)
	for _, c := range status {
		fmt.Fprintf(&b, "\n%s: %s / %s", c.Category, c.Spent.Format(), c.Limit.Format())
		if c.Overspent() {
			b.WriteString(" OVER")
		}
	}
	return b.String()
}

func formatDeleted(t *core.Transaction, balance int64) string {
	if t == nil {
		return "Nothing to delete."
	}
	return fmt.Sprintf("Deleted %s %s (%s) at %s\n%s balance: %s",
		t.Type, t.Amount.Format(), t.Category, t.Place,
		t.Place, core.FormatCents(balance))
}

func formatReset(window string, removed int) string {
	if removed == 0 {
		return fmt.Sprintf("Nothing to reset for the current %s window.", window)
	}
	return fmt.Sprintf("Removed %d transaction(s) from the current %s window.", removed, window)
}

func formatRefreshed(balances []core.PlaceBalance) string {
	var b strings.Builder
	b.WriteString("Balances recomputed from history:\n")
	if len(balances) == 0 {
		return "Balances recomputed from history: no transactions yet."
	}
	var total int64
	for _, pb := range balances {
		fmt.Fprintf(&b, "%s: %s\n", pb.Place, core.FormatCents(pb.Cents))
		total += pb.Cents
	}
	fmt.Fprintf(&b, "Total: %s", core.FormatCents(total))
	return b.String()
}

func formatSearchResults(keyword string, txs []core.Transaction) string {
	if len(txs) == 0 {
		return fmt.Sprintf("No transactions matching %q.", keyword)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Matches for %q:", keyword)
	for _, t := range txs {
		fmt.Fprintf(&b, "\n%s %s %s (%s) at %s",
			t.Time.Format("01-02"), t.Type, t.Amount.Format(), t.Category, t.Place)
		if t.Note != "" {
			fmt.Fprintf(&b, ": %s", t.Note)
		}
	}
	return b.String()
}

func formatUnknownCategory(category string, known []string) string {
	return fmt.Sprintf("Unknown category %q. Known categories: %s",
		category, strings.Join(known, ", "))
}
