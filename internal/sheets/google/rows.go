package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kakeibo/internal/core"
)

// Cell layout per tab. Header row 1, data from row 2.
//
//	Transactions: timestamp | type | amount | category | place | note
//	Balances:     place | amount
//	Budgets:      category | limit
//	Transfers:    timestamp | amount | from | to | note
//	Reports:      month | income | expense | net | generated at
const timestampLayout = "2006-01-02 15:04:05"

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// parseCellCents reads an amount cell that may arrive as a formatted string
// ("12,34") or a bare number.
func parseCellCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if f < 0 {
		return int64(f*100.0 - 0.5), true
	}
	return int64(f*100.0 + 0.5), true
}

func encodeTransaction(t core.Transaction) []any {
	return []any{
		t.Time.Format(timestampLayout),
		string(t.Type),
		core.FormatCents(t.Amount.Cents),
		t.Category,
		t.Place,
		t.Note,
	}
}

// decodeTransaction parses one Transactions row. Rows that do not look like
// data (headers, blanks left by manual edits) return ok=false and are
// skipped by callers.
func decodeTransaction(row []interface{}, loc *time.Location) (core.Transaction, bool) {
	cols := toStrings(row)
	if len(cols) < 5 {
		return core.Transaction{}, false
	}
	ts, err := time.ParseInLocation(timestampLayout, cols[0], loc)
	if err != nil {
		return core.Transaction{}, false
	}
	typ := core.TransactionType(strings.ToLower(cols[1]))
	if typ != core.Income && typ != core.Expense {
		return core.Transaction{}, false
	}
	cents, ok := parseCellCents(cols[2])
	if !ok || cents <= 0 {
		return core.Transaction{}, false
	}
	t := core.Transaction{
		Time:     ts,
		Type:     typ,
		Amount:   core.Money{Cents: cents},
		Category: cols[3],
		Place:    cols[4],
	}
	if len(cols) > 5 {
		t.Note = cols[5]
	}
	if t.Category == "" || t.Place == "" {
		return core.Transaction{}, false
	}
	return t, true
}

func encodeTransfer(tr core.Transfer) []any {
	return []any{
		tr.Time.Format(timestampLayout),
		core.FormatCents(tr.Amount.Cents),
		tr.From,
		tr.To,
		tr.Note,
	}
}

func decodeTransfer(row []interface{}, loc *time.Location) (core.Transfer, bool) {
	cols := toStrings(row)
	if len(cols) < 4 {
		return core.Transfer{}, false
	}
	ts, err := time.ParseInLocation(timestampLayout, cols[0], loc)
	if err != nil {
		return core.Transfer{}, false
	}
	cents, ok := parseCellCents(cols[1])
	if !ok || cents <= 0 {
		return core.Transfer{}, false
	}
	tr := core.Transfer{
		Time:   ts,
		Amount: core.Money{Cents: cents},
		From:   cols[2],
		To:     cols[3],
	}
	if len(cols) > 4 {
		tr.Note = cols[4]
	}
	if tr.From == "" || tr.To == "" {
		return core.Transfer{}, false
	}
	return tr, true
}

func decodeBalance(row []interface{}) (core.PlaceBalance, bool) {
	cols := toStrings(row)
	if len(cols) < 2 || cols[0] == "" {
		return core.PlaceBalance{}, false
	}
	cents, ok := parseCellCents(cols[1])
	if !ok {
		return core.PlaceBalance{}, false
	}
	return core.PlaceBalance{Place: cols[0], Cents: cents}, true
}

func decodeBudget(row []interface{}) (core.Budget, bool) {
	cols := toStrings(row)
	if len(cols) < 2 || cols[0] == "" {
		return core.Budget{}, false
	}
	cents, ok := parseCellCents(cols[1])
	if !ok || cents <= 0 {
		return core.Budget{}, false
	}
	return core.Budget{Category: cols[0], Limit: core.Money{Cents: cents}}, true
}

func encodeReport(r core.MonthReport) []any {
	return []any{
		r.Month.String(),
		core.FormatCents(r.Income.Cents),
		core.FormatCents(r.Expense.Cents),
		core.FormatCents(r.Net()),
		r.GeneratedAt.Format(timestampLayout),
	}
}
