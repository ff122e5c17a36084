package command

import (
	"errors"
	"testing"
	"time"

	"kakeibo/internal/core"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		in   string
		typ  core.TransactionType
		want Command
	}{
		{"e 500 food cash lunch", core.Expense, Command{Kind: KindRecord, TxType: core.Expense, AmountCents: 50000, Category: "food", Place: "cash", Note: "lunch"}},
		{"expense 12.34 transport bank", core.Expense, Command{Kind: KindRecord, TxType: core.Expense, AmountCents: 1234, Category: "transport", Place: "bank"}},
		{"i 3000 salary bank august pay", core.Income, Command{Kind: KindRecord, TxType: core.Income, AmountCents: 300000, Category: "salary", Place: "bank", Note: "august pay"}},
		{"INCOME 5 gift cash", core.Income, Command{Kind: KindRecord, TxType: core.Income, AmountCents: 500, Category: "gift", Place: "cash"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRecordUsageErrors(t *testing.T) {
	for _, in := range []string{"e", "e 500", "e 500 food", "e abc food cash", "e -5 food cash", "e 0 food cash"} {
		_, err := Parse(in)
		var ue *UsageError
		if !errors.As(err, &ue) {
			t.Errorf("Parse(%q) error = %v, want usage error", in, err)
		}
	}
}

func TestParseSimpleVerbs(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{"balance", KindBalance},
		{"budget", KindBudget},
		{"refresh", KindRefresh},
		{"help", KindHelp},
		{"delete last", KindDeleteLast},
		{"Delete LAST", KindDeleteLast},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil || got.Kind != tt.kind {
			t.Errorf("Parse(%q) = %+v, %v, want kind %s", tt.in, got, err, tt.kind)
		}
	}
}

func TestParseSetBalance(t *testing.T) {
	got, err := Parse("setbalance cash -120.50")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Kind != KindSetBalance || got.Place != "cash" || got.BalanceCents != -12050 {
		t.Fatalf("unexpected command: %+v", got)
	}
	if _, err := Parse("setbalance cash"); err == nil {
		t.Fatal("missing amount should fail")
	}
}

func TestParseReport(t *testing.T) {
	got, err := Parse("report")
	if err != nil || got.Kind != KindReport || got.HasMonth {
		t.Fatalf("bare report = %+v, %v", got, err)
	}
	got, err = Parse("report 2026-07")
	if err != nil || !got.HasMonth || got.Month != (core.MonthKey{Year: 2026, Month: 7}) {
		t.Fatalf("report with month = %+v, %v", got, err)
	}
	if _, err := Parse("report yesterday"); err == nil {
		t.Fatal("bad month should fail")
	}
}

func TestParseSetBudget(t *testing.T) {
	got, err := Parse("setbudget food 400")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Kind != KindSetBudget || got.Category != "food" || got.AmountCents != 40000 {
		t.Fatalf("unexpected command: %+v", got)
	}
	if _, err := Parse("setbudget food -1"); err == nil {
		t.Fatal("negative budget should fail")
	}
}

func TestParseTransfer(t *testing.T) {
	got, err := Parse("transfer 200 bank cash atm withdrawal")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Command{Kind: KindTransfer, AmountCents: 20000, From: "bank", To: "cash", Note: "atm withdrawal"}
	if got != want {
		t.Fatalf("Parse = %+v, want %+v", got, want)
	}
	if _, err := Parse("transfer 200 bank"); err == nil {
		t.Fatal("missing destination should fail")
	}
}

func TestParseReset(t *testing.T) {
	for in, window := range map[string]ResetWindow{
		"reset daily":   ResetDaily,
		"reset Weekly":  ResetWeekly,
		"reset MONTHLY": ResetMonthly,
	} {
		got, err := Parse(in)
		if err != nil || got.Kind != KindReset || got.Window != window {
			t.Errorf("Parse(%q) = %+v, %v", in, got, err)
		}
	}
	if _, err := Parse("reset yearly"); err == nil {
		t.Fatal("unknown window should fail")
	}
}

func TestParseSearch(t *testing.T) {
	got, err := Parse("search lunch")
	if err != nil || got.Kind != KindSearch || got.Keyword != "lunch" || got.HasDate {
		t.Fatalf("Parse = %+v, %v", got, err)
	}
	got, err = Parse("search lunch 2026-08-01")
	if err != nil || !got.HasDate || !got.Date.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Parse with date = %+v, %v", got, err)
	}
	if _, err := Parse("search lunch 01-08-2026"); err == nil {
		t.Fatal("bad date should fail")
	}
}

func TestParseUnknown(t *testing.T) {
	for _, in := range []string{"", "   ", "hello there", "ee 500 food cash"} {
		if _, err := Parse(in); !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknownCommand", in, err)
		}
	}
}
