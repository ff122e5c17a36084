package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is one recorded income or expense event.
	Transaction struct {
		Time     time.Time
		Type     TransactionType
		Amount   Money
		Category string
		Place    string // money-holding account (cash, bank, ...)
		Note     string
	}

	// Transfer moves money between two places without touching categories.
	Transfer struct {
		Time   time.Time
		Amount Money
		From   string
		To     string
		Note   string
	}

	// PlaceBalance is the running amount held by one place. Cents is signed:
	// a place can legitimately go negative (overdraft, credit card).
	PlaceBalance struct {
		Place string
		Cents int64
	}

	// Budget is a monthly spending limit for one category.
	Budget struct {
		Category string
		Limit    Money
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyPlace    = errors.New("empty place")
	ErrZeroTime      = errors.New("transaction time cannot be zero")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the balance effect of the transaction in cents:
// negative for expenses, positive for income.
func (t Transaction) Signed() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (t Transaction) Validate() error {
	if t.Time.IsZero() {
		return ErrZeroTime
	}
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Place) == "" {
		return ErrEmptyPlace
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (tr Transfer) Validate() error {
	if tr.Time.IsZero() {
		return ErrZeroTime
	}
	if err := tr.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tr.From) == "" || strings.TrimSpace(tr.To) == "" {
		return ErrEmptyPlace
	}
	if strings.EqualFold(strings.TrimSpace(tr.From), strings.TrimSpace(tr.To)) {
		return errors.New("transfer source and destination must differ")
	}
	if len(tr.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

// MonthKey identifies a calendar month ("2026-08").
type MonthKey struct {
	Year  int
	Month int // 1-12
}

func (k MonthKey) Validate() error {
	if k.Year < 1900 || k.Year > 3000 {
		return errors.New("invalid year")
	}
	if k.Month < 1 || k.Month > 12 {
		return errors.New("invalid month")
	}
	return nil
}

func (k MonthKey) String() string {
	return time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Contains reports whether t falls inside the month. The caller is expected
// to pass times already converted to the bot's timezone.
func (k MonthKey) Contains(t time.Time) bool {
	return t.Year() == k.Year && int(t.Month()) == k.Month
}

// MonthOf returns the month key for the given time.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}

// Prev returns the previous calendar month.
func (k MonthKey) Prev() MonthKey {
	if k.Month == 1 {
		return MonthKey{Year: k.Year - 1, Month: 12}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}

// ParseMonthKey parses "YYYY-MM".
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return MonthKey{}, errors.New("invalid month, expected YYYY-MM")
	}
	k := MonthKey{Year: t.Year(), Month: int(t.Month())}
	if err := k.Validate(); err != nil {
		return MonthKey{}, err
	}
	return k, nil
}
