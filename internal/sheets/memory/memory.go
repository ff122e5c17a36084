// Package memory is an in-process store used for tests and local runs
// without Google credentials.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
)

type Store struct {
	mu        sync.Mutex
	cats      []string
	txs       []core.Transaction
	transfers []core.Transfer
	balances  []core.PlaceBalance
	budgets   []core.Budget
	reports   map[string]core.MonthReport
}

var _ ports.Store = (*Store)(nil)

func New(cats []string) *Store {
	return &Store{cats: dedupe(cats), reports: map[string]core.MonthReport{}}
}

// NewFromFiles seeds categories from <base>/seed_categories.txt when present.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = []string{"food", "transport", "fun", "salary"}
	}
	return New(cats)
}

func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, t)
	return "mem:" + strconv.Itoa(len(s.txs)), nil
}

func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...), nil
}

func (s *Store) DeleteLast(_ context.Context) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.txs) == 0 {
		return nil, nil
	}
	last := s.txs[len(s.txs)-1]
	s.txs = s.txs[:len(s.txs)-1]
	return &last, nil
}

func (s *Store) DeleteSince(_ context.Context, since time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []core.Transaction
	var removed []core.Transaction
	for _, t := range s.txs {
		if t.Time.Before(since) {
			kept = append(kept, t)
		} else {
			removed = append(removed, t)
		}
	}
	s.txs = kept
	return removed, nil
}

func (s *Store) Balances(_ context.Context) ([]core.PlaceBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PlaceBalance(nil), s.balances...), nil
}

func (s *Store) SetBalance(_ context.Context, place string, cents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.balances {
		if strings.EqualFold(s.balances[i].Place, place) {
			s.balances[i].Cents = cents
			return nil
		}
	}
	s.balances = append(s.balances, core.PlaceBalance{Place: place, Cents: cents})
	return nil
}

func (s *Store) AdjustBalance(_ context.Context, place string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.balances {
		if strings.EqualFold(s.balances[i].Place, place) {
			s.balances[i].Cents += delta
			return s.balances[i].Cents, nil
		}
	}
	s.balances = append(s.balances, core.PlaceBalance{Place: place, Cents: delta})
	return delta, nil
}

func (s *Store) ReplaceBalances(_ context.Context, balances []core.PlaceBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = append([]core.PlaceBalance(nil), balances...)
	return nil
}

func (s *Store) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

func (s *Store) Budgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...), nil
}

func (s *Store) SetBudget(_ context.Context, b core.Budget) error {
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if strings.EqualFold(s.budgets[i].Category, b.Category) {
			s.budgets[i].Limit = b.Limit
			return nil
		}
	}
	s.budgets = append(s.budgets, b)
	return nil
}

func (s *Store) AppendTransfer(_ context.Context, tr core.Transfer) (string, error) {
	if err := tr.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = append(s.transfers, tr)
	return "mem:t" + strconv.Itoa(len(s.transfers)), nil
}

func (s *Store) ListTransfers(_ context.Context) ([]core.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transfer(nil), s.transfers...), nil
}

func (s *Store) WriteReport(_ context.Context, r core.MonthReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.Month.String()] = r
	return nil
}

// Report returns the stored report for a month, for tests.
func (s *Store) Report(month core.MonthKey) (core.MonthReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[month.String()]
	return r, ok
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
