// Package ledger implements the bot's operations against the store ports:
// recording transactions, balances, transfers, budgets, reports, and the
// destructive maintenance commands.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/command"
	"kakeibo/internal/core"
	"kakeibo/internal/sheets"
)

const (
	cacheTTL         = 5 * time.Minute
	categoriesKey    = "categories"
	budgetsKey       = "budgets"
	MaxSearchResults = 10
)

// UnknownCategoryError is returned when a command names a category that is
// not present in the categories tab.
type UnknownCategoryError struct {
	Category string
	Known    []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("category %q does not exist", e.Category)
}

// Service runs every chat operation against a Store. Balances are trusted
// and adjusted incrementally; Refresh recomputes them from history.
type Service struct {
	store sheets.Store
	loc   *time.Location

	catCache *cache.LRUCache[[]string]
	budCache *cache.LRUCache[[]core.Budget]

	// now is swappable in tests
	now func() time.Time
}

func NewService(store sheets.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		store:    store,
		loc:      loc,
		catCache: cache.NewLRUCache[[]string](1, cacheTTL),
		budCache: cache.NewLRUCache[[]core.Budget](1, cacheTTL),
	}
	s.now = func() time.Time { return time.Now().In(loc) }
	return s
}

// Location returns the bot's timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Categories returns the category list, cached for a few minutes so that
// every recorded expense does not cost an extra sheet read.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	if cats, ok := s.catCache.Get(categoriesKey); ok {
		return cats, nil
	}
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.catCache.Set(categoriesKey, cats)
	return cats, nil
}

func (s *Service) budgets(ctx context.Context) ([]core.Budget, error) {
	if budgets, ok := s.budCache.Get(budgetsKey); ok {
		return budgets, nil
	}
	budgets, err := s.store.Budgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	s.budCache.Set(budgetsKey, budgets)
	return budgets, nil
}

func (s *Service) checkCategory(ctx context.Context, category string) (string, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range cats {
		if strings.EqualFold(c, category) {
			return c, nil // canonical casing from the sheet
		}
	}
	return "", &UnknownCategoryError{Category: category, Known: cats}
}

// Record validates and stores one income/expense and adjusts the place
// balance. It returns the stored transaction and the place's new balance.
func (s *Service) Record(ctx context.Context, typ core.TransactionType, amountCents int64, category, place, note string) (core.Transaction, int64, error) {
	canonical, err := s.checkCategory(ctx, category)
	if err != nil {
		return core.Transaction{}, 0, err
	}
	t := core.Transaction{
		Time:     s.now(),
		Type:     typ,
		Amount:   core.Money{Cents: amountCents},
		Category: canonical,
		Place:    place,
		Note:     note,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, 0, err
	}
	ref, err := s.store.Append(ctx, t)
	if err != nil {
		return core.Transaction{}, 0, fmt.Errorf("append transaction: %w", err)
	}
	balance, err := s.store.AdjustBalance(ctx, place, t.Signed())
	if err != nil {
		return core.Transaction{}, 0, fmt.Errorf("adjust balance: %w", err)
	}
	slog.InfoContext(ctx, "Transaction recorded",
		"tx_type", string(typ),
		"amount_cents", amountCents,
		"category", canonical,
		"place", place,
		"sheets_ref", ref)
	return t, balance, nil
}

// Balances returns every place balance and the grand total.
func (s *Service) Balances(ctx context.Context) ([]core.PlaceBalance, int64, error) {
	balances, err := s.store.Balances(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list balances: %w", err)
	}
	var total int64
	for _, b := range balances {
		total += b.Cents
	}
	return balances, total, nil
}

// SetBalance overwrites one place balance.
func (s *Service) SetBalance(ctx context.Context, place string, cents int64) error {
	if strings.TrimSpace(place) == "" {
		return core.ErrEmptyPlace
	}
	if err := s.store.SetBalance(ctx, place, cents); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// Report builds the month's report from the full transaction history, writes
// it to the reports tab, and returns it.
func (s *Service) Report(ctx context.Context, month core.MonthKey) (core.MonthReport, error) {
	txs, err := s.store.ListAll(ctx)
	if err != nil {
		return core.MonthReport{}, fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := s.budgets(ctx)
	if err != nil {
		return core.MonthReport{}, err
	}
	report := core.BuildMonthReport(month, txs, budgets)
	report.GeneratedAt = s.now()
	if err := s.store.WriteReport(ctx, report); err != nil {
		return core.MonthReport{}, fmt.Errorf("write report: %w", err)
	}
	return report, nil
}

// CurrentMonth returns the month key for the bot's current local time.
func (s *Service) CurrentMonth() core.MonthKey {
	return core.MonthOf(s.now())
}

// SetBudget upserts a category's monthly limit.
func (s *Service) SetBudget(ctx context.Context, category string, limitCents int64) (core.Budget, error) {
	canonical, err := s.checkCategory(ctx, category)
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{Category: canonical, Limit: core.Money{Cents: limitCents}}
	if err := s.store.SetBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	s.budCache.Delete(budgetsKey)
	return b, nil
}

// BudgetStatus reports spent-vs-limit for every budgeted category in the
// current month.
func (s *Service) BudgetStatus(ctx context.Context) ([]core.CategorySpend, core.MonthKey, error) {
	month := s.CurrentMonth()
	txs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, month, fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := s.budgets(ctx)
	if err != nil {
		return nil, month, err
	}
	report := core.BuildMonthReport(month, txs, budgets)
	var out []core.CategorySpend
	for _, c := range report.ByCategory {
		if c.Limit.Cents > 0 {
			out = append(out, c)
		}
	}
	return out, month, nil
}

// Transfer moves money between two places and records it.
func (s *Service) Transfer(ctx context.Context, amountCents int64, from, to, note string) (core.Transfer, int64, int64, error) {
	tr := core.Transfer{
		Time:   s.now(),
		Amount: core.Money{Cents: amountCents},
		From:   from,
		To:     to,
		Note:   note,
	}
	if err := tr.Validate(); err != nil {
		return core.Transfer{}, 0, 0, err
	}
	if _, err := s.store.AppendTransfer(ctx, tr); err != nil {
		return core.Transfer{}, 0, 0, fmt.Errorf("append transfer: %w", err)
	}
	fromBal, err := s.store.AdjustBalance(ctx, from, -amountCents)
	if err != nil {
		return core.Transfer{}, 0, 0, fmt.Errorf("adjust source balance: %w", err)
	}
	toBal, err := s.store.AdjustBalance(ctx, to, amountCents)
	if err != nil {
		return core.Transfer{}, 0, 0, fmt.Errorf("adjust destination balance: %w", err)
	}
	return tr, fromBal, toBal, nil
}

// DeleteLast removes the newest transaction and reverts its balance effect.
// Returns nil when the history is empty.
func (s *Service) DeleteLast(ctx context.Context) (*core.Transaction, int64, error) {
	t, err := s.store.DeleteLast(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("delete last transaction: %w", err)
	}
	if t == nil {
		return nil, 0, nil
	}
	balance, err := s.store.AdjustBalance(ctx, t.Place, -t.Signed())
	if err != nil {
		return nil, 0, fmt.Errorf("revert balance: %w", err)
	}
	return t, balance, nil
}

// Reset deletes the transactions of the current day, ISO week, or month and
// reverts their balance effects. Returns the number of removed rows.
func (s *Service) Reset(ctx context.Context, window command.ResetWindow) (int, error) {
	since := s.windowStart(window)
	removed, err := s.store.DeleteSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("delete transactions since %s: %w", since.Format(time.RFC3339), err)
	}
	// Revert per place in one adjustment each
	deltas := map[string]int64{}
	for _, t := range removed {
		deltas[t.Place] -= t.Signed()
	}
	places := make([]string, 0, len(deltas))
	for place := range deltas {
		places = append(places, place)
	}
	sort.Strings(places)
	for _, place := range places {
		if deltas[place] == 0 {
			continue
		}
		if _, err := s.store.AdjustBalance(ctx, place, deltas[place]); err != nil {
			return len(removed), fmt.Errorf("revert balance for %s: %w", place, err)
		}
	}
	slog.InfoContext(ctx, "Reset removed transactions",
		"window", string(window),
		"since", since.Format(time.RFC3339),
		"row_count", len(removed))
	return len(removed), nil
}

func (s *Service) windowStart(window command.ResetWindow) time.Time {
	now := s.now()
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, s.loc)
	switch window {
	case command.ResetWeekly:
		// ISO week starts on Monday
		offset := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset)
	case command.ResetMonthly:
		return time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	default:
		return midnight
	}
}

// Refresh recomputes every place balance from the full transaction and
// transfer history, overwrites the balances tab, and drops the caches.
func (s *Service) Refresh(ctx context.Context) ([]core.PlaceBalance, error) {
	txs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	transfers, err := s.store.ListTransfers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	balances := core.RecomputeBalances(txs, transfers)
	if err := s.store.ReplaceBalances(ctx, balances); err != nil {
		return nil, fmt.Errorf("replace balances: %w", err)
	}
	s.catCache.Purge()
	s.budCache.Purge()
	slog.InfoContext(ctx, "Balances recomputed from history", "row_count", len(balances))
	return balances, nil
}

// Search returns transactions whose category, place, or note contains the
// keyword (case-insensitive), optionally restricted to one calendar day,
// newest first, capped at MaxSearchResults.
func (s *Service) Search(ctx context.Context, keyword string, date time.Time, hasDate bool) ([]core.Transaction, error) {
	txs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	needle := strings.ToLower(keyword)
	var matches []core.Transaction
	for _, t := range txs {
		if hasDate {
			y, m, d := t.Time.Date()
			if y != date.Year() || m != date.Month() || d != date.Day() {
				continue
			}
		}
		haystack := strings.ToLower(t.Category + " " + t.Place + " " + t.Note)
		if !strings.Contains(haystack, needle) {
			continue
		}
		matches = append(matches, t)
	}
	// Newest first
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Time.After(matches[j].Time)
	})
	if len(matches) > MaxSearchResults {
		matches = matches[:MaxSearchResults]
	}
	return matches, nil
}
