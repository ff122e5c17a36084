// Package google is the Google Sheets adapter. Every tab mutation follows
// the same shape: read the current values, compute the new rows, then clear
// and rewrite the range in place.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Tabs holds the worksheet names inside the spreadsheet.
type Tabs struct {
	Transactions string
	Balances     string
	Categories   string
	Budgets      string
	Transfers    string
	Reports      string
}

// DefaultTabs returns the tab names the bot creates its spreadsheet with.
func DefaultTabs() Tabs {
	return Tabs{
		Transactions: "Transactions",
		Balances:     "Balances",
		Categories:   "Categories",
		Budgets:      "Budgets",
		Transfers:    "Transfers",
		Reports:      "Reports",
	}
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          Tabs
	loc           *time.Location
}

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials
// (GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS). Tab names are overridable via
// SHEET_TRANSACTIONS, SHEET_BALANCES, SHEET_CATEGORIES, SHEET_BUDGETS,
// SHEET_TRANSFERS, SHEET_REPORTS.
func NewFromEnv(ctx context.Context, loc *time.Location) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	tabs := DefaultTabs()
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&tabs.Transactions, "SHEET_TRANSACTIONS")
	override(&tabs.Balances, "SHEET_BALANCES")
	override(&tabs.Categories, "SHEET_CATEGORIES")
	override(&tabs.Budgets, "SHEET_BUDGETS")
	override(&tabs.Transfers, "SHEET_TRANSFERS")
	override(&tabs.Reports, "SHEET_REPORTS")

	if loc == nil {
		loc = time.UTC
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          tabs,
		loc:           loc,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// ---- Transactions ----

func (c *Client) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	rng := fmt.Sprintf("%s!A2:F", c.tabs.Transactions)
	return c.appendValues(ctx, rng, [][]any{encodeTransaction(t)})
}

func (c *Client) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rng := fmt.Sprintf("%s!A2:F", c.tabs.Transactions)
	values, err := c.getValues(ctx, rng)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, row := range values {
		if t, ok := decodeTransaction(row, c.loc); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Client) DeleteLast(ctx context.Context) (*core.Transaction, error) {
	txs, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	last := txs[len(txs)-1]
	if err := c.rewriteTransactions(ctx, txs[:len(txs)-1]); err != nil {
		return nil, err
	}
	return &last, nil
}

func (c *Client) DeleteSince(ctx context.Context, since time.Time) ([]core.Transaction, error) {
	txs, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var kept, removed []core.Transaction
	for _, t := range txs {
		if t.Time.Before(since) {
			kept = append(kept, t)
		} else {
			removed = append(removed, t)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := c.rewriteTransactions(ctx, kept); err != nil {
		return nil, err
	}
	return removed, nil
}

// rewriteTransactions clears the data range and writes the remaining rows
// back. A crash between the clear and the update loses the tail rows; the
// transaction history can be restored from the sqlite journal when that
// backend is enabled.
func (c *Client) rewriteTransactions(ctx context.Context, txs []core.Transaction) error {
	rng := fmt.Sprintf("%s!A2:F", c.tabs.Transactions)
	if err := c.clearValues(ctx, rng); err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, encodeTransaction(t))
	}
	return c.updateValues(ctx, fmt.Sprintf("%s!A2", c.tabs.Transactions), rows)
}

// ---- Balances ----

func (c *Client) Balances(ctx context.Context) ([]core.PlaceBalance, error) {
	rng := fmt.Sprintf("%s!A2:B", c.tabs.Balances)
	values, err := c.getValues(ctx, rng)
	if err != nil {
		return nil, err
	}
	var out []core.PlaceBalance
	for _, row := range values {
		if b, ok := decodeBalance(row); ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *Client) SetBalance(ctx context.Context, place string, cents int64) error {
	row, err := c.findRow(ctx, c.tabs.Balances, place)
	if err != nil {
		return err
	}
	values := [][]any{{place, core.FormatCents(cents)}}
	if row == 0 {
		_, err = c.appendValues(ctx, fmt.Sprintf("%s!A2:B", c.tabs.Balances), values)
		return err
	}
	return c.updateValues(ctx, fmt.Sprintf("%s!A%d:B%d", c.tabs.Balances, row, row), values)
}

func (c *Client) AdjustBalance(ctx context.Context, place string, delta int64) (int64, error) {
	balances, err := c.Balances(ctx)
	if err != nil {
		return 0, err
	}
	current := int64(0)
	for _, b := range balances {
		if strings.EqualFold(b.Place, place) {
			current = b.Cents
			place = b.Place // keep the sheet's casing
			break
		}
	}
	next := current + delta
	if err := c.SetBalance(ctx, place, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (c *Client) ReplaceBalances(ctx context.Context, balances []core.PlaceBalance) error {
	rng := fmt.Sprintf("%s!A2:B", c.tabs.Balances)
	if err := c.clearValues(ctx, rng); err != nil {
		return err
	}
	if len(balances) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, []any{b.Place, core.FormatCents(b.Cents)})
	}
	return c.updateValues(ctx, fmt.Sprintf("%s!A2", c.tabs.Balances), rows)
}

// ---- Categories ----

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	values, err := c.getValues(ctx, fmt.Sprintf("%s!A2:A", c.tabs.Categories))
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	var out []string
	seen := map[string]struct{}{}
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// ---- Budgets ----

func (c *Client) Budgets(ctx context.Context) ([]core.Budget, error) {
	values, err := c.getValues(ctx, fmt.Sprintf("%s!A2:B", c.tabs.Budgets))
	if err != nil {
		return nil, err
	}
	var out []core.Budget
	for _, row := range values {
		if b, ok := decodeBudget(row); ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *Client) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	row, err := c.findRow(ctx, c.tabs.Budgets, b.Category)
	if err != nil {
		return err
	}
	values := [][]any{{b.Category, core.FormatCents(b.Limit.Cents)}}
	if row == 0 {
		_, err = c.appendValues(ctx, fmt.Sprintf("%s!A2:B", c.tabs.Budgets), values)
		return err
	}
	return c.updateValues(ctx, fmt.Sprintf("%s!A%d:B%d", c.tabs.Budgets, row, row), values)
}

// ---- Transfers ----

func (c *Client) AppendTransfer(ctx context.Context, tr core.Transfer) (string, error) {
	if err := tr.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	rng := fmt.Sprintf("%s!A2:E", c.tabs.Transfers)
	return c.appendValues(ctx, rng, [][]any{encodeTransfer(tr)})
}

func (c *Client) ListTransfers(ctx context.Context) ([]core.Transfer, error) {
	values, err := c.getValues(ctx, fmt.Sprintf("%s!A2:E", c.tabs.Transfers))
	if err != nil {
		return nil, err
	}
	var out []core.Transfer
	for _, row := range values {
		if tr, ok := decodeTransfer(row, c.loc); ok {
			out = append(out, tr)
		}
	}
	return out, nil
}

// ---- Reports ----

func (c *Client) WriteReport(ctx context.Context, r core.MonthReport) error {
	row, err := c.findRow(ctx, c.tabs.Reports, r.Month.String())
	if err != nil {
		return err
	}
	values := [][]any{encodeReport(r)}
	if row == 0 {
		_, err = c.appendValues(ctx, fmt.Sprintf("%s!A2:E", c.tabs.Reports), values)
		return err
	}
	return c.updateValues(ctx, fmt.Sprintf("%s!A%d:E%d", c.tabs.Reports, row, row), values)
}

// findRow scans column A of a tab for a case-insensitive key match and
// returns its 1-based sheet row, or 0 when absent.
func (c *Client) findRow(ctx context.Context, tab, key string) (int, error) {
	values, err := c.getValues(ctx, fmt.Sprintf("%s!A2:A", tab))
	if err != nil {
		return 0, err
	}
	key = strings.TrimSpace(key)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(fmt.Sprint(row[0])), key) {
			return i + 2, nil
		}
	}
	return 0, nil
}
