package sheets

import (
	"context"
	"time"

	"kakeibo/internal/core"
)

// Ports for outbound adapters. The Google Sheets client, the in-memory
// store, and the SQLite repository all satisfy these.
type (
	TransactionStore interface {
		// Append records one transaction and returns an adapter-specific
		// row reference.
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)

		// ListAll returns the full transaction history, oldest first.
		ListAll(ctx context.Context) ([]core.Transaction, error)

		// DeleteLast removes the newest transaction and returns it, or nil
		// when the history is empty.
		DeleteLast(ctx context.Context) (*core.Transaction, error)

		// DeleteSince removes every transaction recorded at or after the
		// given instant and returns the removed rows.
		DeleteSince(ctx context.Context, since time.Time) ([]core.Transaction, error)
	}

	BalanceStore interface {
		Balances(ctx context.Context) ([]core.PlaceBalance, error)

		// SetBalance overwrites one place balance, creating the row if the
		// place is new.
		SetBalance(ctx context.Context, place string, cents int64) error

		// AdjustBalance applies a signed delta and returns the new balance.
		// Unknown places start from zero.
		AdjustBalance(ctx context.Context, place string, delta int64) (int64, error)

		// ReplaceBalances rewrites the whole balances tab. Used by "refresh".
		ReplaceBalances(ctx context.Context, balances []core.PlaceBalance) error
	}

	TaxonomyReader interface {
		Categories(ctx context.Context) ([]string, error)
	}

	BudgetStore interface {
		Budgets(ctx context.Context) ([]core.Budget, error)
		SetBudget(ctx context.Context, b core.Budget) error
	}

	TransferStore interface {
		AppendTransfer(ctx context.Context, tr core.Transfer) (rowRef string, err error)
		ListTransfers(ctx context.Context) ([]core.Transfer, error)
	}

	ReportWriter interface {
		// WriteReport upserts the month's row in the reports tab.
		WriteReport(ctx context.Context, r core.MonthReport) error
	}

	// Store bundles every port for adapters that implement all of them.
	Store interface {
		TransactionStore
		BalanceStore
		TaxonomyReader
		BudgetStore
		TransferStore
		ReportWriter
	}
)
