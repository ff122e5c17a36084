// Package command parses the chat command grammar understood by the bot.
//
// Commands are single lines of whitespace-separated tokens, e.g.
// "e 500 food cash lunch with Amy". The verb is case-insensitive;
// categories, places, and notes keep the user's casing.
package command

import (
	"errors"
	"strings"
	"time"

	"kakeibo/internal/core"
)

type Kind string

const (
	KindRecord     Kind = "record" // expense or income
	KindBalance    Kind = "balance"
	KindSetBalance Kind = "setbalance"
	KindReport     Kind = "report"
	KindSetBudget  Kind = "setbudget"
	KindBudget     Kind = "budget"
	KindTransfer   Kind = "transfer"
	KindDeleteLast Kind = "deletelast"
	KindReset      Kind = "reset"
	KindRefresh    Kind = "refresh"
	KindSearch     Kind = "search"
	KindHelp       Kind = "help"
)

type ResetWindow string

const (
	ResetDaily   ResetWindow = "daily"
	ResetWeekly  ResetWindow = "weekly"
	ResetMonthly ResetWindow = "monthly"
)

// Command is the parsed form of one chat message. Only the fields relevant
// to Kind are populated.
type Command struct {
	Kind Kind

	// record
	TxType      core.TransactionType
	AmountCents int64 // record, setbudget, transfer (always positive)
	Category    string
	Place       string
	Note        string

	// setbalance (signed)
	BalanceCents int64

	// report
	Month    core.MonthKey
	HasMonth bool

	// transfer
	From string
	To   string

	// reset
	Window ResetWindow

	// search
	Keyword string
	Date    time.Time
	HasDate bool
}

// ErrUnknownCommand marks input whose verb is not part of the grammar.
// The bot answers those with the full help text.
var ErrUnknownCommand = errors.New("unknown command")

// UsageError marks a known verb with malformed arguments. Usage holds the
// one-line syntax reminder for the reply.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

func usage(s string) error {
	return &UsageError{Usage: s}
}

const (
	usageRecord     = "e|i|expense|income <amount> <category> <place> [note]"
	usageSetBalance = "setbalance <place> <amount>"
	usageReport     = "report [YYYY-MM]"
	usageSetBudget  = "setbudget <category> <amount>"
	usageTransfer   = "transfer <amount> <from> <to> [note]"
	usageDelete     = "delete last"
	usageReset      = "reset daily|weekly|monthly"
	usageSearch     = "search <keyword> [YYYY-MM-DD]"
)

// Parse tokenizes one chat message and returns the structured command.
func Parse(text string) (Command, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Command{}, ErrUnknownCommand
	}
	verb := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch verb {
	case "e", "expense":
		return parseRecord(core.Expense, args)
	case "i", "income":
		return parseRecord(core.Income, args)
	case "balance":
		return Command{Kind: KindBalance}, nil
	case "setbalance":
		return parseSetBalance(args)
	case "report":
		return parseReport(args)
	case "setbudget":
		return parseSetBudget(args)
	case "budget":
		return Command{Kind: KindBudget}, nil
	case "transfer":
		return parseTransfer(args)
	case "delete":
		if len(args) != 1 || !strings.EqualFold(args[0], "last") {
			return Command{}, usage(usageDelete)
		}
		return Command{Kind: KindDeleteLast}, nil
	case "reset":
		return parseReset(args)
	case "refresh":
		return Command{Kind: KindRefresh}, nil
	case "search":
		return parseSearch(args)
	case "help":
		return Command{Kind: KindHelp}, nil
	default:
		return Command{}, ErrUnknownCommand
	}
}

func parseRecord(typ core.TransactionType, args []string) (Command, error) {
	if len(args) < 3 {
		return Command{}, usage(usageRecord)
	}
	cents, err := core.ParseDecimalToCents(args[0])
	if err != nil {
		return Command{}, usage(usageRecord)
	}
	return Command{
		Kind:        KindRecord,
		TxType:      typ,
		AmountCents: cents,
		Category:    args[1],
		Place:       args[2],
		Note:        strings.Join(args[3:], " "),
	}, nil
}

func parseSetBalance(args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, usage(usageSetBalance)
	}
	cents, err := core.ParseSignedDecimalToCents(args[1])
	if err != nil {
		return Command{}, usage(usageSetBalance)
	}
	return Command{Kind: KindSetBalance, Place: args[0], BalanceCents: cents}, nil
}

func parseReport(args []string) (Command, error) {
	switch len(args) {
	case 0:
		return Command{Kind: KindReport}, nil
	case 1:
		month, err := core.ParseMonthKey(args[0])
		if err != nil {
			return Command{}, usage(usageReport)
		}
		return Command{Kind: KindReport, Month: month, HasMonth: true}, nil
	default:
		return Command{}, usage(usageReport)
	}
}

func parseSetBudget(args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, usage(usageSetBudget)
	}
	cents, err := core.ParseDecimalToCents(args[1])
	if err != nil {
		return Command{}, usage(usageSetBudget)
	}
	return Command{Kind: KindSetBudget, Category: args[0], AmountCents: cents}, nil
}

func parseTransfer(args []string) (Command, error) {
	if len(args) < 3 {
		return Command{}, usage(usageTransfer)
	}
	cents, err := core.ParseDecimalToCents(args[0])
	if err != nil {
		return Command{}, usage(usageTransfer)
	}
	return Command{
		Kind:        KindTransfer,
		AmountCents: cents,
		From:        args[1],
		To:          args[2],
		Note:        strings.Join(args[3:], " "),
	}, nil
}

func parseReset(args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, usage(usageReset)
	}
	switch ResetWindow(strings.ToLower(args[0])) {
	case ResetDaily, ResetWeekly, ResetMonthly:
		return Command{Kind: KindReset, Window: ResetWindow(strings.ToLower(args[0]))}, nil
	default:
		return Command{}, usage(usageReset)
	}
}

func parseSearch(args []string) (Command, error) {
	switch len(args) {
	case 1:
		return Command{Kind: KindSearch, Keyword: args[0]}, nil
	case 2:
		date, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			return Command{}, usage(usageSearch)
		}
		return Command{Kind: KindSearch, Keyword: args[0], Date: date, HasDate: true}, nil
	default:
		return Command{}, usage(usageSearch)
	}
}
