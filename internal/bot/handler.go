// Package bot turns webhook events into ledger operations and text replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"kakeibo/internal/cache"
	"kakeibo/internal/command"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
)

const (
	// Redeliveries can arrive well after the original attempt.
	dedupSize = 512
	dedupTTL  = time.Hour
)

// Handler answers the messaging webhook. Signature verification happens in
// ParseRequest; events from anyone but the configured owner are ignored.
type Handler struct {
	client *linebot.Client
	svc    *ledger.Service
	owner  string

	seen *cache.LRUCache[struct{}]

	// reply is swappable in tests
	reply func(ctx context.Context, replyToken, text string) error
}

func New(client *linebot.Client, svc *ledger.Service, ownerID string) *Handler {
	h := &Handler{
		client: client,
		svc:    svc,
		owner:  ownerID,
		seen:   cache.NewLRUCache[struct{}](dedupSize, dedupTTL),
	}
	h.reply = func(ctx context.Context, replyToken, text string) error {
		_, err := client.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do()
		return err
	}
	return h
}

// ServeHTTP handles POST /callback. A failed signature check is a 400; the
// platform retries on anything but 2xx, so per-event failures are logged and
// still answered with 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	events, err := h.client.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			slog.WarnContext(r.Context(), "Webhook signature check failed")
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		slog.WarnContext(r.Context(), "Webhook request unparseable", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	for _, event := range events {
		h.handleEvent(r.Context(), event)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleEvent(ctx context.Context, event *linebot.Event) {
	if event.Type != linebot.EventTypeMessage {
		return
	}
	msg, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}
	userID := ""
	if event.Source != nil {
		userID = event.Source.UserID
	}
	if h.owner != "" && userID != h.owner {
		slog.InfoContext(ctx, "Ignoring message from non-owner",
			log.FieldComponent, log.ComponentBot, log.FieldUserID, userID)
		return
	}
	if h.alreadySeen(event) {
		slog.InfoContext(ctx, "Skipping redelivered event",
			log.FieldComponent, log.ComponentBot, log.FieldEventID, event.WebhookEventID)
		return
	}

	text := h.Execute(ctx, msg.Text)
	if err := h.reply(ctx, event.ReplyToken, text); err != nil {
		slog.ErrorContext(ctx, "Reply failed",
			log.FieldComponent, log.ComponentBot,
			log.FieldEventID, event.WebhookEventID,
			log.FieldError, err)
	}
}

// alreadySeen records the event ID and reports whether a redelivery of it was
// handled before.
func (h *Handler) alreadySeen(event *linebot.Event) bool {
	id := event.WebhookEventID
	if id == "" {
		return false
	}
	_, seen := h.seen.Get(id)
	h.seen.Set(id, struct{}{})
	return seen && event.DeliveryContext.IsRedelivery
}

// Execute parses one chat message, runs it against the ledger, and returns
// the reply text.
func (h *Handler) Execute(ctx context.Context, text string) string {
	cmd, err := command.Parse(text)
	if err != nil {
		var ue *command.UsageError
		if errors.As(err, &ue) {
			return ue.Error()
		}
		return helpText
	}
	reply, err := h.dispatch(ctx, cmd)
	if err != nil {
		var uce *ledger.UnknownCategoryError
		if errors.As(err, &uce) {
			return formatUnknownCategory(uce.Category, uce.Known)
		}
		slog.ErrorContext(ctx, "Command failed",
			log.FieldComponent, log.ComponentBot,
			log.FieldCommand, string(cmd.Kind),
			log.FieldError, err)
		return fmt.Sprintf("Something went wrong: %v", err)
	}
	return reply
}

func (h *Handler) dispatch(ctx context.Context, cmd command.Command) (string, error) {
	switch cmd.Kind {
	case command.KindRecord:
		t, balance, err := h.svc.Record(ctx, cmd.TxType, cmd.AmountCents, cmd.Category, cmd.Place, cmd.Note)
		if err != nil {
			return "", err
		}
		return formatRecorded(t, balance), nil

	case command.KindBalance:
		balances, total, err := h.svc.Balances(ctx)
		if err != nil {
			return "", err
		}
		return formatBalances(balances, total), nil

	case command.KindSetBalance:
		if err := h.svc.SetBalance(ctx, cmd.Place, cmd.BalanceCents); err != nil {
			return "", err
		}
		return formatSetBalance(cmd.Place, cmd.BalanceCents), nil

	case command.KindReport:
		month := cmd.Month
		if !cmd.HasMonth {
			month = h.svc.CurrentMonth()
		}
		report, err := h.svc.Report(ctx, month)
		if err != nil {
			return "", err
		}
		return formatReport(report), nil

	case command.KindSetBudget:
		b, err := h.svc.SetBudget(ctx, cmd.Category, cmd.AmountCents)
		if err != nil {
			return "", err
		}
		return formatSetBudget(b), nil

	case command.KindBudget:
		status, month, err := h.svc.BudgetStatus(ctx)
		if err != nil {
			return "", err
		}
		return formatBudgetStatus(status, month), nil

	case command.KindTransfer:
		t, fromBal, toBal, err := h.svc.Transfer(ctx, cmd.AmountCents, cmd.From, cmd.To, cmd.Note)
		if err != nil {
			return "", err
		}
		return formatTransfer(t, fromBal, toBal), nil

	case command.KindDeleteLast:
		t, balance, err := h.svc.DeleteLast(ctx)
		if err != nil {
			return "", err
		}
		return formatDeleted(t, balance), nil

	case command.KindReset:
		removed, err := h.svc.Reset(ctx, cmd.Window)
		if err != nil {
			return "", err
		}
		return formatReset(string(cmd.Window), removed), nil

	case command.KindRefresh:
		balances, err := h.svc.Refresh(ctx)
		if err != nil {
			return "", err
		}
		return formatRefreshed(balances), nil

	case command.KindSearch:
		txs, err := h.svc.Search(ctx, cmd.Keyword, cmd.Date, cmd.HasDate)
		if err != nil {
			return "", err
		}
		return formatSearchResults(cmd.Keyword, txs), nil

	default:
		return helpText, nil
	}
}
