package storage

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"kakeibo/internal/core"
)

// SyncQueue publishes journal row IDs for the sync worker.
type SyncQueue interface {
	PublishTransactionSync(ctx context.Context, id int64) error
}

// NotifyingRepository decorates the SQLite repository so every appended
// transaction also enters the sync queue. Publish failures are not fatal:
// the worker's periodic pending scan picks those rows up.
type NotifyingRepository struct {
	*SQLiteRepository
	queue SyncQueue
}

func WithSyncQueue(repo *SQLiteRepository, queue SyncQueue) *NotifyingRepository {
	return &NotifyingRepository{SQLiteRepository: repo, queue: queue}
}

func (n *NotifyingRepository) Append(ctx context.Context, t core.Transaction) (string, error) {
	ref, err := n.SQLiteRepository.Append(ctx, t)
	if err != nil {
		return "", err
	}
	if id, ok := parseRowRef(ref); ok {
		if perr := n.queue.PublishTransactionSync(ctx, id); perr != nil {
			slog.WarnContext(ctx, "Sync publish failed, row stays pending", "id", id, "error", perr)
		}
	}
	return ref, nil
}

func parseRowRef(ref string) (int64, bool) {
	raw, found := strings.CutPrefix(ref, "sqlite:")
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
