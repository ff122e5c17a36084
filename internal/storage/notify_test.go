package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kakeibo/internal/core"
)

type recordingQueue struct {
	ids []int64
	err error
}

func (q *recordingQueue) PublishTransactionSync(_ context.Context, id int64) error {
	q.ids = append(q.ids, id)
	return q.err
}

func TestNotifyingRepositoryPublishes(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	queue := &recordingQueue{}
	store := WithSyncQueue(repo, queue)

	ref, err := store.Append(context.Background(), core.Transaction{
		Time:     time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		Type:     core.Expense,
		Amount:   core.Money{Cents: 100},
		Category: "food",
		Place:    "cash",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	id, ok := parseRowRef(ref)
	if !ok {
		t.Fatalf("unparseable row ref %q", ref)
	}
	if len(queue.ids) != 1 || queue.ids[0] != id {
		t.Fatalf("published ids = %+v, want [%d]", queue.ids, id)
	}
}

func TestNotifyingRepositoryPublishFailureIsNotFatal(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	store := WithSyncQueue(repo, &recordingQueue{err: errors.New("broker down")})

	if _, err := store.Append(context.Background(), core.Transaction{
		Time:     time.Now(),
		Type:     core.Expense,
		Amount:   core.Money{Cents: 100},
		Category: "food",
		Place:    "cash",
	}); err != nil {
		t.Fatalf("publish failure must not fail the append: %v", err)
	}
	// Row remains pending for the periodic scan
	pending, err := repo.GetPendingSyncTransactions(context.Background(), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
}

func TestParseRowRef(t *testing.T) {
	if id, ok := parseRowRef("sqlite:42"); !ok || id != 42 {
		t.Errorf("parseRowRef(sqlite:42) = %d, %v", id, ok)
	}
	for _, ref := range []string{"", "mem:1", "sqlite:", "sqlite:abc"} {
		if _, ok := parseRowRef(ref); ok {
			t.Errorf("parseRowRef(%q) should fail", ref)
		}
	}
}
