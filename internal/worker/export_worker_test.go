package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type fakeSheet struct {
	appended    []int64
	removedTx   []int64
	removedUser []int64
	appendErr   error
}

func (f *fakeSheet) Append(_ context.Context, t core.Transaction) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appended = append(f.appended, t.ID)
	return "Ledger!A2:G2", nil
}

func (f *fakeSheet) RemoveTransactionRow(_ context.Context, id int64) error {
	f.removedTx = append(f.removedTx, id)
	return nil
}

func (f *fakeSheet) RemoveUserRows(_ context.Context, userID int64) error {
	f.removedUser = append(f.removedUser, userID)
	return nil
}

func testRepo(t *testing.T) *storage.Repository {
	t.Helper()
	gw := storage.NewGateway(filepath.Join(t.TempDir(), "bilancio.db"))
	t.Cleanup(func() { gw.Close() })
	return storage.NewRepository(gw)
}

func seedTransaction(t *testing.T, repo *storage.Repository) core.Transaction {
	t.Helper()
	created, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:   1,
		Title:    "Coffee",
		Amount:   core.Money{Cents: 500},
		Category: "Food",
		Type:     core.Expense,
		Date:     time.Now(),
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return created
}

func TestHandleEventCreated(t *testing.T) {
	repo := testRepo(t)
	sheet := &fakeSheet{}
	w := NewExportWorker(repo, sheet, sheet, 10)
	ctx := context.Background()

	tx := seedTransaction(t, repo)
	if err := w.HandleEvent(ctx, amqp.NewTransactionCreated(tx.ID)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sheet.appended) != 1 || sheet.appended[0] != tx.ID {
		t.Fatalf("appended = %v, want [%d]", sheet.appended, tx.ID)
	}

	pending, err := repo.ListUnexported(ctx, 10)
	if err != nil {
		t.Fatalf("list unexported: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("transaction still pending after export: %+v", pending)
	}
}

func TestHandleEventCreatedMissingRecord(t *testing.T) {
	repo := testRepo(t)
	sheet := &fakeSheet{}
	w := NewExportWorker(repo, sheet, sheet, 10)

	// Record deleted before the event arrived: drop, don't requeue.
	if err := w.HandleEvent(context.Background(), amqp.NewTransactionCreated(999)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sheet.appended) != 0 {
		t.Fatalf("nothing should be appended, got %v", sheet.appended)
	}
}

func TestHandleEventAppendFailureRequeues(t *testing.T) {
	repo := testRepo(t)
	sheet := &fakeSheet{appendErr: errors.New("quota exceeded")}
	w := NewExportWorker(repo, sheet, sheet, 10)
	ctx := context.Background()

	tx := seedTransaction(t, repo)
	if err := w.HandleEvent(ctx, amqp.NewTransactionCreated(tx.ID)); err == nil {
		t.Fatal("append failure must surface so the message is requeued")
	}

	pending, err := repo.ListUnexported(ctx, 10)
	if err != nil {
		t.Fatalf("list unexported: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed export must stay pending, got %d", len(pending))
	}
}

func TestHandleEventDeleted(t *testing.T) {
	sheet := &fakeSheet{}
	w := NewExportWorker(testRepo(t), sheet, sheet, 10)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewTransactionDeleted(42, 7)); err != nil {
		t.Fatalf("handle delete: %v", err)
	}
	if len(sheet.removedTx) != 1 || sheet.removedTx[0] != 42 {
		t.Fatalf("removedTx = %v, want [42]", sheet.removedTx)
	}

	if err := w.HandleEvent(ctx, amqp.NewUserDeleted(7)); err != nil {
		t.Fatalf("handle user delete: %v", err)
	}
	if len(sheet.removedUser) != 1 || sheet.removedUser[0] != 7 {
		t.Fatalf("removedUser = %v, want [7]", sheet.removedUser)
	}
}

func TestHandleEventUnknownKind(t *testing.T) {
	w := NewExportWorker(testRepo(t), &fakeSheet{}, nil, 10)
	if err := w.HandleEvent(context.Background(), &amqp.LedgerEvent{Kind: "transaction.updated"}); err != nil {
		t.Fatalf("unknown kind must be dropped, got %v", err)
	}
}

func TestProcessPending(t *testing.T) {
	repo := testRepo(t)
	sheet := &fakeSheet{}
	w := NewExportWorker(repo, sheet, sheet, 10)
	ctx := context.Background()

	a := seedTransaction(t, repo)
	b := seedTransaction(t, repo)

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(sheet.appended) != 2 || sheet.appended[0] != a.ID || sheet.appended[1] != b.ID {
		t.Fatalf("appended = %v, want [%d %d] oldest first", sheet.appended, a.ID, b.ID)
	}

	// Second sweep finds nothing.
	sheet.appended = nil
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(sheet.appended) != 0 {
		t.Fatalf("second sweep appended %v", sheet.appended)
	}
}
