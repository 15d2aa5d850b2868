package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// The broker is optional: every test runs with a nil AMQP client to
// confirm storage writes succeed without it.
func testService(t *testing.T) *LedgerService {
	t.Helper()
	gw := storage.NewGateway(filepath.Join(t.TempDir(), "bilancio.db"))
	t.Cleanup(func() { gw.Close() })
	return NewLedgerService(storage.NewRepository(gw), nil)
}

func TestCreateTransactionWithoutBroker(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, core.Transaction{
		UserID:   1,
		Title:    "Coffee",
		Amount:   core.Money{Cents: 500},
		Category: "Food",
		Type:     core.Expense,
		Date:     time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created transaction must have an id")
	}
}

func TestCreateTransactionValidationErrorUnwrapped(t *testing.T) {
	svc := testService(t)

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		UserID:   1,
		Title:    "Free",
		Amount:   core.Money{Cents: 0},
		Category: "Misc",
		Type:     core.Expense,
		Date:     time.Now(),
	})
	if !errors.Is(err, core.ErrAmountTooLow) {
		t.Fatalf("got %v, want ErrAmountTooLow", err)
	}
	// The message reaches API clients verbatim, so no wrapping prefix.
	if err.Error() != "amount must be at least 1" {
		t.Fatalf("error text = %q, want the bare validation message", err.Error())
	}
}

func TestDeleteTransactionReturnsRecord(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, core.Transaction{
		UserID:   3,
		Title:    "Salary",
		Amount:   core.Money{Cents: 100000},
		Category: "Work",
		Type:     core.Income,
		Date:     time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.DeleteTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.UserID != 3 || deleted.Title != "Salary" {
		t.Fatalf("deleted = %+v, want the stored record back", deleted)
	}

	if _, err := svc.GetTransaction(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
	if _, err := svc.DeleteTransaction(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteUserRemovesTransactions(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	u, created, err := svc.CreateOrGetUser(ctx, "Ana", "a@x.com")
	if err != nil || !created {
		t.Fatalf("create user: %v (created=%v)", err, created)
	}
	if _, err := svc.CreateTransaction(ctx, core.Transaction{
		UserID:   u.ID,
		Title:    "Rent",
		Amount:   core.Money{Cents: 90000},
		Category: "Housing",
		Type:     core.Expense,
		Date:     time.Now(),
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if err := svc.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	txs, err := svc.ListTransactions(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("cascade left %d transactions", len(txs))
	}
	if err := svc.DeleteUser(ctx, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestCloseWithoutBroker(t *testing.T) {
	if err := testService(t).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
