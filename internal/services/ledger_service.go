// Package services orchestrates storage writes with best-effort event
// publishing: the database is the source of truth, the broker only
// feeds the export pipeline.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// LedgerService fronts all user and transaction operations. Writes go
// to SQLite first; events are published after the fact and a publish
// failure never fails the request.
type LedgerService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.Repository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateOrGetUser upserts a user by normalized email. The boolean
// reports whether a new record was created.
func (s *LedgerService) CreateOrGetUser(ctx context.Context, name, email string) (core.User, bool, error) {
	return s.storage.CreateOrGetUser(ctx, name, email)
}

// GetUser returns a user by id.
func (s *LedgerService) GetUser(ctx context.Context, id int64) (core.User, error) {
	return s.storage.GetUser(ctx, id)
}

// DeleteUser removes the user and their transactions, then publishes
// the user.deleted event for the export pipeline.
func (s *LedgerService) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.storage.DeleteUserCascade(ctx, userID); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewUserDeleted(userID))
	return nil
}

// CreateTransaction saves the transaction and publishes its created
// event.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		// Validation errors pass through untouched so handlers surface
		// the clean message, not a wrapped one.
		if core.IsValidation(err) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, amqp.NewTransactionCreated(created.ID))
	return created, nil
}

// ListTransactions returns the user's transactions, date descending.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactionsByUser(ctx, userID)
}

// GetTransaction returns one transaction by id.
func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// DeleteTransaction removes a transaction and returns the deleted
// record, so callers can invalidate per-user caches.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.NewTransactionDeleted(t.ID, t.UserID))
	return t, nil
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event", "kind", event.Kind)
		return
	}
	if err := s.amqpClient.Publish(ctx, event); err != nil {
		// The write already succeeded; the periodic export sweep picks
		// up anything the broker missed.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"error", err,
			"kind", event.Kind,
			"transaction_id", event.TransactionID,
			"user_id", event.UserID)
	}
}

// Close closes the AMQP connection. The storage gateway is owned and
// closed by main.
func (s *LedgerService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("amqp: %w", err)
		}
	}
	return nil
}
