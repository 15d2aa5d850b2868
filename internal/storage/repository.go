// Package storage implements the SQLite persistence layer: a gateway
// owning the connection handle and a repository with the user and
// transaction operations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bilancio/internal/core"
)

// timeLayout is a fixed-width UTC format so that lexicographic order of
// stored values matches chronological order (ORDER BY date relies on it).
const timeLayout = "2006-01-02 15:04:05.000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

// Repository provides user and transaction persistence on top of an
// injected Gateway.
type Repository struct {
	gw *Gateway
}

func NewRepository(gw *Gateway) *Repository {
	return &Repository{gw: gw}
}

// CreateOrGetUser looks a user up by normalized email and creates one
// when absent. The second return value reports whether a new record was
// created; an existing record is returned unchanged, whatever name was
// passed in.
func (r *Repository) CreateOrGetUser(ctx context.Context, name, email string) (core.User, bool, error) {
	if err := core.ValidateUser(name, email); err != nil {
		return core.User{}, false, err
	}
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return core.User{}, false, err
	}

	normalized := core.NormalizeEmail(email)

	u, err := r.getUserByEmail(ctx, db, normalized)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, false, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(name), normalized, formatTime(now), formatTime(now))
	if err != nil {
		// Lost a race with a concurrent upsert for the same email; the
		// unique index guarantees the winner's record is the one to return.
		if strings.Contains(err.Error(), "UNIQUE") {
			u, gerr := r.getUserByEmail(ctx, db, normalized)
			if gerr != nil {
				return core.User{}, false, gerr
			}
			return u, false, nil
		}
		return core.User{}, false, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, false, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "email", normalized)
	return core.User{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Email:     normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

func (r *Repository) getUserByEmail(ctx context.Context, db *sql.DB, email string) (core.User, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUser returns a user by id or core.ErrNotFound.
func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return core.User{}, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.User{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return u, nil
}

// DeleteUserCascade removes the user and all transactions referencing
// it in one SQL transaction, so a crash cannot leave orphans behind.
// Returns core.ErrNotFound when no user matched.
func (r *Repository) DeleteUserCascade(ctx context.Context, userID int64) error {
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cascade delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user transactions: %w", err)
	}
	removed, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cascade delete: %w", err)
	}

	slog.InfoContext(ctx, "User deleted with transactions", "user_id", userID, "transactions_removed", removed)
	return nil
}

// CreateTransaction validates and inserts a transaction, defaulting the
// date to now when unset, and returns the record with its assigned id.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Date.IsZero() {
		t.Date = time.Now().UTC().Truncate(time.Millisecond)
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return core.Transaction{}, err
	}

	t.Title = strings.TrimSpace(t.Title)
	t.Category = strings.TrimSpace(t.Category)

	res, err := db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, title, amount_cents, category, type, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Title, t.Amount.Cents, t.Category, string(t.Type), formatTime(t.Date))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"user_id", t.UserID,
		"tx_type", string(t.Type),
		"amount_cents", t.Amount.Cents)
	return t, nil
}

// ListTransactionsByUser returns the user's transactions ordered by
// date descending (id descending as tiebreaker for same-instant rows).
// The result is an empty slice, never nil, when nothing matches.
func (r *Repository) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, title, amount_cents, category, type, date
		 FROM transactions WHERE user_id = ?
		 ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// GetTransaction returns a single transaction or core.ErrNotFound.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return core.Transaction{}, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, title, amount_cents, category, type, date
		 FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
		}
		return core.Transaction{}, core.ErrNotFound
	}
	return scanTransaction(rows)
}

// DeleteTransaction removes a transaction by id. Returns
// core.ErrNotFound when no row matched.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// ListUnexported returns transactions not yet pushed to the ledger
// spreadsheet, oldest first, capped at limit.
func (r *Repository) ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error) {
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, title, amount_cents, category, type, date
		 FROM transactions WHERE exported_at IS NULL
		 ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported: %w", err)
	}
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unexported: %w", err)
	}
	return txs, nil
}

// MarkExported stamps a transaction as pushed to the spreadsheet.
func (r *Repository) MarkExported(ctx context.Context, id int64) error {
	db, err := r.gw.Connect(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE transactions SET exported_at = ? WHERE id = ?`,
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, date string
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Amount.Cents, &t.Category, &typ, &date); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TxType(typ)
	var err error
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	return t, nil
}
