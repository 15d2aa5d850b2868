package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	// TxType is the direction of a transaction: income or expense.
	TxType string

	// User is an account identified by a unique, lowercased email.
	User struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// Transaction is a single income or expense entry owned by a user.
	// The user reference is required but its existence is only enforced
	// when the user is deleted (cascade), never at write time.
	Transaction struct {
		ID       int64     `json:"id"`
		UserID   int64     `json:"user"`
		Title    string    `json:"title"`
		Amount   Money     `json:"amount"`
		Category string    `json:"category"`
		Type     TxType    `json:"type"`
		Date     time.Time `json:"date"`
	}
)

// ErrNotFound marks lookups and deletes that matched no record.
var ErrNotFound = errors.New("not found")

// ValidationError marks rejected input. Handlers map it to 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErr(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrEmptyName     = &ValidationError{msg: "name is required"}
	ErrEmptyEmail    = &ValidationError{msg: "email is required"}
	ErrEmptyTitle    = &ValidationError{msg: "title is required"}
	ErrEmptyCategory = &ValidationError{msg: "category is required"}
	ErrMissingUser   = &ValidationError{msg: "user is required"}
	ErrInvalidType   = &ValidationError{msg: `type must be "income" or "expense"`}
	ErrInvalidAmount = &ValidationError{msg: "invalid amount"}
	ErrAmountTooLow  = &ValidationError{msg: "amount must be at least 1"}
)

// Valid reports whether t is one of the two known transaction types.
func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// NormalizeEmail lowercases and trims an email for the unique-per-email
// invariant. All lookups and inserts go through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUser checks the fields required to create or look up a user.
func ValidateUser(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if NormalizeEmail(email) == "" {
		return ErrEmptyEmail
	}
	return nil
}

// Validate checks all transaction invariants. The amount bound is the
// unified one: at least one whole unit, enforced here for both the API
// and the storage layer.
func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.Title) == "" {
		return ErrEmptyTitle
	}
	if len(tx.Title) > 200 {
		return validationErr("title too long (max 200 characters)")
	}
	if tx.UserID <= 0 {
		return ErrMissingUser
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
