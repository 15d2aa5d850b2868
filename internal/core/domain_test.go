package core

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct{ in, want string }{
		{"A@X.com", "a@x.com"},
		{"  Mixed.Case@Example.COM  ", "mixed.case@example.com"},
		{"already@lower.org", "already@lower.org"},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateUser(t *testing.T) {
	if err := ValidateUser("Ana", "a@x.com"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := ValidateUser("", "a@x.com"); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := ValidateUser("Ana", "   "); err != ErrEmptyEmail {
		t.Fatalf("expected ErrEmptyEmail, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID:   1,
		Title:    "Coffee",
		Amount:   Money{Cents: 500},
		Category: "Food",
		Type:     Expense,
		Date:     time.Now(),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(tx *Transaction)
		want error
	}{
		{"empty title", func(tx *Transaction) { tx.Title = "  " }, ErrEmptyTitle},
		{"missing user", func(tx *Transaction) { tx.UserID = 0 }, ErrMissingUser},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{Cents: 0} }, ErrAmountTooLow},
		{"below one unit", func(tx *Transaction) { tx.Amount = Money{Cents: 99} }, ErrAmountTooLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mut(&tx)
			err := tx.Validate()
			if err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if !IsValidation(err) {
				t.Fatalf("%v should classify as validation error", err)
			}
		})
	}
}

func TestTxTypeValid(t *testing.T) {
	if !Income.Valid() || !Expense.Valid() {
		t.Fatal("income and expense must be valid types")
	}
	if TxType("transfer").Valid() || TxType("").Valid() {
		t.Fatal("unknown types must be invalid")
	}
}
