package core

import (
	"testing"
	"time"
)

func tx(typ TxType, category string, cents int64) Transaction {
	return Transaction{
		UserID:   1,
		Title:    "t",
		Amount:   Money{Cents: cents},
		Category: category,
		Type:     typ,
		Date:     time.Now(),
	}
}

func TestSummarizeTotals(t *testing.T) {
	s := Summarize([]Transaction{
		tx(Income, "Salary", 200000),
		tx(Expense, "Food", 1500),
		tx(Expense, "Rent", 80000),
		tx(Income, "Gift", 5000),
	})
	if s.TotalIncome.Cents != 205000 {
		t.Errorf("income = %d, want 205000", s.TotalIncome.Cents)
	}
	if s.TotalExpense.Cents != 81500 {
		t.Errorf("expense = %d, want 81500", s.TotalExpense.Cents)
	}
	if s.Balance.Cents != 123500 {
		t.Errorf("balance = %d, want 123500", s.Balance.Cents)
	}
}

func TestSummarizeSingleExpense(t *testing.T) {
	// POST Coffee 5 expense -> totalExpense=5, totalIncome=0, balance=-5
	s := Summarize([]Transaction{tx(Expense, "Food", 500)})
	if s.TotalIncome.Cents != 0 {
		t.Errorf("income = %d, want 0", s.TotalIncome.Cents)
	}
	if s.TotalExpense.Cents != 500 {
		t.Errorf("expense = %d, want 500", s.TotalExpense.Cents)
	}
	if s.Balance.Cents != -500 {
		t.Errorf("balance = %d, want -500", s.Balance.Cents)
	}
	if len(s.ByCategory) != 1 || s.ByCategory[0].Name != "Food" || s.ByCategory[0].Amount.Cents != 500 {
		t.Errorf("histogram = %+v, want single Food bucket of 500", s.ByCategory)
	}
}

func TestSummarizeCategoryOrder(t *testing.T) {
	// Buckets appear in first-encounter order; income never buckets.
	s := Summarize([]Transaction{
		tx(Expense, "Rent", 80000),
		tx(Expense, "Food", 1000),
		tx(Income, "Salary", 100000),
		tx(Expense, "Rent", 5000),
		tx(Expense, "Travel", 2000),
	})
	want := []CategoryAmount{
		{Name: "Rent", Amount: Money{Cents: 85000}},
		{Name: "Food", Amount: Money{Cents: 1000}},
		{Name: "Travel", Amount: Money{Cents: 2000}},
	}
	if len(s.ByCategory) != len(want) {
		t.Fatalf("bucket count = %d, want %d", len(s.ByCategory), len(want))
	}
	for i := range want {
		if s.ByCategory[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, s.ByCategory[i], want[i])
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalIncome.Cents != 0 || s.TotalExpense.Cents != 0 || s.Balance.Cents != 0 {
		t.Errorf("empty summary should be all zeros: %+v", s)
	}
	if len(s.ByCategory) != 0 {
		t.Errorf("empty summary should have no buckets: %+v", s.ByCategory)
	}
}
