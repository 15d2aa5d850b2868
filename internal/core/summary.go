package core

// CategoryAmount is one bucket of the expense histogram.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary is the dashboard aggregate for one user's transactions.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money // income minus expense; may be negative
	ByCategory   []CategoryAmount
}

// Summarize computes totals and the per-category expense histogram in a
// single pass. Bucket order follows first encounter, so a list sorted
// date-descending yields buckets ordered by most recent spend.
func Summarize(txs []Transaction) Summary {
	var s Summary
	index := make(map[string]int)
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			s.TotalIncome.Cents += tx.Amount.Cents
		case Expense:
			s.TotalExpense.Cents += tx.Amount.Cents
			i, ok := index[tx.Category]
			if !ok {
				i = len(s.ByCategory)
				index[tx.Category] = i
				s.ByCategory = append(s.ByCategory, CategoryAmount{Name: tx.Category})
			}
			s.ByCategory[i].Amount.Cents += tx.Amount.Cents
		}
	}
	s.Balance.Cents = s.TotalIncome.Cents - s.TotalExpense.Cents
	return s
}
