package claim

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type LineItemReader interface {
	ListByClaimID(ctx context.Context, claimID int64) ([]*Expense, error)
}

type TotalWriter interface {
	UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error
}

// ExpenseLedger keeps a claim's total equal to the sum of its expenses.
type ExpenseLedger struct {
	totals   TotalWriter
	expenses LineItemReader
}

func NewExpenseLedger(totals TotalWriter, expenses LineItemReader) *ExpenseLedger {
	return &ExpenseLedger{totals: totals, expenses: expenses}
}

func Sum(expenses []*Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Recompute sums the claim's current expenses, stores the result as the
// claim's total and returns it.
func (l *ExpenseLedger) Recompute(ctx context.Context, claimID int64) (decimal.Decimal, error) {
	expenses, err := l.expenses.ListByClaimID(ctx, claimID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list expenses of claim %d: %w", claimID, err)
	}

	total := Sum(expenses).Round(2)
	if err := l.totals.UpdateTotal(ctx, claimID, total); err != nil {
		return decimal.Zero, fmt.Errorf("store total of claim %d: %w", claimID, err)
	}
	return total, nil
}
