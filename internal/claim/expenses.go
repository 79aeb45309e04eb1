package claim

import (
	"context"
	"errors"

	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// AddExpense attaches a line item to an Initiated claim and refreshes its total.
func (s *Service) AddExpense(ctx context.Context, claimID int64, dto ExpenseDTO, actor Actor) (*Expense, error) {
	if err := s.validateExpense(ctx, &dto.ExpenseTypeID, &dto.ExpenseDate, &dto.Amount, dto); err != nil {
		return nil, err
	}

	var created *Expense
	err := s.repo.WithinTransaction(ctx, func(tx Repository) error {
		c, err := s.loadMutable(ctx, tx, claimID, actor)
		if err != nil {
			return err
		}

		expense := NewExpense(c.ID, dto)
		now := s.now()
		expense.CreatedAt = now
		expense.UpdatedAt = now
		if err := tx.Expenses().Create(ctx, expense); err != nil {
			return internal.NewInternalError("failed to create expense", err)
		}
		if _, err := NewExpenseLedger(tx.Claims(), tx.Expenses()).Recompute(ctx, c.ID); err != nil {
			return internal.NewInternalError("failed to recompute claim total", err)
		}

		created = expense
		return nil
	})
	if err != nil {
		s.logger.Warn("add expense failed", "claim_id", claimID, "actor_id", actor.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("expense added",
		"claim_id", claimID,
		"expense_id", created.ID,
		"amount", created.Amount.StringFixed(2))
	return created, nil
}

func (s *Service) UpdateExpense(ctx context.Context, claimID, expenseID int64, dto UpdateExpenseDTO, actor Actor) (*Expense, error) {
	if err := s.validateExpense(ctx, dto.ExpenseTypeID, dto.ExpenseDate, dto.Amount, dto); err != nil {
		return nil, err
	}

	var updated *Expense
	err := s.repo.WithinTransaction(ctx, func(tx Repository) error {
		if _, err := s.loadMutable(ctx, tx, claimID, actor); err != nil {
			return err
		}

		expense, err := tx.Expenses().GetByID(ctx, claimID, expenseID)
		if errors.Is(err, ErrExpenseNotFound) {
			return internal.NewNotFoundError("Expense not found", internal.ErrCodeExpenseNotFound)
		}
		if err != nil {
			return internal.NewInternalError("failed to load expense", err)
		}

		if dto.ExpenseTypeID != nil {
			expense.ExpenseTypeID = *dto.ExpenseTypeID
		}
		if dto.ExpenseDate != nil {
			expense.ExpenseDate = dto.ExpenseDate.Time
		}
		if dto.Amount != nil {
			expense.Amount = *dto.Amount
		}
		if dto.Note != nil {
			expense.Note = dto.Note
		}
		expense.UpdatedAt = s.now()

		if err := tx.Expenses().Update(ctx, expense); err != nil {
			if errors.Is(err, ErrExpenseNotFound) {
				return internal.NewNotFoundError("Expense not found", internal.ErrCodeExpenseNotFound)
			}
			return internal.NewInternalError("failed to update expense", err)
		}
		if _, err := NewExpenseLedger(tx.Claims(), tx.Expenses()).Recompute(ctx, claimID); err != nil {
			return internal.NewInternalError("failed to recompute claim total", err)
		}

		updated = expense
		return nil
	})
	if err != nil {
		s.logger.Warn("update expense failed", "claim_id", claimID, "expense_id", expenseID, "error", err)
		return nil, err
	}

	s.logger.Info("expense updated", "claim_id", claimID, "expense_id", expenseID)
	return updated, nil
}

func (s *Service) DeleteExpense(ctx context.Context, claimID, expenseID int64, actor Actor) error {
	err := s.repo.WithinTransaction(ctx, func(tx Repository) error {
		if _, err := s.loadMutable(ctx, tx, claimID, actor); err != nil {
			return err
		}

		err := tx.Expenses().Delete(ctx, claimID, expenseID)
		if errors.Is(err, ErrExpenseNotFound) {
			return internal.NewNotFoundError("Expense not found", internal.ErrCodeExpenseNotFound)
		}
		if err != nil {
			return internal.NewInternalError("failed to delete expense", err)
		}

		if _, err := NewExpenseLedger(tx.Claims(), tx.Expenses()).Recompute(ctx, claimID); err != nil {
			return internal.NewInternalError("failed to recompute claim total", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("delete expense failed", "claim_id", claimID, "expense_id", expenseID, "error", err)
		return err
	}

	s.logger.Info("expense deleted", "claim_id", claimID, "expense_id", expenseID)
	return nil
}

func (s *Service) ListExpenses(ctx context.Context, claimID int64, actor Actor) ([]*Expense, error) {
	if _, err := s.loadAccessible(ctx, s.repo, claimID, actor); err != nil {
		return nil, err
	}

	expenses, err := s.repo.Expenses().ListByClaimID(ctx, claimID)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "claim_id", claimID)
		return nil, internal.NewInternalError("failed to list expenses", err)
	}
	return expenses, nil
}

// loadMutable loads a claim the actor may see and passes it through the gate.
func (s *Service) loadMutable(ctx context.Context, repo Repository, claimID int64, actor Actor) (*Claim, error) {
	c, err := s.loadAccessible(ctx, repo, claimID, actor)
	if err != nil {
		return nil, err
	}
	if err := EnsureMutable(c); err != nil {
		return nil, err
	}
	return c, nil
}

// validateExpense checks the fields that are present. Nil pointers mean the
// field is not being changed.
func (s *Service) validateExpense(ctx context.Context, expenseTypeID *int64, date *Date, amount *decimal.Decimal, dto interface{}) error {
	if err := validation.ValidateStruct(dto); err != nil {
		return err
	}

	if date != nil {
		if err := validation.ValidateExpenseDate(date.Time, s.now()); err != nil {
			return err
		}
	}
	if amount != nil {
		if err := validation.ValidateExpenseAmount(*amount); err != nil {
			return err
		}
	}

	if expenseTypeID != nil {
		ok, err := s.lookups.ExpenseTypeExists(ctx, *expenseTypeID)
		if err != nil {
			s.logger.Error("failed to verify expense type", "error", err, "expense_type_id", *expenseTypeID)
			return internal.NewInternalError("failed to verify expense type", err)
		}
		if !ok {
			return internal.NewNotFoundError("Expense type not found", internal.ErrCodeExpenseTypeMissing)
		}
	}
	return nil
}
