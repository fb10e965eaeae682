// Package budget evaluates per-category monthly spending limits
// against ledger aggregates.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// Level is the outcome of a budget check.
type Level string

const (
	NoBudgetSet Level = "no_budget_set"
	Ok          Level = "ok"
	Warning     Level = "warning"
	Exceeded    Level = "exceeded"
)

// warnPercent is the utilization above which a budget is flagged
// before it is exceeded.
const warnPercent = 80.0

// Status reports this month's spending against the configured limit.
type Status struct {
	Category string
	Spent    core.Money
	Limit    core.Money
	Level    Level
}

// Percent returns spent as a percentage of the limit, for display.
func (s Status) Percent() float64 {
	if s.Limit.Cents == 0 {
		return 0
	}
	return float64(s.Spent.Cents) / float64(s.Limit.Cents) * 100.0
}

// Store is the persistence contract the evaluator needs.
type Store interface {
	UpsertBudget(ctx context.Context, b core.Budget) error
	GetBudget(ctx context.Context, userID int64, category string) (core.Budget, bool, error)
	SumByCategoryMonth(ctx context.Context, userID int64, category string, typ core.TransactionType, yearMonth string) (int64, error)
}

type Evaluator struct {
	store Store
}

func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store}
}

// SetLimit upserts the monthly limit for (user, category). The limit
// is a decimal string; parse failures and negative values fail with
// ErrInvalidAmount before any write.
func (e *Evaluator) SetLimit(ctx context.Context, userID int64, category, limit string) error {
	category = core.NormalizeCategory(category)
	if category == "" {
		return fmt.Errorf("category: %w", core.ErrEmptyInput)
	}
	cents, err := core.ParseAmountToCents(limit)
	if err != nil {
		return err
	}

	if err := e.store.UpsertBudget(ctx, core.Budget{
		UserID:       userID,
		Category:     category,
		MonthlyLimit: core.Money{Cents: cents},
	}); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget limit set",
		"user_id", userID,
		"category", category,
		"limit_cents", cents)
	return nil
}

// CheckStatus compares the current calendar month's expenses in the
// category against the configured limit. Precedence: no budget row ->
// NoBudgetSet; spent over limit -> Exceeded (a zero limit is exceeded
// by any spending); utilization above 80% -> Warning; otherwise Ok.
func (e *Evaluator) CheckStatus(ctx context.Context, userID int64, category string) (Status, error) {
	category = core.NormalizeCategory(category)

	b, found, err := e.store.GetBudget(ctx, userID, category)
	if err != nil {
		return Status{}, err
	}
	if !found {
		return Status{Category: category, Level: NoBudgetSet}, nil
	}

	spent, err := e.store.SumByCategoryMonth(ctx, userID, category, core.Expense, core.YearMonth(time.Now()))
	if err != nil {
		return Status{}, err
	}

	st := Status{
		Category: category,
		Spent:    core.Money{Cents: spent},
		Limit:    b.MonthlyLimit,
	}
	switch {
	case b.MonthlyLimit.Cents == 0 && spent > 0:
		st.Level = Exceeded
	case spent > b.MonthlyLimit.Cents:
		st.Level = Exceeded
	case b.MonthlyLimit.Cents > 0 && st.Percent() > warnPercent:
		st.Level = Warning
	default:
		st.Level = Ok
	}
	return st, nil
}
