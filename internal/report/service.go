// Package report derives read-only views from the ledger: the running
// balance, the full history, the monthly breakdown and a CSV dump.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// Store is the persistence contract the reports need.
type Store interface {
	ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error)
	SumByType(ctx context.Context, userID int64, typ core.TransactionType) (int64, error)
	GroupExpensesByCategoryForMonth(ctx context.Context, userID int64, yearMonth string) ([]core.CategoryAmount, error)
}

// Balance is total income against total expenses over the whole ledger.
type Balance struct {
	Income   core.Money
	Expenses core.Money
}

func (b Balance) Net() core.Money {
	return core.Money{Cents: b.Income.Cents - b.Expenses.Cents}
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Balance sums both transaction types concurrently.
func (s *Service) Balance(ctx context.Context, userID int64) (Balance, error) {
	var income, expenses int64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.store.SumByType(ctx, userID, core.Income)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.SumByType(ctx, userID, core.Expense)
		return err
	})
	if err := g.Wait(); err != nil {
		return Balance{}, fmt.Errorf("compute balance: %w", err)
	}

	return Balance{
		Income:   core.Money{Cents: income},
		Expenses: core.Money{Cents: expenses},
	}, nil
}

// History returns every transaction, most recent first.
func (s *Service) History(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, userID)
}

// MonthlySummary breaks down the expenses of the calendar month that
// contains now. A month with no expenses yields an empty breakdown and
// a zero total.
func (s *Service) MonthlySummary(ctx context.Context, userID int64, now time.Time) (core.MonthSummary, error) {
	yearMonth := core.YearMonth(now)

	rows, err := s.store.GroupExpensesByCategoryForMonth(ctx, userID, yearMonth)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	summary := core.MonthSummary{YearMonth: yearMonth, ByCategory: rows}
	for _, row := range rows {
		summary.Total.Cents += row.Amount.Cents
	}
	return summary, nil
}

var csvHeader = []string{"Date", "Type", "Category", "Amount", "Note"}

// WriteHistoryCSV streams the user's full history to w as CSV, header
// first, newest row first.
func (s *Service) WriteHistoryCSV(ctx context.Context, w io.Writer, userID int64) error {
	transactions, err := s.store.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, t := range transactions {
		record := []string{
			t.Date.Format("2006-01-02 15:04:05"),
			string(t.Type),
			t.Category,
			t.Amount.String(),
			t.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
