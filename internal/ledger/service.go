// Package ledger records income and expense transactions and answers
// questions about them. The ledger is append-only: there is no edit or
// delete path.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// Store is the persistence contract the ledger needs.
type Store interface {
	InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error)
	SumByType(ctx context.Context, userID int64, typ core.TransactionType) (int64, error)
	SumByCategoryMonth(ctx context.Context, userID int64, category string, typ core.TransactionType, yearMonth string) (int64, error)
	GroupExpensesByCategoryForMonth(ctx context.Context, userID int64, yearMonth string) ([]core.CategoryAmount, error)
	ListCategoriesByUser(ctx context.Context, userID int64) ([]string, error)
}

// SyncPublisher notifies the export pipeline about a recorded
// transaction. A nil publisher disables the pipeline.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id int64) error
}

// RecordResult is what the caller gets back after a successful write.
// Budget is set only when an expense lands in a category that has a
// monthly limit check worth showing.
type RecordResult struct {
	ID     int64
	Budget *budget.Status
}

type Service struct {
	store      Store
	publisher  SyncPublisher
	budgets    *budget.Evaluator
	categories *cache.TTLCache[[]string]
}

func NewService(store Store, publisher SyncPublisher, budgets *budget.Evaluator, categories *cache.TTLCache[[]string]) *Service {
	return &Service{
		store:      store,
		publisher:  publisher,
		budgets:    budgets,
		categories: categories,
	}
}

// Record validates and appends one transaction. The amount is a
// decimal string as typed by the user. A zero ts defaults to now.
//
// The budget check runs after the insert commits, so an expense that
// pushes a category over its limit is still recorded; the returned
// status tells the caller it happened. Publish failures are logged and
// never fail the write, the periodic worker sweep picks the row up.
func (s *Service) Record(ctx context.Context, userID int64, typ core.TransactionType, category, amount, note string, ts time.Time) (RecordResult, error) {
	cents, err := core.ParseAmountToCents(amount)
	if err != nil {
		return RecordResult{}, err
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	t := core.Transaction{
		UserID:   userID,
		Date:     ts,
		Type:     typ,
		Category: core.NormalizeCategory(category),
		Amount:   core.Money{Cents: cents},
		Note:     note,
	}

	id, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return RecordResult{}, fmt.Errorf("record transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", id,
		"user_id", userID,
		"type", typ,
		"category", t.Category,
		"amount_cents", cents)

	s.categories.Delete(categoriesKey(userID))

	result := RecordResult{ID: id}
	if typ == core.Expense {
		st, err := s.budgets.CheckStatus(ctx, userID, t.Category)
		if err != nil {
			slog.WarnContext(ctx, "Budget check failed after recording", "error", err, "id", id)
		} else if st.Level != budget.NoBudgetSet {
			result.Budget = &st
		}
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "Message publisher not available, transaction will sync later", "id", id)
		return result, nil
	}
	if err := s.publisher.PublishTransactionSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "error", err, "id", id)
	}

	return result, nil
}

// ListByUser returns the user's transactions, most recent first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, userID)
}

// SumByType totals all of the user's transactions of one type.
func (s *Service) SumByType(ctx context.Context, userID int64, typ core.TransactionType) (core.Money, error) {
	cents, err := s.store.SumByType(ctx, userID, typ)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// SumByCategoryMonth totals one category for one "YYYY-MM" month.
func (s *Service) SumByCategoryMonth(ctx context.Context, userID int64, category string, typ core.TransactionType, yearMonth string) (core.Money, error) {
	cents, err := s.store.SumByCategoryMonth(ctx, userID, core.NormalizeCategory(category), typ, yearMonth)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// GroupExpensesByCategoryForMonth breaks one month's expenses down by
// category. An empty slice is a valid answer for a quiet month.
func (s *Service) GroupExpensesByCategoryForMonth(ctx context.Context, userID int64, yearMonth string) ([]core.CategoryAmount, error) {
	return s.store.GroupExpensesByCategoryForMonth(ctx, userID, yearMonth)
}

// Categories returns the distinct categories the user has ever used,
// cached briefly so menu suggestions don't hit the database on every
// keystroke loop.
func (s *Service) Categories(ctx context.Context, userID int64) ([]string, error) {
	key := categoriesKey(userID)
	if cached, ok := s.categories.Get(key); ok {
		return cached, nil
	}

	cats, err := s.store.ListCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.categories.Set(key, cats)
	return cats, nil
}

func categoriesKey(userID int64) string {
	return fmt.Sprintf("categories:%d", userID)
}
