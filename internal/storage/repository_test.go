package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *SQLiteRepository, username string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), core.User{
		Username:           username,
		PasswordHash:       "hash",
		SecurityQuestion:   "q",
		SecurityAnswerHash: "ahash",
	})
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	return id
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	createTestUser(t, repo, "alice")

	// Same username with different case must still conflict.
	_, err := repo.CreateUser(ctx, core.User{
		Username:           "ALICE",
		PasswordHash:       "hash2",
		SecurityQuestion:   "q",
		SecurityAnswerHash: "ahash2",
	})
	if !errors.Is(err, core.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := createTestUser(t, repo, "Bob")

	// Lookup is case-insensitive; stored form is lowercase.
	u, err := repo.GetUserByUsername(ctx, "BOB")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u.ID != id || u.Username != "bob" {
		t.Fatalf("got id=%d username=%q, want id=%d username=bob", u.ID, u.Username, id)
	}

	if _, err := repo.GetUserByUsername(ctx, "nobody"); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	createTestUser(t, repo, "carol")

	if err := repo.UpdateUserPassword(ctx, "Carol", "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	u, err := repo.GetUserByUsername(ctx, "carol")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u.PasswordHash != "newhash" {
		t.Fatalf("password hash not updated, got %q", u.PasswordHash)
	}

	if err := repo.UpdateUserPassword(ctx, "nobody", "x"); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func mustInsert(t *testing.T, repo *SQLiteRepository, userID int64, typ core.TransactionType, category string, cents int64, at time.Time) int64 {
	t.Helper()
	id, err := repo.InsertTransaction(context.Background(), core.Transaction{
		UserID:   userID,
		Date:     at,
		Type:     typ,
		Category: category,
		Amount:   core.Money{Cents: cents},
	})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	return id
}

func TestInsertTransaction_Validation(t *testing.T) {
	repo := newTestRepo(t)
	userID := createTestUser(t, repo, "dave")
	now := time.Now()

	_, err := repo.InsertTransaction(context.Background(), core.Transaction{
		UserID: userID, Date: now, Type: core.Expense, Category: "Food",
		Amount: core.Money{Cents: -100},
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	// Zero amounts are legal.
	mustInsert(t, repo, userID, core.Expense, "Food", 0, now)
}

func TestListTransactionsByUser_Order(t *testing.T) {
	repo := newTestRepo(t)
	userID := createTestUser(t, repo, "erin")
	otherID := createTestUser(t, repo, "frank")
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	first := mustInsert(t, repo, userID, core.Income, "Salary", 100000, base)
	second := mustInsert(t, repo, userID, core.Expense, "Food", 2500, base.Add(time.Hour))
	third := mustInsert(t, repo, userID, core.Expense, "Rent", 90000, base.Add(2*time.Hour))
	mustInsert(t, repo, otherID, core.Expense, "Food", 999, base)

	list, err := repo.ListTransactionsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListTransactionsByUser: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(list))
	}
	wantOrder := []int64{third, second, first}
	for i, want := range wantOrder {
		if list[i].ID != want {
			t.Fatalf("position %d: got id %d, want %d", i, list[i].ID, want)
		}
	}
	if list[0].Amount.Cents != 90000 || list[0].Category != "Rent" {
		t.Fatalf("unexpected row: %+v", list[0])
	}
}

func TestSums(t *testing.T) {
	repo := newTestRepo(t)
	userID := createTestUser(t, repo, "grace")
	ctx := context.Background()

	june := time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	july := time.Date(2025, 7, 2, 9, 0, 0, 0, time.Local)

	mustInsert(t, repo, userID, core.Income, "Salary", 100000, june)
	mustInsert(t, repo, userID, core.Expense, "Food", 3000, june)
	mustInsert(t, repo, userID, core.Expense, "Food", 4500, june)
	mustInsert(t, repo, userID, core.Expense, "Food", 1000, july)
	mustInsert(t, repo, userID, core.Expense, "Rent", 90000, june)

	income, err := repo.SumByType(ctx, userID, core.Income)
	if err != nil {
		t.Fatalf("SumByType income: %v", err)
	}
	if income != 100000 {
		t.Fatalf("income = %d, want 100000", income)
	}

	expense, err := repo.SumByType(ctx, userID, core.Expense)
	if err != nil {
		t.Fatalf("SumByType expense: %v", err)
	}
	if expense != 98500 {
		t.Fatalf("expense = %d, want 98500", expense)
	}

	foodJune, err := repo.SumByCategoryMonth(ctx, userID, "Food", core.Expense, "2025-06")
	if err != nil {
		t.Fatalf("SumByCategoryMonth: %v", err)
	}
	if foodJune != 7500 {
		t.Fatalf("food june = %d, want 7500", foodJune)
	}

	// No rows defaults to zero.
	none, err := repo.SumByCategoryMonth(ctx, userID, "Travel", core.Expense, "2025-06")
	if err != nil {
		t.Fatalf("SumByCategoryMonth empty: %v", err)
	}
	if none != 0 {
		t.Fatalf("empty sum = %d, want 0", none)
	}
}

func TestGroupExpensesByCategoryForMonth(t *testing.T) {
	repo := newTestRepo(t)
	userID := createTestUser(t, repo, "heidi")
	ctx := context.Background()

	// No transactions at all: empty result, not an error.
	empty, err := repo.GroupExpensesByCategoryForMonth(ctx, userID, "2025-06")
	if err != nil {
		t.Fatalf("GroupExpensesByCategoryForMonth: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty result, got %v", empty)
	}

	june := time.Date(2025, 6, 10, 8, 0, 0, 0, time.Local)
	mustInsert(t, repo, userID, core.Expense, "Food", 3000, june)
	mustInsert(t, repo, userID, core.Expense, "Food", 2000, june)
	mustInsert(t, repo, userID, core.Expense, "Rent", 90000, june)
	mustInsert(t, repo, userID, core.Income, "Salary", 100000, june)

	got, err := repo.GroupExpensesByCategoryForMonth(ctx, userID, "2025-06")
	if err != nil {
		t.Fatalf("GroupExpensesByCategoryForMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if got[0].Name != "Food" || got[0].Amount.Cents != 5000 {
		t.Fatalf("unexpected first group: %+v", got[0])
	}
	if got[1].Name != "Rent" || got[1].Amount.Cents != 90000 {
		t.Fatalf("unexpected second group: %+v", got[1])
	}
}

func TestUpsertBudget_SingleRow(t *testing.T) {
	repo := newTestRepo(t)
	userID := createTestUser(t, repo, "ivan")
	ctx := context.Background()

	set := func(cents int64) {
		t.Helper()
		if err := repo.UpsertBudget(ctx, core.Budget{
			UserID: userID, Category: "Food", MonthlyLimit: core.Money{Cents: cents},
		}); err != nil {
			t.Fatalf("UpsertBudget: %v", err)
		}
	}
	set(10000)
	set(5000)

	b, found, err := repo.GetBudget(ctx, userID, "Food")
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if !found {
		t.Fatal("budget not found after upsert")
	}
	if b.MonthlyLimit.Cents != 5000 {
		t.Fatalf("limit = %d, want 5000", b.MonthlyLimit.Cents)
	}

	var count int
	if err := repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE user_id = ? AND category = ?`,
		userID, "Food").Scan(&count); err != nil {
		t.Fatalf("count budgets: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 budget row, got %d", count)
	}

	_, found, err = repo.GetBudget(ctx, userID, "Travel")
	if err != nil {
		t.Fatalf("GetBudget missing: %v", err)
	}
	if found {
		t.Fatal("expected no budget for Travel")
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	userID := createTestUser(t, repo, "judy")
	ctx := context.Background()

	now := time.Now()
	a := mustInsert(t, repo, userID, core.Expense, "Food", 1000, now)
	b := mustInsert(t, repo, userID, core.Income, "Salary", 2000, now)

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != a || pending[1].ID != b {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	if err := repo.MarkSynced(ctx, a); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, b); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending transactions, got %d", len(pending))
	}
}

func TestListCategoriesByUser(t *testing.T) {
	repo := newTestRepo(t)
	userID := createTestUser(t, repo, "kate")
	ctx := context.Background()

	now := time.Now()
	mustInsert(t, repo, userID, core.Expense, "Food", 1000, now)
	mustInsert(t, repo, userID, core.Expense, "Food", 2000, now)
	mustInsert(t, repo, userID, core.Expense, "Rent", 3000, now)

	cats, err := repo.ListCategoriesByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListCategoriesByUser: %v", err)
	}
	if len(cats) != 2 || cats[0] != "Food" || cats[1] != "Rent" {
		t.Fatalf("unexpected categories: %v", cats)
	}
}
