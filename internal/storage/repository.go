package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	sqlite3 "modernc.org/sqlite"
)

// dateLayout is the stored form of transaction timestamps. Keeping it
// lexicographically sortable lets ORDER BY and strftime month filters
// work on the TEXT column directly.
const dateLayout = "2006-01-02 15:04:05"

// SQLITE_CONSTRAINT_UNIQUE
const sqliteConstraintUnique = 2067

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction with guaranteed commit-or-rollback.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	return errors.As(err, &serr) && serr.Code() == sqliteConstraintUnique
}

// ---- Credential store ----

// CreateUser inserts a new user record and returns its id. The username
// is folded to lowercase here so the uniqueness invariant holds no
// matter what the caller passed in.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (int64, error) {
	username := core.NormalizeUsername(u.Username)

	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, security_question, security_answer_hash)
			 VALUES (?, ?, ?, ?)`,
			username, u.PasswordHash, u.SecurityQuestion, u.SecurityAnswerHash)
		if err != nil {
			if isUniqueViolation(err) {
				return core.ErrDuplicateUsername
			}
			return fmt.Errorf("insert user: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username)
	return id, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	username = core.NormalizeUsername(username)

	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, security_question, security_answer_hash
		 FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.SecurityQuestion, &u.SecurityAnswerHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUserPassword(ctx context.Context, username, newHash string) error {
	username = core.NormalizeUsername(username)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ? WHERE username = ?`, newHash, username)
		if err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return core.ErrUserNotFound
		}
		return nil
	})
}

// ---- Ledger ----

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, date, type, category, amount_cents, note)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.UserID, t.Date.Format(dateLayout), string(t.Type), t.Category, t.Amount.Cents, t.Note)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", id,
		"user_id", t.UserID,
		"type", t.Type,
		"category", t.Category,
		"amount_cents", t.Amount.Cents)

	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, type, category, amount_cents, note
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactionsByUser returns the user's full history, most recent
// first. Each call is a fresh query, never a live cursor.
func (r *SQLiteRepository) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, type, category, amount_cents, note
		 FROM transactions WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// SumByType totals a user's transactions of one type, in cents.
// No rows means zero, not an error.
func (r *SQLiteRepository) SumByType(ctx context.Context, userID int64, typ core.TransactionType) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE user_id = ? AND type = ?`, userID, string(typ)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum by type: %w", err)
	}
	return total, nil
}

// SumByCategoryMonth totals one category for one calendar month
// (yearMonth is "YYYY-MM").
func (r *SQLiteRepository) SumByCategoryMonth(ctx context.Context, userID int64, category string, typ core.TransactionType, yearMonth string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE user_id = ? AND category = ? AND type = ? AND strftime('%Y-%m', date) = ?`,
		userID, category, string(typ), yearMonth).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum by category and month: %w", err)
	}
	return total, nil
}

// GroupExpensesByCategoryForMonth aggregates a month's expenses per
// category. An empty result is valid.
func (r *SQLiteRepository) GroupExpensesByCategoryForMonth(ctx context.Context, userID int64, yearMonth string) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) FROM transactions
		 WHERE user_id = ? AND type = ? AND strftime('%Y-%m', date) = ?
		 GROUP BY category ORDER BY category`,
		userID, string(core.Expense), yearMonth)
	if err != nil {
		return nil, fmt.Errorf("group expenses by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	return out, nil
}

// ListCategoriesByUser returns the distinct categories the user has
// recorded transactions in, for prompt suggestions.
func (r *SQLiteRepository) ListCategoriesByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM transactions WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// ---- Budgets ----

// UpsertBudget inserts or replaces the monthly limit for the
// (user, category) pair. A conflict is a normal overwrite.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (user_id, category, monthly_limit_cents)
			 VALUES (?, ?, ?)
			 ON CONFLICT (user_id, category)
			 DO UPDATE SET monthly_limit_cents = excluded.monthly_limit_cents`,
			b.UserID, b.Category, b.MonthlyLimit.Cents)
		if err != nil {
			return fmt.Errorf("upsert budget: %w", err)
		}
		return nil
	})
}

// GetBudget returns the budget for (user, category) and whether one exists.
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID int64, category string) (core.Budget, bool, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, monthly_limit_cents FROM budgets
		 WHERE user_id = ? AND category = ?`, userID, category).
		Scan(&b.ID, &b.UserID, &b.Category, &b.MonthlyLimit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("get budget: %w", err)
	}
	return b, true, nil
}

// ---- Export bookkeeping ----

// GetPendingSyncTransactions returns transactions not yet exported,
// oldest first, capped at limit.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, type, category, amount_cents, note
		 FROM transactions WHERE synced = 0 AND sync_error = 0
		 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("mark transaction synced: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET sync_error = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("mark transaction sync error: %w", err)
		}
		return nil
	})
	if err == nil {
		slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		dateStr string
		typStr  string
	)
	if err := row.Scan(&t.ID, &t.UserID, &dateStr, &typStr, &t.Category, &t.Amount.Cents, &t.Note); err != nil {
		return core.Transaction{}, err
	}
	date, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", dateStr, err)
	}
	t.Date = date
	t.Type = core.TransactionType(typStr)
	return t, nil
}
