package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	User struct {
		ID                 int64
		Username           string
		PasswordHash       string
		SecurityQuestion   string
		SecurityAnswerHash string
	}

	Transaction struct {
		ID       int64
		UserID   int64
		Date     time.Time
		Type     TransactionType
		Category string
		Amount   Money
		Note     string
	}

	Budget struct {
		ID           int64
		UserID       int64
		Category     string
		MonthlyLimit Money
	}
)

var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectAnswer    = errors.New("incorrect answer")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrEmptyInput         = errors.New("required input is empty")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NormalizeUsername folds a username to its canonical stored form.
// Usernames are compared case-insensitively, so lowercase is the
// single source of truth for the uniqueness constraint.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeAnswer folds a recovery answer the same way usernames are
// folded, so verification is case-insensitive.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeCategory title-cases a category name ("food and drink" ->
// "Food And Drink") so aggregates and budget lookups never split on
// letter case.
func NormalizeCategory(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

// YearMonth renders the "YYYY-MM" key used for monthly aggregates.
func YearMonth(t time.Time) string {
	return t.Format("2006-01")
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return fmt.Errorf("user id: %w", ErrEmptyInput)
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return fmt.Errorf("category: %w", ErrEmptyInput)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("date: %w", ErrEmptyInput)
	}
	return t.Amount.Validate()
}

func (b Budget) Validate() error {
	if b.UserID <= 0 {
		return fmt.Errorf("user id: %w", ErrEmptyInput)
	}
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("category: %w", ErrEmptyInput)
	}
	return b.MonthlyLimit.Validate()
}

type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthSummary is the current-month expense breakdown by category.
type MonthSummary struct {
	YearMonth  string
	Total      Money
	ByCategory []CategoryAmount
}
