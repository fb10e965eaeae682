package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
)

func (a *application) dashboard(ctx context.Context, userID int64, username string) error {
	fmt.Printf("\nWelcome, %s!\n", username)
	for {
		fmt.Println()
		fmt.Println("1. Add income")
		fmt.Println("2. Add expense")
		fmt.Println("3. Transaction history")
		fmt.Println("4. Set budget")
		fmt.Println("5. Check budget status")
		fmt.Println("6. Monthly summary")
		fmt.Println("7. Balance")
		fmt.Println("8. Export history to CSV")
		fmt.Println("9. Logout")

		choice, err := a.prompt.choice("Select an option: ", "1", "2", "3", "4", "5", "6", "7", "8", "9")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = a.addTransaction(ctx, userID, core.Income)
		case "2":
			err = a.addTransaction(ctx, userID, core.Expense)
		case "3":
			err = a.showHistory(ctx, userID)
		case "4":
			err = a.setBudget(ctx, userID)
		case "5":
			err = a.checkBudget(ctx, userID)
		case "6":
			err = a.showMonthlySummary(ctx, userID)
		case "7":
			err = a.showBalance(ctx, userID)
		case "8":
			err = a.exportCSV(ctx, userID)
		case "9":
			fmt.Println("Logged out.")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *application) addTransaction(ctx context.Context, userID int64, typ core.TransactionType) error {
	a.suggestCategories(ctx, userID)

	category, err := a.prompt.line("Category: ")
	if err != nil {
		return err
	}
	amount, err := a.prompt.line("Amount: ")
	if err != nil {
		return err
	}
	note, err := a.prompt.line("Note (optional): ")
	if err != nil {
		return err
	}

	res, err := a.ledger.Record(ctx, userID, typ, category, amount, note, time.Time{})
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		fmt.Println("Invalid amount. Use a non-negative number like 12.50.")
		return nil
	case errors.Is(err, core.ErrEmptyInput):
		fmt.Println("Category is required.")
		return nil
	case err != nil:
		return err
	}

	fmt.Printf("%s recorded.\n", typ)
	if res.Budget != nil {
		printBudgetStatus(*res.Budget)
	}
	return nil
}

func (a *application) suggestCategories(ctx context.Context, userID int64) {
	cats, err := a.ledger.Categories(ctx, userID)
	if err != nil || len(cats) == 0 {
		return
	}
	fmt.Printf("Known categories: %s\n", strings.Join(cats, ", "))
}

func (a *application) showHistory(ctx context.Context, userID int64) error {
	transactions, err := a.reports.History(ctx, userID)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		fmt.Println("No transactions yet.")
		return nil
	}

	fmt.Printf("%-20s %-8s %-20s %12s  %s\n", "Date", "Type", "Category", "Amount", "Note")
	for _, t := range transactions {
		fmt.Printf("%-20s %-8s %-20s %12s  %s\n",
			t.Date.Format("2006-01-02 15:04:05"),
			t.Type,
			t.Category,
			t.Amount.String(),
			t.Note)
	}
	return nil
}

func (a *application) setBudget(ctx context.Context, userID int64) error {
	a.suggestCategories(ctx, userID)

	category, err := a.prompt.line("Category: ")
	if err != nil {
		return err
	}
	limit, err := a.prompt.line("Monthly limit: ")
	if err != nil {
		return err
	}

	err = a.budgets.SetLimit(ctx, userID, category, limit)
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		fmt.Println("Invalid limit. Use a non-negative number like 300.")
		return nil
	case errors.Is(err, core.ErrEmptyInput):
		fmt.Println("Category is required.")
		return nil
	case err != nil:
		return err
	}

	fmt.Println("Budget saved.")
	return nil
}

func (a *application) checkBudget(ctx context.Context, userID int64) error {
	category, err := a.prompt.line("Category: ")
	if err != nil {
		return err
	}

	st, err := a.budgets.CheckStatus(ctx, userID, category)
	if err != nil {
		return err
	}
	printBudgetStatus(st)
	return nil
}

func printBudgetStatus(st budget.Status) {
	switch st.Level {
	case budget.NoBudgetSet:
		fmt.Printf("No budget set for %s.\n", st.Category)
	case budget.Exceeded:
		fmt.Printf("BUDGET EXCEEDED for %s: spent %s of %s this month.\n",
			st.Category, st.Spent.String(), st.Limit.String())
	case budget.Warning:
		fmt.Printf("Warning: %s at %.0f%% of budget (spent %s of %s this month).\n",
			st.Category, st.Percent(), st.Spent.String(), st.Limit.String())
	default:
		fmt.Printf("%s: spent %s of %s this month.\n",
			st.Category, st.Spent.String(), st.Limit.String())
	}
}

func (a *application) showMonthlySummary(ctx context.Context, userID int64) error {
	summary, err := a.reports.MonthlySummary(ctx, userID, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Expenses for %s:\n", summary.YearMonth)
	if len(summary.ByCategory) == 0 {
		fmt.Println("  (no expenses this month)")
		return nil
	}
	for _, row := range summary.ByCategory {
		fmt.Printf("  %-20s %12s\n", row.Name, row.Amount.String())
	}
	fmt.Printf("  %-20s %12s\n", "Total", summary.Total.String())
	return nil
}

func (a *application) showBalance(ctx context.Context, userID int64) error {
	b, err := a.reports.Balance(ctx, userID)
	if err != nil {
		return err
	}

	fmt.Printf("Total income:   %12s\n", b.Income.String())
	fmt.Printf("Total expenses: %12s\n", b.Expenses.String())
	fmt.Printf("Balance:        %12s\n", b.Net().String())
	return nil
}

func (a *application) exportCSV(ctx context.Context, userID int64) error {
	path, err := a.prompt.line("Output file (default history.csv): ")
	if err != nil {
		return err
	}
	if path == "" {
		path = "history.csv"
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Printf("Cannot create %s: %v\n", path, err)
		return nil
	}
	defer f.Close()

	if err := a.reports.WriteHistoryCSV(ctx, f, userID); err != nil {
		return err
	}
	fmt.Printf("History written to %s.\n", path)
	return nil
}
