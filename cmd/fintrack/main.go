package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.DBPath)
	defer repo.Close()

	// The sync pipeline is optional. Without a broker URL transactions
	// stay flagged in SQLite and the worker's sweep exports them later.
	var publisher ledger.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transactions will sync via the periodic sweep", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	categoryCache := cache.NewTTLCache[[]string](64, 5*time.Minute)
	cacheManager := cache.NewManager()
	cacheManager.Register(categoryCache)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	authSvc := auth.NewService(repo, auth.NewHasher(cfg.BcryptCost))
	budgets := budget.NewEvaluator(repo)
	ledgerSvc := ledger.NewService(repo, publisher, budgets, categoryCache)
	reports := report.NewService(repo)

	app := &application{
		prompt:  newPrompter(),
		logger:  logger,
		auth:    authSvc,
		ledger:  ledgerSvc,
		budgets: budgets,
		reports: reports,
	}

	if err := app.run(context.Background()); err != nil {
		logger.Error("Fatal error", log.FieldError, err)
		os.Exit(1)
	}
}

type application struct {
	prompt  *prompter
	logger  *log.Logger
	auth    *auth.Service
	ledger  *ledger.Service
	budgets *budget.Evaluator
	reports *report.Service
}

func (a *application) run(ctx context.Context) error {
	fmt.Println("=== Personal Finance Tracker ===")
	for {
		fmt.Println()
		fmt.Println("1. Register")
		fmt.Println("2. Login")
		fmt.Println("3. Recover password")
		fmt.Println("4. Exit")

		choice, err := a.prompt.choice("Select an option: ", "1", "2", "3", "4")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			if err := a.register(ctx); err != nil {
				return err
			}
		case "2":
			userID, username, err := a.login(ctx)
			if err != nil {
				return err
			}
			if userID != 0 {
				if err := a.dashboard(ctx, userID, username); err != nil {
					return err
				}
			}
		case "3":
			if err := a.recoverPassword(ctx); err != nil {
				return err
			}
		case "4":
			fmt.Println("Goodbye!")
			return nil
		}
	}
}

func (a *application) register(ctx context.Context) error {
	username, err := a.prompt.line("Username: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.password("Password (min 8 chars, upper, lower, digit): ")
	if err != nil {
		return err
	}
	question, err := a.prompt.line("Security question: ")
	if err != nil {
		return err
	}
	answer, err := a.prompt.line("Security answer: ")
	if err != nil {
		return err
	}

	_, err = a.auth.Register(ctx, username, password, question, answer)
	switch {
	case errors.Is(err, core.ErrDuplicateUsername):
		fmt.Println("That username is already taken.")
	case errors.Is(err, core.ErrWeakPassword):
		fmt.Println("Password too weak: use at least 8 characters with an uppercase letter, a lowercase letter, and a digit.")
	case errors.Is(err, core.ErrEmptyInput):
		fmt.Println("All fields are required.")
	case err != nil:
		return err
	default:
		fmt.Println("Account created. You can log in now.")
	}
	return nil
}

func (a *application) login(ctx context.Context) (int64, string, error) {
	username, err := a.prompt.line("Username: ")
	if err != nil {
		return 0, "", err
	}
	password, err := a.prompt.password("Password: ")
	if err != nil {
		return 0, "", err
	}

	userID, err := a.auth.Login(ctx, username, password)
	if errors.Is(err, core.ErrInvalidCredentials) {
		fmt.Println("Invalid username or password.")
		return 0, "", nil
	}
	if err != nil {
		return 0, "", err
	}
	return userID, username, nil
}

func (a *application) recoverPassword(ctx context.Context) error {
	username, err := a.prompt.line("Username: ")
	if err != nil {
		return err
	}

	question, err := a.auth.RecoveryQuestion(ctx, username)
	if errors.Is(err, core.ErrUserNotFound) {
		fmt.Println("No such user.")
		return nil
	}
	if err != nil {
		return err
	}

	answer, err := a.prompt.line(question + " ")
	if err != nil {
		return err
	}
	newPassword, err := a.prompt.password("New password: ")
	if err != nil {
		return err
	}

	err = a.auth.RecoverPassword(ctx, username, answer, newPassword)
	switch {
	case errors.Is(err, core.ErrIncorrectAnswer):
		fmt.Println("Incorrect answer.")
	case errors.Is(err, core.ErrWeakPassword):
		fmt.Println("Password too weak: use at least 8 characters with an uppercase letter, a lowercase letter, and a digit.")
	case err != nil:
		return err
	default:
		fmt.Println("Password updated. You can log in now.")
	}
	return nil
}
