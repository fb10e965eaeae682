// Package auth implements registration, login, and password recovery
// on top of the credential store.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

// CredentialStore is the persistence contract the authenticator needs.
type CredentialStore interface {
	CreateUser(ctx context.Context, u core.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UpdateUserPassword(ctx context.Context, username, newHash string) error
}

type Service struct {
	store  CredentialStore
	hasher *Hasher
}

func NewService(store CredentialStore, hasher *Hasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Register creates a new account. The password must satisfy the
// strength policy; the recovery answer is folded to lowercase before
// hashing so later verification is case-insensitive. Password and
// answer are hashed independently, each with its own salt.
func (s *Service) Register(ctx context.Context, username, password, question, answer string) (int64, error) {
	username = core.NormalizeUsername(username)
	if username == "" {
		return 0, fmt.Errorf("username: %w", core.ErrEmptyInput)
	}
	if strings.TrimSpace(question) == "" {
		return 0, fmt.Errorf("security question: %w", core.ErrEmptyInput)
	}
	answer = core.NormalizeAnswer(answer)
	if answer == "" {
		return 0, fmt.Errorf("security answer: %w", core.ErrEmptyInput)
	}
	if !core.IsStrongPassword(password) {
		return 0, core.ErrWeakPassword
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	answerHash, err := s.hasher.Hash(answer)
	if err != nil {
		return 0, fmt.Errorf("hash answer: %w", err)
	}

	id, err := s.store.CreateUser(ctx, core.User{
		Username:           username,
		PasswordHash:       passwordHash,
		SecurityQuestion:   strings.TrimSpace(question),
		SecurityAnswerHash: answerHash,
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Login resolves a user identity from credentials. Unknown usernames
// and wrong passwords both yield ErrInvalidCredentials; callers must
// not be able to tell which part failed.
func (s *Service) Login(ctx context.Context, username, password string) (int64, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, core.ErrInvalidCredentials
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return 0, core.ErrInvalidCredentials
	}
	slog.InfoContext(ctx, "Login successful", "user_id", u.ID)
	return u.ID, nil
}

// RecoveryQuestion returns the stored security question so the caller
// can display it before collecting an answer attempt.
func (s *Service) RecoveryQuestion(ctx context.Context, username string) (string, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return u.SecurityQuestion, nil
}

// RecoverPassword resets the password after verifying the recovery
// answer. The new password is checked against the strength policy and
// stored with a fresh salt; no password history is retained.
func (s *Service) RecoverPassword(ctx context.Context, username, answerAttempt, newPassword string) error {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(u.SecurityAnswerHash, core.NormalizeAnswer(answerAttempt)) {
		return core.ErrIncorrectAnswer
	}
	if !core.IsStrongPassword(newPassword) {
		return core.ErrWeakPassword
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, username, newHash); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Password updated via recovery", "user_id", u.ID)
	return nil
}
