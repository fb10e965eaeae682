package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, NewHasher(bcrypt.MinCost))
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "Alice", "Str0ngPass", "favorite color?", "Blue")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero user id")
	}

	t.Run("duplicate username is case-insensitive", func(t *testing.T) {
		_, err := svc.Register(ctx, "ALICE", "Str0ngPass", "q", "a")
		if !errors.Is(err, core.ErrDuplicateUsername) {
			t.Fatalf("expected ErrDuplicateUsername, got %v", err)
		}
	})

	t.Run("weak password rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "weak", "q", "a")
		if !errors.Is(err, core.ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("empty username rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "  ", "Str0ngPass", "q", "a")
		if !errors.Is(err, core.ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "carol", "Str0ngPass", "q", "a")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.Login(ctx, "Carol", "Str0ngPass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got != id {
		t.Fatalf("Login returned id %d, want %d", got, id)
	}

	// Wrong password and unknown user must be indistinguishable.
	_, errWrong := svc.Login(ctx, "carol", "WrongPass1")
	_, errUnknown := svc.Login(ctx, "nobody", "Str0ngPass")
	if !errors.Is(errWrong, core.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrong)
	}
	if !errors.Is(errUnknown, core.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", errUnknown)
	}
}

func TestHashingIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	h1, err := h.Hash("Str0ngPass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := h.Hash("Str0ngPass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("hashing the same input twice should produce distinct hashes")
	}
	if !h.Verify(h1, "Str0ngPass") || !h.Verify(h2, "Str0ngPass") {
		t.Fatal("both hashes should verify against the original input")
	}
	if h.Verify(h1, "OtherPass1") {
		t.Fatal("hash should not verify against a different input")
	}
}

func TestRecoverPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dave", "Or1ginalPw", "first pet?", "Rex"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("question is exposed for display", func(t *testing.T) {
		q, err := svc.RecoveryQuestion(ctx, "DAVE")
		if err != nil {
			t.Fatalf("RecoveryQuestion: %v", err)
		}
		if q != "first pet?" {
			t.Fatalf("question = %q, want %q", q, "first pet?")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := svc.RecoveryQuestion(ctx, "nobody"); !errors.Is(err, core.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
		err := svc.RecoverPassword(ctx, "nobody", "rex", "N3wPassword")
		if !errors.Is(err, core.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("incorrect answer", func(t *testing.T) {
		err := svc.RecoverPassword(ctx, "dave", "fido", "N3wPassword")
		if !errors.Is(err, core.ErrIncorrectAnswer) {
			t.Fatalf("expected ErrIncorrectAnswer, got %v", err)
		}
	})

	t.Run("weak new password", func(t *testing.T) {
		err := svc.RecoverPassword(ctx, "dave", "rex", "weak")
		if !errors.Is(err, core.ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("success rotates the password", func(t *testing.T) {
		// Answer comparison is case-insensitive.
		if err := svc.RecoverPassword(ctx, "dave", "REX", "N3wPassword"); err != nil {
			t.Fatalf("RecoverPassword: %v", err)
		}
		if _, err := svc.Login(ctx, "dave", "N3wPassword"); err != nil {
			t.Fatalf("login with new password: %v", err)
		}
		if _, err := svc.Login(ctx, "dave", "Or1ginalPw"); !errors.Is(err, core.ErrInvalidCredentials) {
			t.Fatalf("old password should no longer verify, got %v", err)
		}
	})
}
