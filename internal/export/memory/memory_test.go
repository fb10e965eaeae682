package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestStore_Append(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx := core.Transaction{
		UserID:   1,
		Date:     time.Now(),
		Type:     core.Expense,
		Category: "Food",
		Amount:   core.Money{Cents: 1250},
	}

	ref, err := s.Append(ctx, tx)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	ref, err = s.Append(ctx, tx)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:2" {
		t.Errorf("ref = %q, want mem:2", ref)
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Category != "Food" {
		t.Errorf("items[0].Category = %q, want Food", items[0].Category)
	}
}

func TestStore_AppendRejectsInvalid(t *testing.T) {
	s := New()

	_, err := s.Append(context.Background(), core.Transaction{
		UserID: 1,
		Date:   time.Now(),
		Type:   core.TransactionType("Transfer"),
	})
	if err == nil {
		t.Fatal("Append should reject an invalid transaction")
	}
	if len(s.Items()) != 0 {
		t.Fatal("invalid transaction must not be stored")
	}
}
