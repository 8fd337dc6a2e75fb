package services

import (
	"context"
	"testing"

	"storefront/internal/store"
)

type fixedReceivingStore struct {
	accounts []store.ReceivingAccount
	err      error
}

func (f fixedReceivingStore) ListActive(ctx context.Context) ([]store.ReceivingAccount, error) {
	return f.accounts, f.err
}

func TestMatchBySuffixAlone(t *testing.T) {
	matcher := NewAccountMatcher(fixedReceivingStore{accounts: []store.ReceivingAccount{
		{ID: "ra-1", Suffix: "4321", ReceiverName: "Somchai J."},
	}})
	account, err := matcher.Match(context.Background(), "4321", "completely different name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ID != "ra-1" {
		t.Fatalf("expected ra-1, got %s", account.ID)
	}
}

func TestMatchByNameAlone(t *testing.T) {
	matcher := NewAccountMatcher(fixedReceivingStore{accounts: []store.ReceivingAccount{
		{ID: "ra-1", Suffix: "4321", ReceiverName: "Somchai J."},
	}})
	account, err := matcher.Match(context.Background(), "9999", "Somchai J.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ID != "ra-1" {
		t.Fatalf("expected ra-1, got %s", account.ID)
	}
}

func TestMatchRejectsWhenNeitherSignalMatches(t *testing.T) {
	matcher := NewAccountMatcher(fixedReceivingStore{accounts: []store.ReceivingAccount{
		{ID: "ra-1", Suffix: "4321", ReceiverName: "Somchai J."},
	}})
	if _, err := matcher.Match(context.Background(), "9999", "nobody"); err != ErrAccountMismatch {
		t.Fatalf("expected ErrAccountMismatch, got %v", err)
	}
}

func TestMatchIgnoresEmptySignals(t *testing.T) {
	// An empty suffix must not match a registered account with an empty
	// suffix column; same for names.
	matcher := NewAccountMatcher(fixedReceivingStore{accounts: []store.ReceivingAccount{
		{ID: "ra-1", Suffix: "", ReceiverName: ""},
	}})
	if _, err := matcher.Match(context.Background(), "", ""); err != ErrAccountMismatch {
		t.Fatalf("expected ErrAccountMismatch, got %v", err)
	}
}

func TestMatchNoActiveAccounts(t *testing.T) {
	matcher := NewAccountMatcher(fixedReceivingStore{})
	if _, err := matcher.Match(context.Background(), "4321", "Somchai J."); err != ErrAccountMismatch {
		t.Fatalf("expected ErrAccountMismatch, got %v", err)
	}
}
