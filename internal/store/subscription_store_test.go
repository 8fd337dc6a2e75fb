package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestSubscriptionStoreHasActive(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "status = 'active'") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*string) = "sub-1"
			return nil
		},
	}
	store := NewSubscriptionStore(stubDB{})
	active, err := store.HasActive(ctx, getter, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !active {
		t.Fatal("expected active subscription")
	}
}

func TestSubscriptionStoreHasActiveNone(t *testing.T) {
	getter := stubGetter{
		getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		},
	}
	store := NewSubscriptionStore(stubDB{})
	active, err := store.HasActive(context.Background(), getter, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active {
		t.Fatal("expected no active subscription")
	}
}

func TestSubscriptionStoreExpireDue(t *testing.T) {
	store := NewSubscriptionStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "expires_at <= NOW()") {
				t.Fatalf("unexpected query: %s", query)
			}
			// The sweep transitions active rows only; cancelled and
			// already-expired rows stay as they are.
			if !strings.Contains(query, "status = 'active'") {
				t.Fatalf("sweep must only touch active rows: %s", query)
			}
			if len(args) != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 3}, nil
		},
	})
	expired, err := store.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 3 {
		t.Fatalf("expected 3 expired, got %d", expired)
	}
}
