package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"storefront/internal/store"
)

func TestCreditTxIncreasesBalanceAndWritesLedger(t *testing.T) {
	var inserted []store.LedgerEntryInput
	mem := &inMemoryAccount{account: store.Account{ID: "acc-1", UserID: "user-1", Balance: 1000}}
	executor := NewExecutor(mem, stubLedgerStore{
		insertFn: func(_ context.Context, _ store.Execer, entry store.LedgerEntryInput) error {
			inserted = append(inserted, entry)
			return nil
		},
	})
	account, err := executor.CreditTx(context.Background(), nil, "acc-1", 500, "slip-topup", "ref-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 1500 {
		t.Fatalf("expected balance 1500, got %d", account.Balance)
	}
	if len(inserted) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(inserted))
	}
	if inserted[0].Amount != 500 || inserted[0].Reason != "slip-topup" || inserted[0].Reference != "ref-1" {
		t.Fatalf("unexpected ledger entry: %+v", inserted[0])
	}
}

func TestDebitTxDecreasesBalanceWithNegativeEntry(t *testing.T) {
	var inserted []store.LedgerEntryInput
	mem := &inMemoryAccount{account: store.Account{ID: "acc-1", Balance: 1000}}
	executor := NewExecutor(mem, stubLedgerStore{
		insertFn: func(_ context.Context, _ store.Execer, entry store.LedgerEntryInput) error {
			inserted = append(inserted, entry)
			return nil
		},
	})
	account, err := executor.DebitTx(context.Background(), nil, "acc-1", 400, "subscription-purchase", "sub-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 600 {
		t.Fatalf("expected balance 600, got %d", account.Balance)
	}
	if len(inserted) != 1 || inserted[0].Amount != -400 {
		t.Fatalf("expected one negative ledger entry, got %+v", inserted)
	}
}

func TestDebitTxInsufficientFunds(t *testing.T) {
	mem := &inMemoryAccount{account: store.Account{ID: "acc-1", Balance: 300}}
	called := false
	executor := NewExecutor(mem, stubLedgerStore{
		insertFn: func(context.Context, store.Execer, store.LedgerEntryInput) error {
			called = true
			return nil
		},
	})
	if _, err := executor.DebitTx(context.Background(), nil, "acc-1", 301, "subscription-purchase", "sub-1"); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if called {
		t.Fatal("ledger entry written for a rejected debit")
	}
	if mem.account.Balance != 300 {
		t.Fatalf("balance changed on rejected debit: %d", mem.account.Balance)
	}
}

func TestDebitTxExactBalanceReachesZero(t *testing.T) {
	mem := &inMemoryAccount{account: store.Account{ID: "acc-1", Balance: 5900}}
	executor := NewExecutor(mem, stubLedgerStore{})
	account, err := executor.DebitTx(context.Background(), nil, "acc-1", 5900, "subscription-purchase", "sub-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 0 {
		t.Fatalf("expected zero balance, got %d", account.Balance)
	}
}

func TestExecutorRejectsNonPositiveAmounts(t *testing.T) {
	executor := NewExecutor(stubAccountStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (store.Account, error) {
			t.Fatal("unexpected store call")
			return store.Account{}, nil
		},
	}, stubLedgerStore{})
	for _, amount := range []int64{0, -1} {
		if _, err := executor.CreditTx(context.Background(), nil, "acc-1", amount, "r", "ref"); err != ErrInvalidAmount {
			t.Fatalf("credit %d: expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := executor.DebitTx(context.Background(), nil, "acc-1", amount, "r", "ref"); err != ErrInvalidAmount {
			t.Fatalf("debit %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestExecutorUnknownAccount(t *testing.T) {
	mem := &inMemoryAccount{account: store.Account{ID: "acc-1", Balance: 100}}
	executor := NewExecutor(mem, stubLedgerStore{})
	if _, err := executor.CreditTx(context.Background(), nil, "missing", 100, "r", "ref"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// lockedAccountStore emulates the row lock GetForUpdate takes on
// Postgres: the lock is held from the read until the matching
// UpdateBalance, so concurrent executors serialize their
// read-modify-write exactly as FOR UPDATE serializes it. Callers must
// always reach UpdateBalance; the stress test sizes its debits so they
// never fail.
type lockedAccountStore struct {
	mu      sync.Mutex
	account store.Account
}

func (m *lockedAccountStore) GetForUpdate(_ context.Context, _ store.Getter, accountID string) (store.Account, error) {
	m.mu.Lock()
	if accountID != m.account.ID {
		m.mu.Unlock()
		return store.Account{}, sql.ErrNoRows
	}
	return m.account, nil
}

func (m *lockedAccountStore) UpdateBalance(_ context.Context, _ store.Execer, _ string, balance int64) error {
	m.account.Balance = balance
	m.mu.Unlock()
	return nil
}

func TestExecutorConcurrentMutationsConserveBalance(t *testing.T) {
	const (
		workers      = 16
		opsPerWorker = 25
		creditAmount = 700
		debitAmount  = 300
		initial      = int64(1_000_000)
	)
	mem := &lockedAccountStore{account: store.Account{ID: "acc-1", Balance: initial}}
	var ledgerMu sync.Mutex
	var ledgerSum int64
	var entries int
	executor := NewExecutor(mem, stubLedgerStore{
		insertFn: func(_ context.Context, _ store.Execer, entry store.LedgerEntryInput) error {
			ledgerMu.Lock()
			ledgerSum += entry.Amount
			entries++
			ledgerMu.Unlock()
			return nil
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		debit := i%2 == 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerWorker; j++ {
				var err error
				if debit {
					_, err = executor.DebitTx(context.Background(), nil, "acc-1", debitAmount, "subscription-purchase", "ref")
				} else {
					_, err = executor.CreditTx(context.Background(), nil, "acc-1", creditAmount, "slip-topup", "ref")
				}
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	wantDelta := int64(workers/2*opsPerWorker) * (creditAmount - debitAmount)
	if mem.account.Balance != initial+wantDelta {
		t.Fatalf("expected balance %d, got %d", initial+wantDelta, mem.account.Balance)
	}
	if ledgerSum != wantDelta {
		t.Fatalf("ledger sum %d does not match balance delta %d", ledgerSum, wantDelta)
	}
	if entries != workers*opsPerWorker {
		t.Fatalf("expected %d ledger entries, got %d", workers*opsPerWorker, entries)
	}
}
