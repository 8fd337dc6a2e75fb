package services

import (
	"context"

	"storefront/internal/store"
)

type ReceivingAccountStore interface {
	ListActive(ctx context.Context) ([]store.ReceivingAccount, error)
}

// AccountMatcher confirms a verified transfer actually landed on one of
// the admin-registered receiving accounts before any credit happens.
type AccountMatcher struct {
	receiving ReceivingAccountStore
}

func NewAccountMatcher(receiving ReceivingAccountStore) *AccountMatcher {
	return &AccountMatcher{receiving: receiving}
}

// Match accepts a transfer when the receiver account suffix equals a
// registered suffix OR the receiver display name equals a registered
// receiver name. Either signal alone suffices: bank-reported display
// names are not always the legal receiver name, so requiring both would
// reject legitimate transfers.
func (m *AccountMatcher) Match(ctx context.Context, receiverSuffix, receiverName string) (store.ReceivingAccount, error) {
	accounts, err := m.receiving.ListActive(ctx)
	if err != nil {
		return store.ReceivingAccount{}, err
	}
	for _, account := range accounts {
		if receiverSuffix != "" && account.Suffix == receiverSuffix {
			return account, nil
		}
		if receiverName != "" && account.ReceiverName == receiverName {
			return account, nil
		}
	}
	return store.ReceivingAccount{}, ErrAccountMismatch
}
