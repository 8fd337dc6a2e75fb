package services

import "errors"

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrDuplicateTransaction = errors.New("transaction reference already credited")
	ErrAccountMismatch      = errors.New("transfer does not match a registered receiving account")
	ErrNotFound             = errors.New("not found")
	ErrSubscriptionActive   = errors.New("subscription already active")
	ErrUnknownPlan          = errors.New("unknown subscription plan")
	ErrMissingReference     = errors.New("missing transaction reference")
)
