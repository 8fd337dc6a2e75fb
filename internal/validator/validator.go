package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidEmail         = errors.New("invalid email")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrInvalidAccountSuffix = errors.New("invalid account suffix")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	suffixRegex   = regexp.MustCompile(`^[0-9]{4}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

// ValidateAccountSuffix checks the last-4-digits form used to match
// transfer receipts against registered receiving accounts.
func ValidateAccountSuffix(suffix string) error {
	if !suffixRegex.MatchString(suffix) {
		return ErrInvalidAccountSuffix
	}
	return nil
}
