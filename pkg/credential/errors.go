package credential

import "errors"

var (
	ErrInvalidCredential = errors.New("credential: invalid credential")
	ErrExpiredCredential = errors.New("credential: credential expired")
	ErrUnverifiedAccount = errors.New("credential: account is not verified")
	ErrStoreUnavailable  = errors.New("credential: store unavailable")

	// ErrNotFound is returned by Store implementations for missing rows.
	ErrNotFound = errors.New("credential: not found")
)
