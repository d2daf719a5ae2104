package service

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateAccount     = errors.New("an account with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidExternalToken = errors.New("external identity token rejected")
	ErrStorageUnavailable   = errors.New("credential store unavailable")
	ErrUserNotFound         = errors.New("user not found")
	ErrUnknownTool          = errors.New("unknown tool")
	ErrProtectedAccount     = errors.New("the bootstrap admin cannot be unapproved")
)

// storageErr marks err as a credential store failure unless it already is.
func storageErr(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

// passThrough returns err unchanged when it is one of the service's own
// sentinels and treats anything else as a store failure. Used on errors
// coming back out of a transaction.
func passThrough(err error) error {
	for _, sentinel := range []error{
		ErrDuplicateAccount,
		ErrInvalidCredentials,
		ErrInvalidExternalToken,
		ErrUserNotFound,
		ErrUnknownTool,
		ErrProtectedAccount,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return storageErr(err)
}
