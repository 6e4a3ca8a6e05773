package market

import "errors"

var (
	// ErrTransientFetch marks upstream network/HTTP failures and timeouts. Retried on the next tick only.
	ErrTransientFetch = errors.New("transient fetch failure")
	// ErrDecode marks an upstream payload with an unexpected shape.
	ErrDecode = errors.New("decode failure")
	// ErrValidation rejects malformed rule or entity input at creation time.
	ErrValidation = errors.New("validation failed")
	// ErrDispatch marks a notification sink failure.
	ErrDispatch = errors.New("dispatch failed")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoData means no listings matched an aggregate query.
	ErrNoData = errors.New("no data")
)
