package registry

import "errors"

var (
	// ErrUnexpectedStatus is returned when the registry answers with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected registry response status")

	// ErrNoFallback is returned when upstream failed and no last-known-good payload exists
	ErrNoFallback = errors.New("no fallback payload available")
)
