package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownIdentityProvider is returned when an identity provider entity id is not known
	ErrUnknownIdentityProvider = errors.New("unknown identity provider")

	// ErrUnknownServiceProvider is returned when a service provider entity id is not known
	ErrUnknownServiceProvider = errors.New("unknown service provider")

	// ErrUnknownService is returned when a service id is not visible for an identity provider
	ErrUnknownService = errors.New("unknown service")
)

// UnknownIdentityProvider wraps ErrUnknownIdentityProvider with the entity id
func UnknownIdentityProvider(entityID string) error {
	return fmt.Errorf("%w: %q", ErrUnknownIdentityProvider, entityID)
}

// UnknownServiceProvider wraps ErrUnknownServiceProvider with the entity id
func UnknownServiceProvider(entityID string) error {
	return fmt.Errorf("%w: %q", ErrUnknownServiceProvider, entityID)
}

// UnknownService wraps ErrUnknownService with the service id
func UnknownService(id int64) error {
	return fmt.Errorf("%w: non-existent service id %d", ErrUnknownService, id)
}

// IsNotFound reports whether err is one of the unknown-entity errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownIdentityProvider) ||
		errors.Is(err, ErrUnknownServiceProvider) ||
		errors.Is(err, ErrUnknownService)
}
