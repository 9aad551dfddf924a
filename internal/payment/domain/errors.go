package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid_input")
	ErrConfiguration    = errors.New("payment_configuration_error")
	ErrMissingSignature = errors.New("missing_signature")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrEventIgnored     = errors.New("event_ignored")
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrProvider         = errors.New("provider_error")
	ErrStoreWrite       = errors.New("store_write_failed")
	ErrUnrecognized     = errors.New("unrecognized_metadata")
)

// ProviderError carries a non-2xx response from a payment provider. The
// message is for logs only; callers show the buyer a generic failure.
type ProviderError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: provider returned %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: provider returned %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}
