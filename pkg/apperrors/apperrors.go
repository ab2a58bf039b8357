package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds of the ranking pipeline.
var (
	ErrProviderNotFound    = errors.New("provider user not found")
	ErrProviderRateLimited = errors.New("provider rate limit exceeded")
	ErrProviderTimeout     = errors.New("provider timeout")
	ErrProviderUnknown     = errors.New("provider error")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrEntryNotFound       = errors.New("entry not found")
	ErrValidation          = errors.New("validation error")
	ErrTooManyRequests     = errors.New("too many requests")
)

// ProviderError is a failure returned by a statistics provider.
type ProviderError struct {
	Provider string
	Kind     error
	Err      error
}

// NewProviderError wraps err into a provider error of the given kind.
func NewProviderError(provider string, kind error, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns a stable label for the error, used on audit logs and metrics.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProviderNotFound):
		return "provider_not_found"
	case errors.Is(err, ErrProviderRateLimited):
		return "provider_rate_limited"
	case errors.Is(err, ErrProviderTimeout):
		return "provider_timeout"
	case errors.Is(err, ErrProviderUnknown):
		return "provider_unknown"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrEntryNotFound):
		return "entry_not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTooManyRequests):
		return "too_many_requests"
	default:
		return "internal"
	}
}
