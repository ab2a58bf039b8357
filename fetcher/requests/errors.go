package requests

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"coderanker/pkg/apperrors"
	"coderanker/pkg/messages"
)

// StatusError maps a non 200 status code into a provider error.
func StatusError(provider string, statusCode int, url string) error {
	cause := fmt.Errorf(messages.BadStatusCodeMsg, statusCode, url)

	switch statusCode {
	case http.StatusNotFound:
		return apperrors.NewProviderError(provider, apperrors.ErrProviderNotFound, cause)
	case http.StatusForbidden, http.StatusTooManyRequests:
		return apperrors.NewProviderError(provider, apperrors.ErrProviderRateLimited, cause)
	default:
		return apperrors.NewProviderError(provider, apperrors.ErrProviderUnknown, cause)
	}
}

// TransportError maps a failed request into a provider error.
func TransportError(provider string, err error, url string) error {
	cause := fmt.Errorf(messages.RequestFailedMsg+": %w", url, err)

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewProviderError(provider, apperrors.ErrProviderTimeout, cause)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewProviderError(provider, apperrors.ErrProviderTimeout, cause)
	}

	return apperrors.NewProviderError(provider, apperrors.ErrProviderUnknown, cause)
}
