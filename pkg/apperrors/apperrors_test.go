package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderErrorUnwrap(t *testing.T) {
	err := NewProviderError("github", ErrProviderTimeout, context.DeadlineExceeded)

	assert.ErrorIs(t, err, ErrProviderTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrProviderNotFound)
	assert.Equal(t, "github: provider timeout: context deadline exceeded", err.Error())

	var providerErr *ProviderError
	wrapped := fmt.Errorf("refresh failed: %w", err)
	assert.True(t, errors.As(wrapped, &providerErr))
	assert.Equal(t, "github", providerErr.Provider)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "not found", err: NewProviderError("leetcode", ErrProviderNotFound, nil), expected: "provider_not_found"},
		{name: "rate limited", err: fmt.Errorf("x: %w", ErrProviderRateLimited), expected: "provider_rate_limited"},
		{name: "store", err: fmt.Errorf("ping: %w", ErrStoreUnavailable), expected: "store_unavailable"},
		{name: "validation", err: ErrValidation, expected: "validation"},
		{name: "other", err: errors.New("boom"), expected: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}
