package leetcodefetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"coderanker/fetcher/requests"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/config"
	"coderanker/pkg/database/models"
	"coderanker/pkg/messages"
)

const (
	Provider = "leetcode"

	maxUsernameLength = 50
	statusError       = "error"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// Fetcher requests the LeetCode stats API.
type Fetcher struct {
	limiter *requests.RateLimiter
	baseURL string
	timeout time.Duration
}

// NewFetcher creates a LeetCode fetcher.
func NewFetcher(cfg config.ProvidersConfig, limiter *requests.RateLimiter) *Fetcher {
	return &Fetcher{
		limiter: limiter,
		baseURL: cfg.LeetCodeBaseURL,
		timeout: cfg.Timeout,
	}
}

// ValidateUsername checks the username format without any request.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: "+messages.UsernameNotProvided, apperrors.ErrValidation, Provider)
	}
	if len(username) > maxUsernameLength || !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: "+messages.InvalidUsernameFormat, apperrors.ErrValidation, Provider)
	}
	return nil
}

// FetchStats gets the solved problems of the user.
// The returned stats have no user id, it's set by the caller.
func (f *Fetcher) FetchStats(ctx context.Context, username string) (*models.LeetCodeStats, error) {
	data, err := f.fetch(ctx, username)
	if err != nil {
		return nil, err
	}

	return &models.LeetCodeStats{
		TotalSolved:        data.TotalSolved,
		EasySolved:         data.EasySolved,
		MediumSolved:       data.MediumSolved,
		HardSolved:         data.HardSolved,
		AcceptanceRate:     data.AcceptanceRate,
		Ranking:            data.Ranking,
		Reputation:         data.Reputation,
		ContributionPoints: data.ContributionPoints,
	}, nil
}

// Validate verifies the format and that the user exists on LeetCode.
func (f *Fetcher) Validate(ctx context.Context, username string) error {
	_, err := f.fetch(ctx, username)
	return err
}

func (f *Fetcher) fetch(ctx context.Context, username string) (*statsResponse, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s", f.baseURL, url.PathEscape(username))
	resp, err := requests.Request(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, requests.TransportError(Provider, err, endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, requests.StatusError(Provider, resp.StatusCode, endpoint)
	}

	var data statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.NewProviderError(Provider, apperrors.ErrProviderUnknown,
			fmt.Errorf(messages.FailedToParseMsg+": %w", err))
	}

	// The API answers 200 with an error status for unknown users.
	if data.Status == statusError {
		message := data.Message
		if message == "" {
			message = "user does not exist"
		}
		return nil, apperrors.NewProviderError(Provider, apperrors.ErrProviderNotFound, errors.New(message))
	}

	return &data, nil
}
