package githubfetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"coderanker/fetcher/requests"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/config"
	"coderanker/pkg/database/models"
	"coderanker/pkg/messages"
)

const (
	Provider = "github"

	maxRepoPages        = 3
	reposPerPage        = 100
	contributionsSample = 5
	maxUsernameLength   = 39
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)*$`)

// Fetcher requests the GitHub REST API.
type Fetcher struct {
	limiter *requests.RateLimiter // Pointer to the limiter, since it's shared.
	baseURL string
	headers map[string]string
	timeout time.Duration
}

// NewFetcher creates a GitHub fetcher.
func NewFetcher(cfg config.ProvidersConfig, limiter *requests.RateLimiter) *Fetcher {
	headers := map[string]string{
		"User-Agent": "CodeRanker-API",
		"Accept":     "application/vnd.github.v3+json",
	}
	if cfg.GitHubToken != "" {
		headers["Authorization"] = "token " + cfg.GitHubToken
	}

	return &Fetcher{
		limiter: limiter,
		baseURL: cfg.GitHubBaseURL,
		headers: headers,
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

// FetchStats gets the profile and the repositories of the user and aggregates them.
// The returned stats have no user id, it's set by the caller.
func (f *Fetcher) FetchStats(ctx context.Context, username string) (*models.GitHubStats, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var user userResponse
	if err := f.get(ctx, fmt.Sprintf("%s/users/%s", f.baseURL, username), nil, &user); err != nil {
		return nil, err
	}

	repos, err := f.getRepos(ctx, username)
	if err != nil {
		return nil, err
	}

	stats := &models.GitHubStats{
		PublicRepos: user.PublicRepos,
		Followers:   user.Followers,
		Following:   user.Following,
		Avatar:      user.AvatarURL,
		ProfileUrl:  user.HTMLURL,
	}
	for _, repo := range repos {
		stats.TotalStars += repo.StargazersCount
		stats.TotalForks += repo.ForksCount
	}
	stats.Contributions = f.estimateContributions(ctx, username, repos)

	return stats, nil
}

// Validate verifies the format and that the user exists on GitHub.
func (f *Fetcher) Validate(ctx context.Context, username string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var user userResponse
	return f.get(ctx, fmt.Sprintf("%s/users/%s", f.baseURL, username), nil, &user)
}

// Get every repository page until an empty or partial page, up to the max pages.
func (f *Fetcher) getRepos(ctx context.Context, username string) ([]repoResponse, error) {
	var allRepos []repoResponse
	url := fmt.Sprintf("%s/users/%s/repos", f.baseURL, username)

	for page := 1; page <= maxRepoPages; page++ {
		params := map[string]string{
			"per_page": strconv.Itoa(reposPerPage),
			"page":     strconv.Itoa(page),
		}

		var repos []repoResponse
		if err := f.get(ctx, url, params, &repos); err != nil {
			return nil, err
		}

		allRepos = append(allRepos, repos...)
		if len(repos) < reposPerPage {
			break
		}
	}

	return allRepos, nil
}

// Estimate the contributions from the authored commits on the first repositories.
// A repository with commits from the user counts its stars, or 1 without stars.
// The estimate is never lower than two per repository.
func (f *Fetcher) estimateContributions(ctx context.Context, username string, repos []repoResponse) int {
	total := 0

	sample := repos
	if len(sample) > contributionsSample {
		sample = sample[:contributionsSample]
	}

	for _, repo := range sample {
		params := map[string]string{
			"author":   username,
			"per_page": "1",
		}

		var commits []json.RawMessage
		url := fmt.Sprintf("%s/repos/%s/%s/commits", f.baseURL, username, repo.Name)
		if err := f.get(ctx, url, params, &commits); err != nil {
			// Empty repositories answer 409, just skip them.
			continue
		}

		if len(commits) > 0 {
			total += max(repo.StargazersCount, 1)
		}
	}

	return max(total, len(repos)*2)
}

// Do a rate limited GET and decode the body into out.
func (f *Fetcher) get(ctx context.Context, url string, params map[string]string, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := requests.Request(ctx, http.MethodGet, url, f.headers, params)
	if err != nil {
		return requests.TransportError(Provider, err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return requests.StatusError(Provider, resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewProviderError(Provider, apperrors.ErrProviderUnknown,
			fmt.Errorf(messages.FailedToParseMsg+": %w", err))
	}

	return nil
}
