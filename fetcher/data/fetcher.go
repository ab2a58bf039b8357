package data

import (
	githubfetcher "coderanker/fetcher/data/github"
	leetcodefetcher "coderanker/fetcher/data/leetcode"
	"coderanker/fetcher/requests"
	"coderanker/pkg/config"
)

// ProviderFetcher groups the clients of every statistics provider.
type ProviderFetcher struct {
	GitHub   *githubfetcher.Fetcher
	LeetCode *leetcodefetcher.Fetcher
}

// NewProviderFetcher creates the provider clients, each one with its own limiter.
// The limiters are shared by every caller of the returned fetcher.
func NewProviderFetcher(cfg config.ProvidersConfig) *ProviderFetcher {
	githubLimiter := requests.NewRateLimiter(githubfetcher.Provider, cfg.GitHubLimit)
	leetcodeLimiter := requests.NewRateLimiter(leetcodefetcher.Provider, cfg.LeetCodeLimit)

	return &ProviderFetcher{
		GitHub:   githubfetcher.NewFetcher(cfg, githubLimiter),
		LeetCode: leetcodefetcher.NewFetcher(cfg, leetcodeLimiter),
	}
}
