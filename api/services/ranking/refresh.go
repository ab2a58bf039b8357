package rankingservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"coderanker/api/dto"
	githubfetcher "coderanker/fetcher/data/github"
	leetcodefetcher "coderanker/fetcher/data/leetcode"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/database/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// SweepSummary counts the outcomes of a refresh sweep.
type SweepSummary struct {
	Attempted int
	Succeeded int
	Partial   int
	Failed    int
}

// Statistics returned by the providers of a single refresh.
type fetchedStats struct {
	github   *models.GitHubStats
	leetcode *models.LeetCodeStats
	failures []dto.ProviderFailure
}

// RefreshUser fetches the requested providers, persists what succeeded and recomputes the scores.
// Provider failures end up on the result, the error is only set for invalid requests or store failures.
// Every attempt is recorded on the refresh log.
func (rs *RankingService) RefreshUser(ctx context.Context, req RefreshRequest) (*RefreshResult, error) {
	result, err := rs.refreshUser(ctx, req)
	if err == nil && result.State == StatePersisted {
		result.advance(StateDone)
	}
	return result, err
}

// RefreshAndRank refreshes the user, optionally re-ranks everybody and notifies the clients.
func (rs *RankingService) RefreshAndRank(ctx context.Context, req RefreshRequest) (*RefreshResult, error) {
	previousRank := 0
	before, err := rs.RankRepository.GetRank(ctx, req.UserID)
	switch {
	case err == nil:
		previousRank = before.Rank
	case !errors.Is(err, apperrors.ErrEntryNotFound):
		rs.logger.Warnf("Couldn't load the rank of %s before the refresh: %v", req.UserID, err)
	}

	result, err := rs.refreshUser(ctx, req)
	if err != nil || result.State != StatePersisted {
		return result, err
	}
	result.PreviousRank = previousRank

	if req.ReRank {
		result.advance(StateReranking)

		summary, err := rs.ReRankAll(ctx)
		if err != nil {
			result.advance(StateFailed)
			return result, err
		}
		result.ReRanked = summary.Ranked
	}

	entry, err := rs.RankRepository.GetRank(ctx, req.UserID)
	if err != nil {
		rs.logger.Warnf("Couldn't load the rank of %s after the refresh: %v", req.UserID, err)
	} else {
		result.Entry = entry
		if entry.Rank > 0 && entry.Rank != previousRank {
			event := dto.RankChangeEvent{
				UserID:       req.UserID,
				PreviousRank: previousRank,
				Rank:         entry.Rank,
				TotalScore:   entry.TotalScore,
			}
			if previousRank > 0 {
				event.RankChange = previousRank - entry.Rank
			}
			rs.notifier.NotifyRankChange(ctx, event)
		}
	}

	rs.notifier.NotifyUserStatsUpdated(ctx, req.UserID)
	result.advance(StateDone)

	return result, nil
}

// RefreshActiveUsers refreshes the users that logged in recently, with bounded batch and concurrency.
// Each user is independent, a failed refresh never stops the sweep.
func (rs *RankingService) RefreshActiveUsers(ctx context.Context) (*SweepSummary, error) {
	ctx, span := rs.tracer.Start(ctx, "RankingService.RefreshActiveUsers")
	defer span.End()

	since := rs.now().Add(-rs.cfg.ActiveWindow)
	profiles, err := rs.ProfileRepository.ListActive(ctx, since, rs.cfg.SweepBatchSize)
	if err != nil {
		span.RecordError(err)
		return nil, storeError("failed to list the active users", err)
	}

	summary := &SweepSummary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rs.cfg.SweepConcurrency)

	for _, profile := range profiles {
		req, ok := sweepRequest(profile)
		if !ok {
			continue
		}

		g.Go(func() error {
			result, err := rs.RefreshUser(gctx, req)

			mu.Lock()
			defer mu.Unlock()

			summary.Attempted++
			switch {
			case err != nil:
				summary.Failed++
				rs.logger.Warnf("Failed to refresh user %s: %v", req.UserID, err)
			case result.Status == models.RefreshSuccess:
				summary.Succeeded++
			case result.Status == models.RefreshPartial:
				summary.Partial++
			default:
				summary.Failed++
			}

			return nil
		})
	}

	// Goroutines never return errors.
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("sweep.attempted", summary.Attempted),
		attribute.Int("sweep.failed", summary.Failed),
	)

	return summary, nil
}

// Build the refresh of every provider linked on the profile.
func sweepRequest(profile *models.Profile) (RefreshRequest, bool) {
	req := RefreshRequest{
		UserID:           profile.UserID,
		GithubUsername:   profile.GitHub(),
		LeetcodeUsername: profile.LeetCode(),
	}

	switch {
	case req.GithubUsername != "" && req.LeetcodeUsername != "":
		req.Type = models.RefreshBoth
	case req.GithubUsername != "":
		req.Type = models.RefreshGitHub
	case req.LeetcodeUsername != "":
		req.Type = models.RefreshLeetCode
	default:
		return req, false
	}

	return req, true
}

// Run the refresh up to the persisted state, recording the attempt.
func (rs *RankingService) refreshUser(ctx context.Context, req RefreshRequest) (result *RefreshResult, err error) {
	ctx, span := rs.tracer.Start(ctx, "RankingService.RefreshUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID), attribute.String("refresh.type", string(req.Type)))

	start := rs.now()
	result = newRefreshResult(req)

	defer func() {
		result.Duration = rs.now().Sub(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		rs.recordRefresh(ctx, result, err)
	}()

	if err := validateRequest(req); err != nil {
		result.Status = models.RefreshFailed
		result.advance(StateFailed)
		return result, err
	}

	result.advance(StateFetchingProviderData)
	fetched := rs.fetchProviders(ctx, req)
	result.Failures = fetched.failures

	// Persist every provider that answered, even when the other one failed.
	syncedAt := rs.now()
	if fetched.github != nil {
		fetched.github.UserID = req.UserID
		fetched.github.SyncedAt = syncedAt
		if err := rs.StatsRepository.UpsertGitHub(ctx, fetched.github); err != nil {
			result.Status = models.RefreshFailed
			result.advance(StateFailed)
			return result, storeError("failed to save the github stats", err)
		}
	}
	if fetched.leetcode != nil {
		fetched.leetcode.UserID = req.UserID
		fetched.leetcode.SyncedAt = syncedAt
		if err := rs.StatsRepository.UpsertLeetCode(ctx, fetched.leetcode); err != nil {
			result.Status = models.RefreshFailed
			result.advance(StateFailed)
			return result, storeError("failed to save the leetcode stats", err)
		}
	}

	if fetched.github == nil && fetched.leetcode == nil {
		result.Status = models.RefreshFailed
		result.advance(StateFailed)
		return result, nil
	}

	result.advance(StateScoring)

	// Score from the stored snapshots, so a single provider refresh keeps the other one.
	leetcode, err := rs.StatsRepository.GetLeetCode(ctx, req.UserID)
	if err != nil {
		result.Status = models.RefreshFailed
		result.advance(StateFailed)
		return result, storeError("failed to load the leetcode stats", err)
	}
	github, err := rs.StatsRepository.GetGitHub(ctx, req.UserID)
	if err != nil {
		result.Status = models.RefreshFailed
		result.advance(StateFailed)
		return result, storeError("failed to load the github stats", err)
	}

	scores := rs.calculator.Calculate(leetcode, github)
	if err := rs.RankRepository.UpsertScore(ctx, req.UserID, scores, syncedAt); err != nil {
		result.Status = models.RefreshFailed
		result.advance(StateFailed)
		return result, storeError("failed to save the scores", err)
	}

	result.Scores = &scores
	result.Status = models.RefreshSuccess
	if len(result.Failures) > 0 {
		result.Status = models.RefreshPartial
	}
	result.advance(StatePersisted)

	return result, nil
}

// Fetch the requested providers concurrently.
func (rs *RankingService) fetchProviders(ctx context.Context, req RefreshRequest) *fetchedStats {
	fetched := &fetchedStats{}
	var githubErr, leetcodeErr error
	var wg sync.WaitGroup

	if req.Type.IncludesGitHub() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetched.github, githubErr = rs.github.FetchStats(ctx, req.GithubUsername)
		}()
	}

	if req.Type.IncludesLeetCode() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetched.leetcode, leetcodeErr = rs.leetcode.FetchStats(ctx, req.LeetcodeUsername)
		}()
	}

	wg.Wait()

	if req.Type.IncludesGitHub() {
		rs.recordProvider(fetched, githubfetcher.Provider, githubErr)
		if githubErr != nil {
			fetched.github = nil
		}
	}
	if req.Type.IncludesLeetCode() {
		rs.recordProvider(fetched, leetcodefetcher.Provider, leetcodeErr)
		if leetcodeErr != nil {
			fetched.leetcode = nil
		}
	}

	return fetched
}

func (rs *RankingService) recordProvider(fetched *fetchedStats, provider string, err error) {
	if err == nil {
		rs.metrics.RecordRefresh(provider, string(models.RefreshSuccess))
		return
	}

	rs.metrics.RecordRefresh(provider, string(models.RefreshFailed))
	fetched.failures = append(fetched.failures, dto.ProviderFailure{
		Provider: provider,
		Kind:     apperrors.KindOf(err),
		Message:  err.Error(),
	})
}

// Append the attempt to the audit log. A failed write is only logged.
func (rs *RankingService) recordRefresh(ctx context.Context, result *RefreshResult, err error) {
	entry := &models.RefreshLog{
		UserID:     result.UserID,
		Type:       result.Type,
		Status:     result.Status,
		DurationMs: result.Duration.Milliseconds(),
	}
	if !entry.Type.Valid() {
		// The check constraint only accepts known types.
		entry.Type = models.RefreshBoth
	}

	switch {
	case err != nil:
		entry.ErrorKind = apperrors.KindOf(err)
		entry.Error = err.Error()
	case len(result.Failures) > 0:
		messages := make([]string, 0, len(result.Failures))
		for _, failure := range result.Failures {
			messages = append(messages, failure.Message)
		}
		entry.ErrorKind = result.Failures[0].Kind
		entry.Error = strings.Join(messages, "; ")
	}

	if err := rs.RefreshLogRepository.Create(ctx, entry); err != nil {
		rs.logger.Errorf("Failed to record the refresh of %s: %v", result.UserID, err)
	}
}

// Validate the request before any provider call.
func validateRequest(req RefreshRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown refresh type %q", apperrors.ErrValidation, req.Type)
	}
	if req.Type.IncludesGitHub() {
		if err := githubfetcher.ValidateUsername(req.GithubUsername); err != nil {
			return err
		}
	}
	if req.Type.IncludesLeetCode() {
		if err := leetcodefetcher.ValidateUsername(req.LeetcodeUsername); err != nil {
			return err
		}
	}
	return nil
}
