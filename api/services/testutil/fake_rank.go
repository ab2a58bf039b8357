package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"coderanker/api/filters"
	rankrepo "coderanker/api/repositories/rank"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/database/models"
)

// FakeRankRepository is an in memory rank store with the same row semantics as the database one.
type FakeRankRepository struct {
	mu      sync.Mutex
	entries map[string]*models.RankEntry

	// Users failing on BulkReRank.
	FailRows map[string]error
	// Returned by every call when set.
	Unavailable bool
}

// NewFakeRankRepository creates an empty fake store.
func NewFakeRankRepository() *FakeRankRepository {
	return &FakeRankRepository{
		entries:  make(map[string]*models.RankEntry),
		FailRows: make(map[string]error),
	}
}

func (f *FakeRankRepository) unavailable() error {
	if f.Unavailable {
		return fmt.Errorf("%w: connection refused", apperrors.ErrStoreUnavailable)
	}
	return nil
}

func (f *FakeRankRepository) UpsertScore(ctx context.Context, userID string, scores models.Scores, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unavailable(); err != nil {
		return err
	}

	entry, ok := f.entries[userID]
	if !ok {
		entry = &models.RankEntry{UserID: userID}
		f.entries[userID] = entry
	}
	entry.TotalScore = scores.TotalScore
	entry.LeetCodeScore = scores.LeetCodeScore
	entry.GithubScore = scores.GithubScore
	entry.ScoreUpdatedAt = at
	entry.LastUpdated = at

	return nil
}

func (f *FakeRankRepository) ListForRanking(ctx context.Context) ([]rankrepo.RankingRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unavailable(); err != nil {
		return nil, err
	}

	rows := make([]rankrepo.RankingRow, 0, len(f.entries))
	for _, entry := range f.entries {
		rows = append(rows, rankrepo.RankingRow{
			UserID:         entry.UserID,
			TotalScore:     entry.TotalScore,
			ScoreUpdatedAt: entry.ScoreUpdatedAt,
		})
	}
	return rows, nil
}

func (f *FakeRankRepository) BulkReRank(ctx context.Context, orderedUserIDs []string, at time.Time) (*rankrepo.ReRankResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := &rankrepo.ReRankResult{}
	if err := f.unavailable(); err != nil {
		return result, err
	}

	newRank := 1
	for _, userID := range orderedUserIDs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
		if err, ok := f.FailRows[userID]; ok {
			result.Failed = append(result.Failed, rankrepo.RowError{UserID: userID, Err: err})
			newRank++
			continue
		}

		entry, ok := f.entries[userID]
		if !ok {
			result.Skipped++
			continue
		}

		entry.PreviousRank = entry.Rank
		entry.RankChange = 0
		if entry.Rank > 0 {
			entry.RankChange = entry.Rank - newRank
		}
		entry.Rank = newRank
		entry.LastUpdated = at
		result.Updated++
		newRank++
	}

	return result, nil
}

func (f *FakeRankRepository) GetRank(ctx context.Context, userID string) (*models.RankEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unavailable(); err != nil {
		return nil, err
	}

	entry, ok := f.entries[userID]
	if !ok {
		return nil, apperrors.ErrEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (f *FakeRankRepository) GetTop(ctx context.Context, n int) ([]*models.RankEntry, error) {
	entries, err := f.sorted()
	if err != nil {
		return nil, err
	}
	return entries[:min(n, len(entries))], nil
}

func (f *FakeRankRepository) GetPage(ctx context.Context, filter *filters.LeaderboardFilter) ([]*models.RankEntry, error) {
	entries, err := f.sorted()
	if err != nil {
		return nil, err
	}

	start := min(filter.Offset(), len(entries))
	end := min(start+filter.Limit, len(entries))
	return entries[start:end], nil
}

func (f *FakeRankRepository) CountMatching(ctx context.Context, filter *filters.LeaderboardFilter) (int64, error) {
	entries, err := f.sorted()
	if err != nil {
		return 0, err
	}
	return int64(len(entries)), nil
}

func (f *FakeRankRepository) Aggregate(ctx context.Context) (*rankrepo.Aggregate, error) {
	entries, err := f.sorted()
	if err != nil {
		return nil, err
	}

	aggregate := &rankrepo.Aggregate{TotalUsers: int64(len(entries))}
	for _, entry := range entries {
		aggregate.TotalScore += int64(entry.TotalScore)
	}
	if len(entries) > 0 {
		aggregate.AverageScore = float64(aggregate.TotalScore) / float64(len(entries))
	}
	return aggregate, nil
}

func (f *FakeRankRepository) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unavailable()
}

// Delete removes an entry, as a user deletion would.
func (f *FakeRankRepository) Delete(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
}

// Entries returns a copy of every entry, ranked first.
func (f *FakeRankRepository) Entries() []*models.RankEntry {
	entries, _ := f.sorted()
	return entries
}

// Copies sorted by rank with the unranked entries last.
func (f *FakeRankRepository) sorted() ([]*models.RankEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unavailable(); err != nil {
		return nil, err
	}

	entries := make([]*models.RankEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		copied := *entry
		entries = append(entries, &copied)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.Rank == 0) != (b.Rank == 0) {
			return b.Rank == 0
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.UserID < b.UserID
	})

	return entries, nil
}
