package rankrepo

import (
	"context"
	"testing"
	"time"

	"coderanker/api/filters"
	"coderanker/internal/testutil"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/database/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewRankRepository(t *testing.T) {
	repository := NewRankRepository(&gorm.DB{})
	assert.NotNil(t, repository)
}

func userIDs(entries []*models.RankEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	return ids
}

func TestRankRepository(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	repository := NewRankRepository(db)
	ctx := context.Background()

	t.Run("list for ranking uses the canonical order", func(t *testing.T) {
		seedRankTestData(t, db)

		rows, err := repository.ListForRanking(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.UserID)
		}
		// u1 and u2 tie on score, u1 was updated last.
		assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, ids)
	})

	t.Run("upsert creates an unranked entry", func(t *testing.T) {
		seedRankTestData(t, db)

		err := repository.UpsertScore(ctx, "u9", models.Scores{LeetCodeScore: 160, TotalScore: 112}, fixedDate)
		require.NoError(t, err)

		entry, err := repository.GetRank(ctx, "u9")
		require.NoError(t, err)
		assert.Equal(t, 112, entry.TotalScore)
		assert.Equal(t, 160, entry.LeetCodeScore)
		assert.Equal(t, 0, entry.Rank)
		assert.Equal(t, 0, entry.PreviousRank)
	})

	t.Run("upsert keeps the rank fields", func(t *testing.T) {
		seedRankTestData(t, db)
		at := fixedDate.Add(2 * time.Hour)

		err := repository.UpsertScore(ctx, "u3", models.Scores{LeetCodeScore: 200, GithubScore: 10, TotalScore: 143}, at)
		require.NoError(t, err)
		// Same snapshot again, no drift.
		err = repository.UpsertScore(ctx, "u3", models.Scores{LeetCodeScore: 200, GithubScore: 10, TotalScore: 143}, at)
		require.NoError(t, err)

		entry, err := repository.GetRank(ctx, "u3")
		require.NoError(t, err)
		assert.Equal(t, 143, entry.TotalScore)
		assert.Equal(t, 3, entry.Rank)
		assert.Equal(t, 5, entry.PreviousRank)
		assert.True(t, at.Equal(entry.ScoreUpdatedAt))
	})

	t.Run("get rank of unknown user", func(t *testing.T) {
		seedRankTestData(t, db)

		entry, err := repository.GetRank(ctx, "ghost")

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, apperrors.ErrEntryNotFound)
	})

	t.Run("bulk re-rank assigns dense ranks and skips stale rows", func(t *testing.T) {
		seedRankTestData(t, db)

		result, err := repository.BulkReRank(ctx, []string{"u3", "gone", "u1", "u2", "u4"}, fixedDate)
		require.NoError(t, err)

		assert.Equal(t, 4, result.Updated)
		assert.Equal(t, 1, result.Skipped)
		assert.Empty(t, result.Failed)

		u3, err := repository.GetRank(ctx, "u3")
		require.NoError(t, err)
		assert.Equal(t, 1, u3.Rank)
		assert.Equal(t, 3, u3.PreviousRank)
		assert.Equal(t, 2, u3.RankChange)

		u1, err := repository.GetRank(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, u1.Rank)

		u4, err := repository.GetRank(ctx, "u4")
		require.NoError(t, err)
		// The stale row takes no position, u4 was never ranked before.
		assert.Equal(t, 4, u4.Rank)
		assert.Equal(t, 0, u4.PreviousRank)
		assert.Equal(t, 0, u4.RankChange)
	})

	t.Run("get top puts unranked last", func(t *testing.T) {
		seedRankTestData(t, db)

		entries, err := repository.GetTop(ctx, 10)
		require.NoError(t, err)

		assert.Equal(t, []string{"u2", "u1", "u3", "u4"}, userIDs(entries))
	})

	t.Run("get page with filters", func(t *testing.T) {
		seedRankTestData(t, db)
		minScore := 60

		tests := []struct {
			name     string
			params   filters.LeaderboardQueryParams
			expected []string
			count    int64
		}{
			{
				name:     "default sort",
				params:   filters.LeaderboardQueryParams{Page: 1, Limit: 2},
				expected: []string{"u1", "u2"},
				count:    4,
			},
			{
				name:     "second page",
				params:   filters.LeaderboardQueryParams{Page: 2, Limit: 2},
				expected: []string{"u3", "u4"},
				count:    4,
			},
			{
				name:     "platform github",
				params:   filters.LeaderboardQueryParams{Page: 1, Limit: 10, Platform: "github"},
				expected: []string{"u1", "u2"},
				count:    2,
			},
			{
				name:     "search by username",
				params:   filters.LeaderboardQueryParams{Page: 1, Limit: 10, Search: "ana"},
				expected: []string{"u1", "u4"},
				count:    2,
			},
			{
				name:     "search wildcards match literally",
				params:   filters.LeaderboardQueryParams{Page: 1, Limit: 10, Search: "%"},
				expected: []string{},
				count:    0,
			},
			{
				name:     "search underscore matches literally",
				params:   filters.LeaderboardQueryParams{Page: 1, Limit: 10, Search: "an_"},
				expected: []string{},
				count:    0,
			},
			{
				name:     "min score and rank ascending",
				params:   filters.LeaderboardQueryParams{Page: 1, Limit: 10, SortBy: "rank", Order: "asc", MinScore: &minScore},
				expected: []string{"u2", "u1", "u3"},
				count:    3,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				filter := filters.NewLeaderboardFilter(&tt.params)

				entries, err := repository.GetPage(ctx, filter)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, userIDs(entries))

				count, err := repository.CountMatching(ctx, filter)
				require.NoError(t, err)
				assert.Equal(t, tt.count, count)
			})
		}
	})

	t.Run("aggregate", func(t *testing.T) {
		seedRankTestData(t, db)

		aggregate, err := repository.Aggregate(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(4), aggregate.TotalUsers)
		assert.Equal(t, int64(750), aggregate.TotalScore)
		assert.InDelta(t, 187.5, aggregate.AverageScore, 0.001)
	})

	t.Run("closed database is unavailable", func(t *testing.T) {
		require.NoError(t, repository.Ping(ctx))

		sqlDB, _ := db.DB()
		sqlDB.Close()

		err := repository.Ping(ctx)
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

		_, err = repository.BulkReRank(ctx, []string{"u1"}, fixedDate)
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})
}
