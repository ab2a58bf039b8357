package rankrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coderanker/api/filters"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/database"
	"coderanker/pkg/database/models"
	"coderanker/pkg/messages"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Rows updated between two cancellation checks of a re-rank.
const reRankChunkSize = 200

// RankRepository is the public interface for accessing the rank entries.
type RankRepository interface {
	UpsertScore(ctx context.Context, userID string, scores models.Scores, at time.Time) error
	ListForRanking(ctx context.Context) ([]RankingRow, error)
	BulkReRank(ctx context.Context, orderedUserIDs []string, at time.Time) (*ReRankResult, error)
	GetRank(ctx context.Context, userID string) (*models.RankEntry, error)
	GetTop(ctx context.Context, n int) ([]*models.RankEntry, error)
	GetPage(ctx context.Context, filter *filters.LeaderboardFilter) ([]*models.RankEntry, error)
	CountMatching(ctx context.Context, filter *filters.LeaderboardFilter) (int64, error)
	Aggregate(ctx context.Context) (*Aggregate, error)
	Ping(ctx context.Context) error
}

// RankingRow is the minimal projection needed to order the leaderboard.
type RankingRow struct {
	UserID         string
	TotalScore     int
	ScoreUpdatedAt time.Time
}

// RowError is a single failed row of a re-rank.
type RowError struct {
	UserID string
	Err    error
}

// ReRankResult reports what a re-rank did to each row.
type ReRankResult struct {
	Updated int
	Skipped int
	Failed  []RowError
}

// Aggregate holds the global leaderboard numbers.
type Aggregate struct {
	TotalUsers   int64   `gorm:"column:total_users"`
	TotalScore   int64   `gorm:"column:total_score"`
	AverageScore float64 `gorm:"column:average_score"`
}

// rankRepository repository structure.
type rankRepository struct {
	db *gorm.DB
}

// NewRankRepository creates a rank repository.
func NewRankRepository(db *gorm.DB) RankRepository {
	return &rankRepository{db: db}
}

// UpsertScore sets the scores of the user, creating an unranked entry when missing.
// The single upsert statement lets the database serialize writes of the same user only.
func (r *rankRepository) UpsertScore(ctx context.Context, userID string, scores models.Scores, at time.Time) error {
	entry := &models.RankEntry{
		UserID:         userID,
		TotalScore:     scores.TotalScore,
		LeetCodeScore:  scores.LeetCodeScore,
		GithubScore:    scores.GithubScore,
		ScoreUpdatedAt: at,
		LastUpdated:    at,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_score",
			"leet_code_score",
			"github_score",
			"score_updated_at",
			"last_updated",
		}),
	}).Create(entry).Error

	return wrapStoreError(err)
}

// ListForRanking returns every entry on the canonical ranking order.
func (r *rankRepository) ListForRanking(ctx context.Context) ([]RankingRow, error) {
	var rows []RankingRow

	err := r.db.WithContext(ctx).
		Model(&models.RankEntry{}).
		Select("user_id, total_score, score_updated_at").
		Order("total_score DESC, score_updated_at DESC, user_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStoreError(err)
	}

	return rows, nil
}

// BulkReRank ranks the users in the given order, one independent update per row.
// Rows removed since the ordering was computed are skipped and take no position, so the ranks stay dense.
// A row that fails keeps its position, other row failures are collected.
// Only a connectivity failure aborts the run.
func (r *rankRepository) BulkReRank(ctx context.Context, orderedUserIDs []string, at time.Time) (*ReRankResult, error) {
	result := &ReRankResult{}

	if err := r.Ping(ctx); err != nil {
		return result, err
	}

	newRank := 1
	for start := 0; start < len(orderedUserIDs); start += reRankChunkSize {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}

		end := min(start+reRankChunkSize, len(orderedUserIDs))
		for i := start; i < end; i++ {
			userID := orderedUserIDs[i]

			res := r.db.WithContext(ctx).Exec(`
				UPDATE rank_entries
				SET previous_rank = rank,
				    rank = ?,
				    rank_change = CASE WHEN rank > 0 THEN rank - ? ELSE 0 END,
				    last_updated = ?
				WHERE user_id = ?`,
				newRank, newRank, at, userID,
			)

			if res.Error != nil {
				if database.IsConnectivityError(res.Error) {
					return result, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, res.Error)
				}
				result.Failed = append(result.Failed, RowError{UserID: userID, Err: res.Error})
				newRank++
				continue
			}

			if res.RowsAffected == 0 {
				result.Skipped++
				continue
			}
			result.Updated++
			newRank++
		}
	}

	return result, nil
}

// GetRank returns the entry of the user or ErrEntryNotFound.
func (r *rankRepository) GetRank(ctx context.Context, userID string) (*models.RankEntry, error) {
	var entry models.RankEntry

	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrEntryNotFound, messages.EntryNotRanked)
	}
	if err != nil {
		return nil, wrapStoreError(err)
	}

	return &entry, nil
}

// GetTop returns the best n entries, unranked entries last.
func (r *rankRepository) GetTop(ctx context.Context, n int) ([]*models.RankEntry, error) {
	var entries []*models.RankEntry

	err := r.db.WithContext(ctx).
		Order("CASE WHEN rank = 0 THEN 1 ELSE 0 END, rank ASC, total_score DESC, user_id ASC").
		Limit(n).
		Find(&entries).Error
	if err != nil {
		return nil, wrapStoreError(err)
	}

	return entries, nil
}

// GetPage returns a single filtered and sorted page of the leaderboard.
func (r *rankRepository) GetPage(ctx context.Context, filter *filters.LeaderboardFilter) ([]*models.RankEntry, error) {
	if filter == nil {
		return nil, errors.New(messages.FiltersNotNil)
	}
	var entries []*models.RankEntry

	direction := "DESC"
	if !filter.Descending {
		direction = "ASC"
	}

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RankEntry{}), filter)

	// Unranked entries are always at the end of a rank sort.
	if filter.SortColumn == "rank" {
		query = query.Order("CASE WHEN rank = 0 THEN 1 ELSE 0 END")
	}
	query = query.Order(fmt.Sprintf("%s %s", filter.SortColumn, direction)).Order("user_id ASC")

	err := query.Offset(filter.Offset()).Limit(filter.Limit).Find(&entries).Error
	if err != nil {
		return nil, wrapStoreError(err)
	}

	return entries, nil
}

// CountMatching counts the entries matching the filter, ignoring the pagination.
func (r *rankRepository) CountMatching(ctx context.Context, filter *filters.LeaderboardFilter) (int64, error) {
	if filter == nil {
		return 0, errors.New(messages.FiltersNotNil)
	}
	var count int64

	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.RankEntry{}), filter).Count(&count).Error
	if err != nil {
		return 0, wrapStoreError(err)
	}

	return count, nil
}

// Aggregate returns the count, sum and average of the total scores.
func (r *rankRepository) Aggregate(ctx context.Context) (*Aggregate, error) {
	var aggregate Aggregate

	err := r.db.WithContext(ctx).
		Model(&models.RankEntry{}).
		Select("COUNT(*) AS total_users, COALESCE(SUM(total_score), 0) AS total_score, COALESCE(AVG(total_score), 0) AS average_score").
		Scan(&aggregate).Error
	if err != nil {
		return nil, wrapStoreError(err)
	}

	return &aggregate, nil
}

// Ping verifies that the store is reachable.
func (r *rankRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// Add the filter conditions that were passed.
func (r *rankRepository) applyFilter(query *gorm.DB, filter *filters.LeaderboardFilter) *gorm.DB {
	if filter.MinScore != nil {
		query = query.Where("total_score >= ?", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		query = query.Where("total_score <= ?", *filter.MaxScore)
	}

	switch filter.Platform {
	case "leetcode":
		query = query.Where("leet_code_score > 0")
	case "github":
		query = query.Where("github_score > 0")
	}

	if filter.Search != "" {
		profiles := r.db.Model(&models.Profile{}).
			Select("user_id").
			Where(`LOWER(username) LIKE ? ESCAPE '\'`, "%"+escapeLike(filter.Search)+"%")
		query = query.Where("user_id IN (?)", profiles)
	}

	return query
}

// escapeLike makes the wildcards of a search term match literally.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Connectivity failures are reported as an unavailable store.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if database.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return err
}
