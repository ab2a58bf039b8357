package statsrepo

import (
	"context"
	"errors"

	"coderanker/pkg/database/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRepository stores the last provider snapshot of each user.
type StatsRepository interface {
	UpsertLeetCode(ctx context.Context, stats *models.LeetCodeStats) error
	UpsertGitHub(ctx context.Context, stats *models.GitHubStats) error
	GetLeetCode(ctx context.Context, userID string) (*models.LeetCodeStats, error)
	GetGitHub(ctx context.Context, userID string) (*models.GitHubStats, error)
}

// statsRepository repository structure.
type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a stats repository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// UpsertLeetCode overwrites the whole LeetCode snapshot of the user.
func (s *statsRepository) UpsertLeetCode(ctx context.Context, stats *models.LeetCodeStats) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(stats).Error
}

// UpsertGitHub overwrites the whole GitHub snapshot of the user.
func (s *statsRepository) UpsertGitHub(ctx context.Context, stats *models.GitHubStats) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(stats).Error
}

// GetLeetCode returns the LeetCode snapshot, or nil when the user has none.
func (s *statsRepository) GetLeetCode(ctx context.Context, userID string) (*models.LeetCodeStats, error) {
	var stats models.LeetCodeStats

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// GetGitHub returns the GitHub snapshot, or nil when the user has none.
func (s *statsRepository) GetGitHub(ctx context.Context, userID string) (*models.GitHubStats, error) {
	var stats models.GitHubStats

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
