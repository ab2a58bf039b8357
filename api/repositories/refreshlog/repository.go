package refreshlogrepo

import (
	"context"
	"time"

	"coderanker/pkg/database/models"

	"gorm.io/gorm"
)

// RefreshLogRepository is the append only audit trail of refresh attempts.
type RefreshLogRepository interface {
	Create(ctx context.Context, entry *models.RefreshLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.RefreshLog, error)
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*models.RefreshLog, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

// refreshLogRepository repository structure.
type refreshLogRepository struct {
	db *gorm.DB
}

// NewRefreshLogRepository creates a refresh log repository.
func NewRefreshLogRepository(db *gorm.DB) RefreshLogRepository {
	return &refreshLogRepository{db: db}
}

// Create appends an entry.
func (r *refreshLogRepository) Create(ctx context.Context, entry *models.RefreshLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser returns the latest entries of the user.
func (r *refreshLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.RefreshLog, error) {
	var entries []*models.RefreshLog

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// ListOlderThan returns up to limit expired entries, oldest first.
func (r *refreshLogRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*models.RefreshLog, error) {
	var entries []*models.RefreshLog

	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteByIDs removes the given entries and returns how many were deleted.
func (r *refreshLogRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.RefreshLog{})
	return res.RowsAffected, res.Error
}
