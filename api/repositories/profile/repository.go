package profilerepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coderanker/pkg/apperrors"
	"coderanker/pkg/database/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository reads the user profiles linked to the providers.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	GetProfiles(ctx context.Context, userIDs []string) (map[string]*models.Profile, error)
	ListActive(ctx context.Context, since time.Time, limit int) ([]*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	TouchLogin(ctx context.Context, userID, username string, at time.Time) error
}

// profileRepository repository structure.
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetProfile returns the profile of the user or ErrEntryNotFound.
func (p *profileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile

	err := p.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: profile %s", apperrors.ErrEntryNotFound, userID)
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// GetProfiles returns the profiles of the given users keyed by user id.
func (p *profileRepository) GetProfiles(ctx context.Context, userIDs []string) (map[string]*models.Profile, error) {
	result := make(map[string]*models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var profiles []*models.Profile
	if err := p.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}

	for _, profile := range profiles {
		result[profile.UserID] = profile
	}

	return result, nil
}

// ListActive returns the users that logged in since the given time and linked any provider.
// The most recent logins come first.
func (p *profileRepository) ListActive(ctx context.Context, since time.Time, limit int) ([]*models.Profile, error) {
	var profiles []*models.Profile

	err := p.db.WithContext(ctx).
		Where("last_login >= ?", since).
		Where("github_username IS NOT NULL OR leetcode_username IS NOT NULL").
		Order("last_login DESC").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	return profiles, nil
}

// UpsertProfile stores the profile, replacing the names and the linked accounts of an existing one.
// The last login is left untouched.
func (p *profileRepository) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username",
			"avatar",
			"github_username",
			"leetcode_username",
			"updated_at",
		}),
	}).Omit("last_login").Create(profile).Error
}

// TouchLogin stamps the last login of the user, creating an unlinked profile on the first one.
func (p *profileRepository) TouchLogin(ctx context.Context, userID, username string, at time.Time) error {
	profile := &models.Profile{UserID: userID, Username: username, LastLogin: &at}

	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_login"}),
	}).Create(profile).Error
}
