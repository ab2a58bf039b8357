package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"coderanker/api/cache"
	"coderanker/api/converters"
	"coderanker/api/dto"
	"coderanker/api/filters"
	profilerepo "coderanker/api/repositories/profile"
	rankingservice "coderanker/api/services/ranking"
	githubfetcher "coderanker/fetcher/data/github"
	leetcodefetcher "coderanker/fetcher/data/leetcode"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/config"
	"coderanker/pkg/database/models"
	"coderanker/pkg/logger"
	"coderanker/pkg/messages"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RankingEngine is the part of the ranking service used by the user endpoints.
type RankingEngine interface {
	RefreshAndRank(ctx context.Context, req rankingservice.RefreshRequest) (*rankingservice.RefreshResult, error)
	RefreshHistory(ctx context.Context, userID string, limit int) ([]*models.RefreshLog, error)
}

// UsernameValidator checks that a username exists on a provider.
type UsernameValidator interface {
	Validate(ctx context.Context, username string) error
}

// RedisClient is the subset of redis commands used by the refresh guard.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Provider lookups of a username are reused for a while, the scores never are.
const (
	validationCacheTTL     = 10 * time.Minute
	validationCacheCleanup = time.Minute
)

// UserService handles the profile and the refreshes requested by the users.
type UserService struct {
	ProfileRepository profilerepo.ProfileRepository

	engine      RankingEngine
	github      UsernameValidator
	leetcode    UsernameValidator
	redis       RedisClient
	cfg         config.ServerConfig
	log         logger.Logger
	validations *cache.MemCache[dto.UsernameValidation]
	background  sync.WaitGroup
	now         func() time.Time
}

// UserServiceDeps is the dependency list for the user service.
type UserServiceDeps struct {
	DB       *gorm.DB
	Engine   RankingEngine
	GitHub   UsernameValidator
	LeetCode UsernameValidator
	Redis    RedisClient
	Config   config.ServerConfig
	Logger   logger.Logger
}

// NewUserService creates a user service.
func NewUserService(deps *UserServiceDeps) *UserService {
	us := &UserService{
		ProfileRepository: profilerepo.NewProfileRepository(deps.DB),
		engine:            deps.Engine,
		github:            deps.GitHub,
		leetcode:          deps.LeetCode,
		redis:             deps.Redis,
		cfg:               deps.Config,
		log:               deps.Logger,
		validations:       cache.NewMemCache[dto.UsernameValidation](validationCacheTTL, validationCacheCleanup),
		now:               time.Now,
	}

	if us.log == nil {
		us.log = logger.Nop{}
	}

	return us
}

// Close waits for the background refreshes and stops the validation cache.
func (us *UserService) Close() {
	us.background.Wait()
	if us.validations != nil {
		us.validations.Close()
	}
}

// GetProfile returns the profile of the caller and stamps the login.
// The first call creates an unlinked profile.
func (us *UserService) GetProfile(ctx context.Context, userID, username string) (*dto.Profile, error) {
	if err := us.ProfileRepository.TouchLogin(ctx, userID, username, us.now()); err != nil {
		return nil, fmt.Errorf("failed to stamp the login: %w", err)
	}

	profile, err := us.ProfileRepository.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return converters.ConvertProfile(profile), nil
}

// UpdateProfile links the provider accounts of the caller.
// The stats of the linked accounts are refreshed in the background unless a refresh is cooling down.
func (us *UserService) UpdateProfile(ctx context.Context, userID, username string, body *filters.UpdateProfileBody) (*dto.Profile, error) {
	profile, err := us.ProfileRepository.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrEntryNotFound):
		profile = &models.Profile{UserID: userID, Username: username}
	case err != nil:
		return nil, err
	}

	if body.GithubUsername != nil {
		linked, err := linkedUsername(*body.GithubUsername, githubfetcher.ValidateUsername)
		if err != nil {
			return nil, err
		}
		profile.GithubUsername = linked
	}
	if body.LeetcodeUsername != nil {
		linked, err := linkedUsername(*body.LeetcodeUsername, leetcodefetcher.ValidateUsername)
		if err != nil {
			return nil, err
		}
		profile.LeetcodeUsername = linked
	}

	profile.Username = username
	profile.UpdatedAt = us.now()
	if err := us.ProfileRepository.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save the profile: %w", err)
	}

	us.refreshInBackground(ctx, profile)

	return converters.ConvertProfile(profile), nil
}

// linkedUsername validates the format of a new account, an empty one unlinks.
func linkedUsername(username string, validate func(string) error) (*string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	if err := validate(username); err != nil {
		return nil, err
	}
	return &username, nil
}

// refreshInBackground refreshes the linked accounts after they change.
func (us *UserService) refreshInBackground(ctx context.Context, profile *models.Profile) {
	req, err := refreshRequest(profile, models.RefreshBoth)
	if err != nil {
		return
	}

	if err := us.checkRefreshLock(ctx, profile.UserID); err != nil {
		us.log.Warnf("Skipped the refresh of %s after the profile update: %v", profile.UserID, err)
		return
	}

	// The request context ends with the response.
	ctx = context.WithoutCancel(ctx)
	us.background.Add(1)
	go func() {
		defer us.background.Done()
		if _, err := us.engine.RefreshAndRank(ctx, req); err != nil {
			us.log.Errorf("Failed to refresh %s after the profile update: %v", req.UserID, err)
		}
	}()
}

// RefreshStats refreshes the linked accounts of the user and re-ranks the leaderboard.
func (us *UserService) RefreshStats(ctx context.Context, userID string, which models.RefreshType) (*dto.RefreshResponse, error) {
	profile, err := us.ProfileRepository.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	req, err := refreshRequest(profile, which)
	if err != nil {
		return nil, err
	}

	if err := us.checkRefreshLock(ctx, userID); err != nil {
		return nil, err
	}
	if err := us.checkHourlyLimit(ctx, userID); err != nil {
		return nil, err
	}

	result, err := us.engine.RefreshAndRank(ctx, req)
	if err != nil {
		return nil, err
	}

	return result.Response(), nil
}

// ValidateUsernames checks both usernames against the providers.
func (us *UserService) ValidateUsernames(ctx context.Context, githubUsername, leetcodeUsername string) *dto.UsernameValidations {
	return &dto.UsernameValidations{
		GitHub:   us.validateUsername(ctx, us.github, "GitHub", githubUsername),
		LeetCode: us.validateUsername(ctx, us.leetcode, "LeetCode", leetcodeUsername),
	}
}

// RefreshHistory returns the latest refresh attempts of the user.
func (us *UserService) RefreshHistory(ctx context.Context, userID string, limit int) ([]*models.RefreshLog, error) {
	return us.engine.RefreshHistory(ctx, userID, limit)
}

// Build the engine request from the linked accounts.
// A refresh of both providers only includes the linked ones.
func refreshRequest(profile *models.Profile, which models.RefreshType) (rankingservice.RefreshRequest, error) {
	req := rankingservice.RefreshRequest{
		UserID:           profile.UserID,
		GithubUsername:   profile.GitHub(),
		LeetcodeUsername: profile.LeetCode(),
		Type:             which,
		ReRank:           true,
	}

	hasGitHub := req.GithubUsername != ""
	hasLeetCode := req.LeetcodeUsername != ""

	switch which {
	case models.RefreshBoth:
		switch {
		case hasGitHub && hasLeetCode:
		case hasGitHub:
			req.Type = models.RefreshGitHub
		case hasLeetCode:
			req.Type = models.RefreshLeetCode
		default:
			return req, fmt.Errorf("%w: no provider account linked", apperrors.ErrValidation)
		}
	case models.RefreshGitHub:
		if !hasGitHub {
			return req, fmt.Errorf("%w: "+messages.UsernameNotProvided, apperrors.ErrValidation, "github")
		}
	case models.RefreshLeetCode:
		if !hasLeetCode {
			return req, fmt.Errorf("%w: "+messages.UsernameNotProvided, apperrors.ErrValidation, "leetcode")
		}
	default:
		return req, fmt.Errorf("%w: unknown refresh type %q", apperrors.ErrValidation, which)
	}

	return req, nil
}

// checkRefreshLock blocks a new refresh while the previous one is cooling down.
func (us *UserService) checkRefreshLock(ctx context.Context, userID string) error {
	key := fmt.Sprintf("refresh:lock:%s", userID)

	lockAcquired, err := us.redis.SetNX(ctx, key, "processing", us.cfg.RefreshCooldown).Result()
	if err != nil {
		return fmt.Errorf("couldn't check the refresh lock on redis: %w", err)
	}
	if lockAcquired {
		return nil
	}

	ttl, err := us.redis.TTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrTooManyRequests, messages.OperationInProgress)
	}

	switch {
	case ttl == -2:
		// Key doesn't exist (race condition)
		return fmt.Errorf("%w: request conflict detected, please retry", apperrors.ErrTooManyRequests)
	case ttl > 0:
		return fmt.Errorf("%w: operation already in progress, try again in %d seconds",
			apperrors.ErrTooManyRequests, int(ttl.Seconds()))
	default:
		return fmt.Errorf("%w: %s", apperrors.ErrTooManyRequests, messages.OperationInProgress)
	}
}

// checkHourlyLimit counts the refreshes of the current hour.
func (us *UserService) checkHourlyLimit(ctx context.Context, userID string) error {
	key := fmt.Sprintf("refresh:count:%s:%s", userID, us.now().UTC().Format("2006010215"))

	count, err := us.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("couldn't check the refresh limit on redis: %w", err)
	}
	if count == 1 {
		if err := us.redis.Expire(ctx, key, time.Hour).Err(); err != nil {
			return fmt.Errorf("couldn't set the refresh limit expiration: %w", err)
		}
	}

	if count > int64(us.cfg.RefreshPerHour) {
		return fmt.Errorf("%w: "+messages.RefreshLimitReached, apperrors.ErrTooManyRequests, us.cfg.RefreshPerHour)
	}
	return nil
}

// validateUsername asks the provider about the username.
// Only the definitive answers are cached, a provider failure is asked again next time.
func (us *UserService) validateUsername(ctx context.Context, validator UsernameValidator, provider, username string) dto.UsernameValidation {
	if username == "" {
		return dto.UsernameValidation{Message: fmt.Sprintf(messages.UsernameNotProvided, provider)}
	}

	key := provider + ":" + strings.ToLower(username)
	if us.validations != nil {
		if cached, ok := us.validations.Get(key); ok {
			return cached
		}
	}

	var result dto.UsernameValidation
	err := validator.Validate(ctx, username)
	switch {
	case err == nil:
		result = dto.UsernameValidation{IsValid: true, Message: fmt.Sprintf("Valid %s username", provider)}
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrProviderNotFound):
		result = dto.UsernameValidation{Message: fmt.Sprintf("Invalid %s username", provider)}
	default:
		return dto.UsernameValidation{Message: fmt.Sprintf("Error validating %s username", provider)}
	}

	if us.validations != nil {
		us.validations.Set(key, result)
	}
	return result
}
