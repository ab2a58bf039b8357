package jobs

import (
	"context"
	"fmt"
	"time"

	"coderanker/api/dto"
	rankingservice "coderanker/api/services/ranking"
	"coderanker/pkg/config"
	"coderanker/pkg/logger"
)

// Engine is the part of the ranking service driven by the scheduler.
type Engine interface {
	ReRankAll(ctx context.Context) (*dto.ReRankSummary, error)
	RefreshActiveUsers(ctx context.Context) (*rankingservice.SweepSummary, error)
	CleanupRefreshLogs(ctx context.Context) (int64, error)
}

// Publisher announces a finished re-rank to the api processes.
type Publisher interface {
	PublishReRanked(ctx context.Context, count int) error
}

// LogUploader ships the process log to the bucket.
type LogUploader interface {
	UploadToS3Bucket(ctx context.Context, bucket config.BucketConfig, objectKey string) error
}

// Jobs are the periodic tasks of the scheduler.
type Jobs struct {
	engine    Engine
	publisher Publisher
	uploader  LogUploader
	logger    logger.Logger
	bucket    config.BucketConfig
	now       func() time.Time
}

// JobsDeps is the dependency list for the jobs.
type JobsDeps struct {
	Engine    Engine
	Publisher Publisher
	Uploader  LogUploader
	Logger    logger.Logger
	Bucket    config.BucketConfig
}

// NewJobs creates the scheduler jobs.
func NewJobs(deps *JobsDeps) *Jobs {
	j := &Jobs{
		engine:    deps.Engine,
		publisher: deps.Publisher,
		uploader:  deps.Uploader,
		logger:    deps.Logger,
		bucket:    deps.Bucket,
		now:       time.Now,
	}
	if j.logger == nil {
		j.logger = logger.Nop{}
	}
	return j
}

// ReRank recomputes every rank and tells the api processes to rebroadcast.
func (j *Jobs) ReRank(ctx context.Context) error {
	j.logger.Infof("Starting the leaderboard re-rank.")

	summary, err := j.engine.ReRankAll(ctx)
	if err != nil {
		j.logger.Errorf("Re-rank failed: %v", err)
		return err
	}

	if err := j.publisher.PublishReRanked(ctx, summary.Ranked); err != nil {
		// The api processes still rebroadcast on their own ticker.
		j.logger.Warnf("Couldn't publish the re-rank: %v", err)
	}
	return nil
}

// RefreshActiveUsers refreshes the provider stats of the recently active users.
func (j *Jobs) RefreshActiveUsers(ctx context.Context) error {
	j.logger.Infof("Starting the active users refresh.")

	summary, err := j.engine.RefreshActiveUsers(ctx)
	if err != nil {
		j.logger.Errorf("Active users refresh failed: %v", err)
		return err
	}

	j.logger.Infof("Active users refresh completed: %d attempted, %d succeeded, %d partial, %d failed",
		summary.Attempted, summary.Succeeded, summary.Partial, summary.Failed)
	return nil
}

// CleanupRefreshLogs removes the expired audit logs.
func (j *Jobs) CleanupRefreshLogs(ctx context.Context) error {
	removed, err := j.engine.CleanupRefreshLogs(ctx)
	if err != nil {
		j.logger.Errorf("Refresh log cleanup failed after %d rows: %v", removed, err)
		return err
	}

	j.logger.Infof("Refresh log cleanup removed %d rows", removed)
	return nil
}

// UploadLogs sends the scheduler log of the day to the bucket.
// Nothing is sent without a log bucket.
func (j *Jobs) UploadLogs(ctx context.Context) error {
	if j.bucket.LogBucket == "" {
		return nil
	}

	key := fmt.Sprintf("scheduler/%s.log", j.now().UTC().Format("2006-01-02T15-04-05"))

	if err := j.uploader.UploadToS3Bucket(ctx, j.bucket, key); err != nil {
		j.logger.Errorf("Log upload failed: %v", err)
		return err
	}
	return nil
}
