package rankingservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"coderanker/pkg/database/models"
)

const (
	// Expired logs handled per batch.
	cleanupBatchSize = 500

	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// CleanupRefreshLogs removes the refresh logs older than the retention, archiving them first when an archiver is set.
// A batch that couldn't be archived is kept.
func (rs *RankingService) CleanupRefreshLogs(ctx context.Context) (int64, error) {
	ctx, span := rs.tracer.Start(ctx, "RankingService.CleanupRefreshLogs")
	defer span.End()

	cutoff := rs.now().Add(-rs.cfg.LogRetention)
	var deleted int64

	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		logs, err := rs.RefreshLogRepository.ListOlderThan(ctx, cutoff, cleanupBatchSize)
		if err != nil {
			return deleted, storeError("failed to list the expired refresh logs", err)
		}
		if len(logs) == 0 {
			break
		}

		if rs.archiver != nil {
			if err := rs.archiveLogs(ctx, logs); err != nil {
				return deleted, err
			}
		}

		ids := make([]uint, len(logs))
		for i, entry := range logs {
			ids[i] = entry.ID
		}

		count, err := rs.RefreshLogRepository.DeleteByIDs(ctx, ids)
		if err != nil {
			return deleted, storeError("failed to delete the expired refresh logs", err)
		}
		deleted += count

		if len(logs) < cleanupBatchSize {
			break
		}
	}

	rs.logger.Infof("Removed %d refresh logs older than %s", deleted, cutoff.Format("2006-01-02"))
	return deleted, nil
}

// Write the batch as JSON lines.
func (rs *RankingService) archiveLogs(ctx context.Context, logs []*models.RefreshLog) error {
	var body bytes.Buffer
	encoder := json.NewEncoder(&body)
	for _, entry := range logs {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode refresh log %d: %w", entry.ID, err)
		}
	}

	key := fmt.Sprintf("refresh-logs/%s/%d-%d.jsonl",
		rs.now().UTC().Format("2006-01-02"), logs[0].ID, logs[len(logs)-1].ID)
	if err := rs.archiver.Archive(ctx, key, body.Bytes()); err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}

	return nil
}

// RefreshHistory returns the latest refresh attempts of the user, newest first.
func (rs *RankingService) RefreshHistory(ctx context.Context, userID string, limit int) ([]*models.RefreshLog, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	logs, err := rs.RefreshLogRepository.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, storeError("failed to list the refresh history", err)
	}
	return logs, nil
}
