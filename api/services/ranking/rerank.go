package rankingservice

import (
	"context"
	"sort"

	"coderanker/api/dto"
	rankrepo "coderanker/api/repositories/rank"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ReRankAll recomputes the dense rank of every entry.
// Row failures are reported on the summary, only store connectivity fails the call.
func (rs *RankingService) ReRankAll(ctx context.Context) (*dto.ReRankSummary, error) {
	rs.reRankMu.Lock()
	defer rs.reRankMu.Unlock()

	ctx, span := rs.tracer.Start(ctx, "RankingService.ReRankAll")
	defer span.End()

	start := rs.now()

	rows, err := rs.RankRepository.ListForRanking(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeError("failed to list the entries", err)
	}

	ordered := SortForRanking(rows)
	userIDs := make([]string, len(ordered))
	for i, row := range ordered {
		userIDs[i] = row.UserID
	}

	result, err := rs.RankRepository.BulkReRank(ctx, userIDs, rs.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeError("failed to re-rank", err)
	}

	for _, failed := range result.Failed {
		rs.logger.Warnf("Couldn't re-rank user %s: %v", failed.UserID, failed.Err)
	}

	duration := rs.now().Sub(start)
	rs.metrics.RecordReRank(duration, result.Updated, result.Skipped, len(result.Failed))
	span.SetAttributes(
		attribute.Int("rerank.updated", result.Updated),
		attribute.Int("rerank.skipped", result.Skipped),
		attribute.Int("rerank.failed", len(result.Failed)),
	)
	rs.logger.Infof("Re-ranked %d users in %v, %d skipped, %d failed",
		result.Updated, duration, result.Skipped, len(result.Failed))

	return &dto.ReRankSummary{
		Ranked:  result.Updated,
		Skipped: result.Skipped,
		Failed:  len(result.Failed),
	}, nil
}

// SortForRanking orders the rows by score, latest score update and user id.
// The input is left untouched.
func SortForRanking(rows []rankrepo.RankingRow) []rankrepo.RankingRow {
	ordered := make([]rankrepo.RankingRow, len(rows))
	copy(ordered, rows)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if !a.ScoreUpdatedAt.Equal(b.ScoreUpdatedAt) {
			return a.ScoreUpdatedAt.After(b.ScoreUpdatedAt)
		}
		return a.UserID < b.UserID
	})

	return ordered
}
