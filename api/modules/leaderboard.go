package modules

import (
	"context"

	"coderanker/api/dto"
	"coderanker/api/handlers"
	"coderanker/pkg/logger"
)

// Publisher announces a finished re-rank to the other processes.
type Publisher interface {
	PublishReRanked(ctx context.Context, count int) error
}

// publishingRanker announces the manual re-ranks so every api instance rebroadcasts the leaderboard.
type publishingRanker struct {
	ranker    handlers.ReRanker
	publisher Publisher
	logger    logger.Logger
}

func (p *publishingRanker) ReRankAll(ctx context.Context) (*dto.ReRankSummary, error) {
	summary, err := p.ranker.ReRankAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.publisher.PublishReRanked(ctx, summary.Ranked); err != nil {
		p.logger.Warnf("couldn't publish the re-rank: %v", err)
	}
	return summary, nil
}

func initializeLeaderboardHandler(deps *ModuleDependencies, svc *services) *handlers.LeaderboardHandler {
	ranker := &publishingRanker{
		ranker:    svc.ranking,
		publisher: deps.Redis,
		logger:    deps.Logger,
	}

	return handlers.NewLeaderboardHandler(svc.leaderboard, ranker, svc.auth)
}
