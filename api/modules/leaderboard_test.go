package modules

import (
	"context"
	"errors"
	"testing"

	"coderanker/api/dto"
	"coderanker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRanker struct{ mock.Mock }

func (m *mockRanker) ReRankAll(ctx context.Context) (*dto.ReRankSummary, error) {
	args := m.Called(ctx)
	summary, _ := args.Get(0).(*dto.ReRankSummary)
	return summary, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishReRanked(ctx context.Context, count int) error {
	return m.Called(ctx, count).Error(0)
}

func TestPublishingRanker(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mockRanker, *mockPublisher)
		expectErr  bool
	}{
		{
			name: "publishes the ranked count",
			setupMocks: func(r *mockRanker, p *mockPublisher) {
				r.On("ReRankAll", mock.Anything).Return(&dto.ReRankSummary{Ranked: 4}, nil)
				p.On("PublishReRanked", mock.Anything, 4).Return(nil)
			},
		},
		{
			name: "publish failure is not fatal",
			setupMocks: func(r *mockRanker, p *mockPublisher) {
				r.On("ReRankAll", mock.Anything).Return(&dto.ReRankSummary{Ranked: 1}, nil)
				p.On("PublishReRanked", mock.Anything, 1).Return(errors.New("redis down"))
			},
		},
		{
			name: "re-rank failure skips the publish",
			setupMocks: func(r *mockRanker, p *mockPublisher) {
				r.On("ReRankAll", mock.Anything).Return(nil, errors.New("store down"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranker := new(mockRanker)
			publisher := new(mockPublisher)
			tt.setupMocks(ranker, publisher)

			p := &publishingRanker{ranker: ranker, publisher: publisher, logger: logger.Nop{}}
			summary, err := p.ReRankAll(context.Background())

			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, summary)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, summary)
			}
			ranker.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}
