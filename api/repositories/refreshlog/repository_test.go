package refreshlogrepo

import (
	"context"
	"testing"
	"time"

	"coderanker/internal/testutil"
	"coderanker/pkg/database/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedDate = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func TestNewRefreshLogRepository(t *testing.T) {
	repository := NewRefreshLogRepository(&gorm.DB{})
	assert.NotNil(t, repository)
}

func TestRefreshLogRepository(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	repository := NewRefreshLogRepository(db)
	ctx := context.Background()

	entries := []*models.RefreshLog{
		{UserID: "u1", Type: models.RefreshBoth, Status: models.RefreshSuccess, DurationMs: 120, CreatedAt: fixedDate.Add(-10 * 24 * time.Hour)},
		{UserID: "u1", Type: models.RefreshGitHub, Status: models.RefreshFailed, ErrorKind: "provider_timeout", Error: "github: provider timeout", CreatedAt: fixedDate.Add(-time.Hour)},
		{UserID: "u1", Type: models.RefreshLeetCode, Status: models.RefreshSuccess, CreatedAt: fixedDate},
		{UserID: "u2", Type: models.RefreshBoth, Status: models.RefreshPartial, CreatedAt: fixedDate.Add(-9 * 24 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, repository.Create(ctx, e))
		assert.NotZero(t, e.ID)
	}

	t.Run("list by user newest first", func(t *testing.T) {
		logs, err := repository.ListByUser(ctx, "u1", 2)
		require.NoError(t, err)

		require.Len(t, logs, 2)
		assert.Equal(t, models.RefreshLeetCode, logs[0].Type)
		assert.Equal(t, "provider_timeout", logs[1].ErrorKind)
	})

	t.Run("expire old entries", func(t *testing.T) {
		cutoff := fixedDate.Add(-7 * 24 * time.Hour)

		expired, err := repository.ListOlderThan(ctx, cutoff, 100)
		require.NoError(t, err)
		require.Len(t, expired, 2)
		assert.Equal(t, "u1", expired[0].UserID)
		assert.Equal(t, "u2", expired[1].UserID)

		deleted, err := repository.DeleteByIDs(ctx, []uint{expired[0].ID, expired[1].ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		remaining, err := repository.ListOlderThan(ctx, cutoff, 100)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("delete nothing", func(t *testing.T) {
		deleted, err := repository.DeleteByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}
