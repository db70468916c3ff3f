package cache

import (
	"context"
	"testing"
	"time"

	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "insights:analysis:user-1:90", Key("user-1", 90))
}

func TestBundleCache_DisabledWithoutURL(t *testing.T) {
	c, err := NewBundleCache(context.Background(), "", time.Hour, logger.Nop())
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, &models.AnalysisBundle{UserID: "u1", WindowDays: 90}))

	got, ok, err := c.Get(ctx, "u1", 90)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	assert.NoError(t, c.Invalidate(ctx, "u1"))
	assert.NoError(t, c.Close())
}

func TestBundleCache_NilIsSafe(t *testing.T) {
	var c *BundleCache
	ctx := context.Background()

	assert.False(t, c.Enabled())
	_, ok, err := c.Get(ctx, "u1", 30)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Set(ctx, &models.AnalysisBundle{}))
	assert.NoError(t, c.Invalidate(ctx, "u1"))
	assert.NoError(t, c.Close())
}

func TestBundleCache_InvalidURL(t *testing.T) {
	_, err := NewBundleCache(context.Background(), "http://not-redis", time.Hour, logger.Nop())
	assert.Error(t, err)
}

func TestBundleCache_UnreachableServerDisablesCache(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := NewBundleCache(ctx, "redis://127.0.0.1:1/0", time.Hour, logger.Nop())
	require.NoError(t, err)
	assert.False(t, c.Enabled())
}
