package wire

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abricot-ai-api/internal/config"
	"abricot-ai-api/internal/domain/service"
)

func TestOptionalDataLayerDisabled(t *testing.T) {
	cfg := &config.Config{}
	ctx := context.Background()

	pg, cleanup, err := ProvidePostgresClient(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, pg)
	cleanup()

	rdb, cleanup, err := ProvideRedisClient(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, rdb)
	cleanup()

	assert.IsType(t, service.NoopGenerationRecorder{}, ProvideGenerationRecorder(nil))
	assert.Nil(t, ProvideRateLimiter(nil))
}
