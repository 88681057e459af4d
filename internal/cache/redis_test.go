package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"accreditdocs/internal/config"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = ParseOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	_, err = ParseOptions("redis://cache:6379/notadb")
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		assert.Nil(t, NewClient(context.Background(), config.RedisConfig{}, zap.NewNop(), nil))
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cli := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + addr}, zap.NewNop(), prometheus.NewRegistry())
		assert.Nil(t, cli)
	})

	t.Run("connected and counting errors", func(t *testing.T) {
		mr := miniredis.RunT(t)
		reg := prometheus.NewRegistry()

		cli := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()}, zap.NewNop(), reg)
		require.NotNil(t, cli)
		defer cli.Close()

		mr.SetError("ERR boom")
		assert.Error(t, cli.Set(context.Background(), "k", "v", 0).Err())
		mr.SetError("")

		n, err := testutil.GatherAndCount(reg, "redis_errors_total")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
