package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCollectorRecordRequest(t *testing.T) {
	c := NewCollector("mymemo_test")

	c.RecordRequest("GET", "/mymemos/", "200", 15*time.Millisecond)
	c.RecordRequest("GET", "/mymemos/", "200", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/mymemos/", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.HTTPDuration))

	var nilCollector *Collector
	assert.NotPanics(t, func() { nilCollector.RecordRequest("GET", "/", "200", 0) })
}

func TestNewLogger(t *testing.T) {
	t.Run("Should honour the configured level", func(t *testing.T) {
		logger, atom, err := NewLogger("warn", false)
		require.NoError(t, err)
		defer logger.Sync()

		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		atom.SetLevel(zapcore.DebugLevel)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("Should reject unknown levels", func(t *testing.T) {
		_, _, err := NewLogger("loud", false)
		assert.Error(t, err)
	})
}

func TestInitTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "mymemo", "test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
