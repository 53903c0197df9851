package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"staff-portal/internal/config"
)

func TestNew_Levels(t *testing.T) {
	l, err := New(config.LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New(config.LoggingConfig{Level: "DEBUG", Development: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core).With(zap.String("request_id", "r-1"))

	ctx := WithContext(context.Background(), l)
	FromContext(ctx, nil).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "r-1", logs.All()[0].ContextMap()["request_id"])
}

func TestFromContext_Fallbacks(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background(), nil))

	fallback := zap.NewExample()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
}
