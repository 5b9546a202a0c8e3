package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/timkado/api/openim-client/pkg/contextkeys"
)

func TestZapAdapter_LiftsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	ctx := context.WithValue(context.Background(), contextkeys.OperationIDKey, "op-1")
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, "u-1")
	l.Info(ctx, "dispatching", "path", "/auth/get_admin_token", "error", errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "op-1", fields["operation_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "/auth/get_admin_token", fields["path"])
	assert.Equal(t, "boom", fields["error"])
}

func TestZapAdapter_OddFieldsAreKept(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core)).With("component", "dispatcher")

	l.Warn(context.Background(), "odd", 42, "v", "dangling")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "dispatcher", fields["component"])
	assert.Equal(t, "v", fields["field_0"])
	assert.Equal(t, "dangling", fields["field_2"])
}

func TestZapAdapter_LevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewFromZap(zap.New(core))

	l.Debug(context.Background(), "hidden")
	l.Info(context.Background(), "hidden")
	l.Error(context.Background(), "shown")

	assert.Equal(t, 1, logs.Len())
}
