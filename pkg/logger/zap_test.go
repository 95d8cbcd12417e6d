package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Gunvolt24/storefront-sync/pkg/ctxmeta"
)

func TestZapLogger_AddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := wrap(zap.New(core), false)

	ctx := ctxmeta.WithRequestID(context.Background(), "rid-1")
	l.Infof(ctx, "hello %s", "world")
	l.Warnf(context.Background(), "plain")

	entries := logs.All()
	require.Len(t, entries, 2)

	require.Equal(t, "hello world", entries[0].Message)
	require.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])

	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	_, has := entries[1].ContextMap()["request_id"]
	require.False(t, has)
}

func TestZapLogger_AddsSubjectAndScope(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := wrap(zap.New(core), true)

	ctx := ctxmeta.WithSubject(context.Background(), "cust-1")
	ctx = ctxmeta.WithScope(ctx, "customer:cust-1")
	l.Errorf(ctx, "stream failed")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "cust-1", fields["subject"])
	require.Equal(t, "customer:cust-1", fields["scope"])
	_, has := fields["trace_id"]
	require.False(t, has)
}

func TestNewNop_DoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Errorf(context.TODO(), "ignored %d", 1)
	require.NotNil(t, l.Base())
}
