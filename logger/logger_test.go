package logger_test

import (
	"errors"
	"testing"

	"github.com/evdnx/gospot/logger"
	"github.com/evdnx/gospot/testutils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMockLogger(t *testing.T) {
	l := testutils.NewMockLogger()
	l.Info("hello", logger.String("k", "v"))
	if got := l.LastMessage(); got != "hello" {
		t.Fatalf("expected last message 'hello', got %q", got)
	}
}

func TestWrapForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := logger.Wrap(zap.New(core))

	l.Warn("window_failed", logger.Int("index", 7), logger.Err(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["index"] != int64(7) {
		t.Fatalf("expected index 7, got %v", ctx["index"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("expected error field 'boom', got %v", ctx["error"])
	}
}

func TestNopDiscards(t *testing.T) {
	l := logger.Nop()
	l.Error("ignored", logger.Float64("x", 1))
}
