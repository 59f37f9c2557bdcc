package wa

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogger(zap.New(core)).Sub("Client")

	l.Infof("connected to %s", "server")
	l.Warnf("retry %d", 2)
	l.Errorf("boom")
	l.Debugf("frame")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	if entries[0].Message != "connected to server" || entries[0].LoggerName != "Client" {
		t.Errorf("entry = %+v", entries[0])
	}
	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel, zapcore.DebugLevel}
	for i, lvl := range want {
		if entries[i].Level != lvl {
			t.Errorf("entry %d level = %s, want %s", i, entries[i].Level, lvl)
		}
	}
}
