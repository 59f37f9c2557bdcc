package wa

import (
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

// zapLogger routes whatsmeow logs into the session's zap logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewLogger adapts logger to the whatsmeow logging interface.
func NewLogger(logger *zap.Logger) waLog.Logger {
	return zapLogger{s: logger.Sugar()}
}

func (l zapLogger) Warnf(msg string, args ...interface{})  { l.s.Warnf(msg, args...) }
func (l zapLogger) Errorf(msg string, args ...interface{}) { l.s.Errorf(msg, args...) }
func (l zapLogger) Infof(msg string, args ...interface{})  { l.s.Infof(msg, args...) }
func (l zapLogger) Debugf(msg string, args ...interface{}) { l.s.Debugf(msg, args...) }

func (l zapLogger) Sub(module string) waLog.Logger {
	return zapLogger{s: l.s.Named(module)}
}
