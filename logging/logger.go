package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kndndrj/lazystream/models"
)

var _ models.Logger = (*Logger)(nil)

// Logger adapts a zap logger to models.Logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

func NewZap(z *zap.Logger) *Logger {
	return &Logger{
		sugar: z.Sugar(),
	}
}

// NewObserver returns a logger that records entries in memory.
func NewObserver(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZap(zap.New(core)), logs
}

// Nop discards everything.
func Nop() models.Logger {
	return models.NopLogger{}
}

func (l *Logger) Debug(msg string) {
	l.sugar.Debug(msg)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Info(msg string) {
	l.sugar.Info(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(msg string) {
	l.sugar.Warn(msg)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(msg string) {
	l.sugar.Error(msg)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}
