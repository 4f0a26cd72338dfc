package models

// Logger is the logging contract used by every component. Implementations
// live outside of the core (see the logging package); a nil Logger is never
// passed around, use NopLogger instead.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...any)
	Info(msg string)
	Infof(format string, args ...any)
	Warn(msg string)
	Warnf(format string, args ...any)
	Error(msg string)
	Errorf(format string, args ...any)
}

var _ Logger = NopLogger{}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string)          {}
func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Info(string)           {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warn(string)           {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Error(string)          {}
func (NopLogger) Errorf(string, ...any) {}
