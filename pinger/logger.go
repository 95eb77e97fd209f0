package pinger

import "log"

// Logger receives diagnostics from the Pinger.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// StdLogger writes through a standard library logger.
type StdLogger struct {
	Logger *log.Logger
}

func (l StdLogger) Debugf(format string, v ...interface{}) {
	l.Logger.Printf("DEBUG "+format, v...)
}

func (l StdLogger) Infof(format string, v ...interface{}) {
	l.Logger.Printf("INFO "+format, v...)
}

func (l StdLogger) Warnf(format string, v ...interface{}) {
	l.Logger.Printf("WARN "+format, v...)
}

func (l StdLogger) Errorf(format string, v ...interface{}) {
	l.Logger.Printf("ERROR "+format, v...)
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debugf(format string, v ...interface{}) {}
func (NoopLogger) Infof(format string, v ...interface{})  {}
func (NoopLogger) Warnf(format string, v ...interface{})  {}
func (NoopLogger) Errorf(format string, v ...interface{}) {}
