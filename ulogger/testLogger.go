package ulogger

import (
	"fmt"
	"sync"
)

// TestLogger discards output but remembers warnings so tests can assert on skipped records.
type TestLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *TestLogger) LogLevel() int {
	return 0
}

func (l *TestLogger) SetLogLevel(level string) {}

func (l *TestLogger) Debugf(format string, args ...interface{}) {}

func (l *TestLogger) Infof(format string, args ...interface{}) {}

func (l *TestLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *TestLogger) Errorf(format string, args ...interface{}) {}

func (l *TestLogger) Fatalf(format string, args ...interface{}) {}

func (l *TestLogger) New(service string, options ...Option) Logger {
	return l
}

func (l *TestLogger) Duplicate(options ...Option) Logger {
	return l
}

// Warnings returns a copy of every warning logged so far.
func (l *TestLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.warnings))
	copy(out, l.warnings)

	return out
}
