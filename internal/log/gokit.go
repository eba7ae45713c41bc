package log

import (
	"fmt"
	"os"

	gklog "github.com/go-kit/kit/log"
	gklevel "github.com/go-kit/kit/log/level"
)

// gKLogger is a Logger backed by a go-kit logger.
type gKLogger struct {
	logger gklog.Logger
}

func (l *gKLogger) checkError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging error:", err)
	}
}

func (l *gKLogger) log(gk gklog.Logger, event string, keyvals ...interface{}) {
	kv := make([]interface{}, 0, len(keyvals)+2)
	kv = append(kv, "event", event)
	kv = append(kv, keyvals...)
	l.checkError(gk.Log(kv...))
}

// Debug logs key-values at debug level.
func (l *gKLogger) Debug(event string, keyvals ...interface{}) {
	l.log(gklevel.Debug(l.logger), event, keyvals...)
}

// Info logs key-values at info level.
func (l *gKLogger) Info(event string, keyvals ...interface{}) {
	l.log(gklevel.Info(l.logger), event, keyvals...)
}

// Warn logs key-values at warn level.
func (l *gKLogger) Warn(event string, keyvals ...interface{}) {
	l.log(gklevel.Warn(l.logger), event, keyvals...)
}

// Error logs key-values at error level.
func (l *gKLogger) Error(event string, keyvals ...interface{}) {
	l.log(gklevel.Error(l.logger), event, keyvals...)
}

// With returns a logger that always carries the given key/values.
func (l *gKLogger) With(keyvals ...interface{}) Logger {
	return NewGoKitLogger(gklog.With(l.logger, keyvals...))
}

// NewGoKitLogger wraps an existing go-kit logger as a Logger.
func NewGoKitLogger(logger gklog.Logger) Logger {
	return &gKLogger{logger: logger}
}

// NewGoKitLoggerStdout builds a go-kit logfmt logger writing to stdout,
// with a UTC timestamp and caller field, matching a conventional
// production go-kit setup.
func NewGoKitLoggerStdout() Logger {
	base := gklog.NewLogfmtLogger(gklog.NewSyncWriter(os.Stdout))
	base = gklog.With(base, "ts", gklog.DefaultTimestampUTC, "caller", gklog.Caller(5))

	return NewGoKitLogger(base)
}
