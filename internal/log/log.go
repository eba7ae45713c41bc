// Package log re-exports the fclairamb/go-log Logger interface used by
// every component of the object store server, plus the go-kit adapter
// that backs the server's real (non-test) logging.
package log

import (
	golog "github.com/fclairamb/go-log"
	lognoop "github.com/fclairamb/go-log/noop"
)

// Logger is the shared structured-logging interface: every call takes
// an event name followed by an even number of key/value pairs.
type Logger = golog.Logger

// NewNoOpLogger returns a Logger that discards everything, used as the
// default until a caller supplies a real one (e.g. in tests).
func NewNoOpLogger() Logger {
	return lognoop.NewNoOpLogger()
}
