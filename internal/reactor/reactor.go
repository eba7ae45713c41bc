// Package reactor holds only the acceptor loop (MODULE C5): accept
// connections off a listener and spawn one goroutine per accept. Go's
// net poller and goroutine scheduler are the reactor itself; this
// package is the thin self-perpetuating accept chain that sits on top
// of it, mirroring FtpServer.Serve/clientArrival almost line for line.
package reactor

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/fclairamb/objectstored/internal/log"
)

// Reactor drives a single listener, handing every accepted connection
// to onAccept in its own goroutine.
type Reactor struct {
	listener net.Listener
	onAccept func(net.Conn)
	logger   log.Logger
}

// New constructs a Reactor over an already-bound listener.
func New(listener net.Listener, onAccept func(net.Conn), logger log.Logger) *Reactor {
	return &Reactor{listener: listener, onAccept: onAccept, logger: logger}
}

// Serve accepts connections and spawns a session goroutine per accept
// (self-perpetuating acceptor chain). It blocks until the listener is
// closed, at which point it returns nil.
func (r *Reactor) Serve() error {
	var tempDelay time.Duration

	for {
		conn, err := r.listener.Accept()
		if err != nil {
			if done, finalErr := r.handleAcceptError(err, &tempDelay); done {
				return finalErr
			}

			continue
		}

		tempDelay = 0

		go r.onAccept(conn)
	}
}

func (r *Reactor) handleAcceptError(err error, tempDelay *time.Duration) (bool, error) {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err.Error() == "use of closed network connection" {
		return true, nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		if *tempDelay == 0 {
			*tempDelay = 5 * time.Millisecond
		} else {
			*tempDelay *= 2
		}

		if maxDelay := time.Second; *tempDelay > maxDelay {
			*tempDelay = maxDelay
		}

		r.logger.Warn("accept error, retrying", "err", err, "delay", *tempDelay)
		time.Sleep(*tempDelay)

		return false, nil
	}

	r.logger.Error("listener accept error", "err", err)

	return true, fmt.Errorf("listener accept error: %w", err)
}
