// Package server implements the server facade (C7): it owns the single
// TCP acceptor, the object store, the user database, and spawns a
// Session for every accepted connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/fclairamb/objectstored/internal/log"
	"github.com/fclairamb/objectstored/internal/reactor"
	"github.com/fclairamb/objectstored/internal/session"
	"github.com/fclairamb/objectstored/internal/store"
	"github.com/fclairamb/objectstored/internal/userdb"
)

// ErrNotListening is returned by Stop when the server was never started.
var ErrNotListening = errors.New("server is not listening")

// Settings configures a Server before Listen is called.
type Settings struct {
	// Address is the host:port to bind the single TCP acceptor on.
	Address string

	// Threads sets GOMAXPROCS, standing in for the fixed OS-thread
	// pool that drives the shared reactor in the original design.
	Threads int

	// Authenticate gates HTTP requests behind Basic auth when true.
	Authenticate bool

	// FTPPortRange marks a peer's source port range as FTP, so the
	// 220 greeting is sent before any request line arrives.
	FTPPortRange session.PortRange
}

// Server is the facade: a single acceptor, shared Store and user DB,
// and a goroutine per accepted connection.
type Server struct {
	settings Settings
	logger   log.Logger

	store *store.Store
	users *userdb.DB

	listener      net.Listener
	reactor       *reactor.Reactor
	clientCounter uint32

	wg sync.WaitGroup
}

// New constructs a Server. It does not start listening.
func New(settings Settings, logger log.Logger) *Server {
	if settings.Threads <= 0 {
		settings.Threads = 1
	}

	return &Server{
		settings: settings,
		logger:   logger,
		store:    store.New(),
		users:    userdb.New(),
	}
}

// AddUser registers a username/password pair in the shared user
// database. It returns false if the username is empty, reserved, or
// already registered.
func (s *Server) AddUser(username, password string) bool {
	return s.users.Add(username, password)
}

// Listen opens the single TCP acceptor and sizes the worker thread
// pool. It does not block.
func (s *Server) Listen() error {
	runtime.GOMAXPROCS(s.settings.Threads)

	listenConfig := net.ListenConfig{Control: reuseAddrControl}

	listener, err := listenConfig.Listen(context.Background(), "tcp", s.settings.Address)
	if err != nil {
		return fmt.Errorf("could not listen on %q: %w", s.settings.Address, err)
	}

	s.listener = listener
	s.reactor = reactor.New(listener, s.clientArrival, s.logger)
	s.logger.Info("listening", "address", listener.Addr())

	return nil
}

// Addr reports the bound address, or "" if Listen has not been called.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Serve runs the shared Reactor's acceptor loop: every accepted
// connection is handed to a new Session running in its own goroutine.
// It blocks until the listener is closed by Stop.
func (s *Server) Serve() error {
	return s.reactor.Serve()
}

// ListenAndServe chains Listen and Serve, mirroring net/http's helper
// of the same name.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}

	return s.Serve()
}

func (s *Server) clientArrival(conn net.Conn) {
	id := atomic.AddUint32(&s.clientCounter, 1)

	s.wg.Add(1)

	sess := session.New(id, conn, session.Deps{
		Store:        s.store,
		Users:        s.users,
		Authenticate: s.settings.Authenticate,
		FTPPortRange: s.settings.FTPPortRange,
		Logger:       s.logger,
		OnClose:      s.wg.Done,
	})

	s.logger.Debug("client connected", "clientId", id, "remoteAddr", conn.RemoteAddr())

	// The Reactor already runs clientArrival in its own goroutine per
	// accept; Serve runs directly here rather than spawning a second one.
	sess.Serve()
}

// Stop closes the acceptor and waits for every in-flight Session to
// tear down.
func (s *Server) Stop() error {
	if s.listener == nil {
		return ErrNotListening
	}

	if err := s.listener.Close(); err != nil {
		return fmt.Errorf("could not close listener: %w", err)
	}

	s.wg.Wait()

	return nil
}
