// Package session implements the per-connection state machine: the
// core of the server. One Session is created per accepted control
// socket; it detects HTTP vs FTP on the first line, dispatches to the
// matching protocol branch, and mediates all access to the object
// store and user database for the lifetime of the connection.
package session

import (
	"bufio"
	"net"
	"sync"

	"github.com/fclairamb/objectstored/internal/detector"
	"github.com/fclairamb/objectstored/internal/log"
	"github.com/fclairamb/objectstored/internal/store"
	"github.com/fclairamb/objectstored/internal/userdb"
)

// PortRange identifies an inclusive range of remote ports that, on
// first connect, marks a peer as FTP so the 220 greeting can be sent
// before any request arrives.
type PortRange struct {
	Min int
	Max int
}

func (r PortRange) contains(port int) bool {
	return port >= r.Min && port <= r.Max
}

// Deps are the shared collaborators every Session mediates access to.
type Deps struct {
	Store        *store.Store
	Users        *userdb.DB
	Authenticate bool
	FTPPortRange PortRange
	Logger       log.Logger
	OnClose      func()
}

type outboxMsg struct {
	data       []byte
	closeAfter bool
}

// Session is the per-connection state machine.
type Session struct {
	id     uint32
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	deps   Deps
	logger log.Logger

	proto         detector.Protocol
	firstLineSeen bool

	outbox    chan outboxMsg
	closeOnce sync.Once

	dataWG sync.WaitGroup

	dataMu       sync.Mutex
	dataListener net.Listener
	dataConn     net.Conn // weak: owned by the in-flight transfer goroutine, not by Session

	// FTP substate
	loggedInUser *string
	lastUsername string
	lastCommand  string
	cwd          string
}

// New constructs a Session for an accepted connection. id is a
// monotonically increasing per-server client counter used only for
// log correlation.
func New(id uint32, conn net.Conn, deps Deps) *Session {
	return &Session{
		id:     id,
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		deps:   deps,
		logger: deps.Logger.With("clientId", id),
		outbox: make(chan outboxMsg, 32),
		cwd:    "/",
	}
}

// Serve disables Nagle, starts the control-channel write strand, emits
// the FTP greeting if applicable, and runs the control-channel receive
// loop until the connection closes. It blocks until the session ends.
func (s *Session) Serve() {
	disableNagle(s.conn, s.logger)

	go s.writeLoop()

	if tcpAddr, ok := s.conn.RemoteAddr().(*net.TCPAddr); ok && s.deps.FTPPortRange.contains(tcpAddr.Port) {
		s.enqueue(ftpReplyWelcome())
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			s.logger.Info("control connection closed", "err", err)

			break
		}

		s.handleLine(line)
	}

	s.teardown()
}

func (s *Session) handleLine(line string) {
	if !s.firstLineSeen {
		s.firstLineSeen = true
		s.proto = detector.Detect(line)
	}

	switch s.proto {
	case detector.HTTP:
		s.handleHTTPLine(line)
	default:
		s.handleFTPLine(line)
	}
}

// enqueue posts data to the control write strand. It is safe to call
// from the data-channel goroutine; the strand (writeLoop) guarantees
// FIFO, single-writer delivery regardless of caller.
func (s *Session) enqueue(data []byte) {
	defer func() { _ = recover() }() // outbox already closed: session is tearing down

	s.outbox <- outboxMsg{data: data}
}

func (s *Session) enqueueAndClose(data []byte) {
	defer func() { _ = recover() }()

	s.outbox <- outboxMsg{data: data, closeAfter: true}
}

func (s *Session) writeLoop() {
	for msg := range s.outbox {
		if _, err := s.writer.Write(msg.data); err != nil {
			s.logger.Warn("write error", "err", err)

			break
		}

		if err := s.writer.Flush(); err != nil {
			s.logger.Warn("flush error", "err", err)

			break
		}

		if msg.closeAfter {
			break
		}
	}

	_ = s.conn.Close()
}

func (s *Session) closeOutbox() {
	s.closeOnce.Do(func() { close(s.outbox) })
}

func (s *Session) teardown() {
	s.dataMu.Lock()
	if s.dataListener != nil {
		_ = s.dataListener.Close()
	}

	if s.dataConn != nil {
		_ = s.dataConn.Close()
	}
	s.dataMu.Unlock()

	s.dataWG.Wait()

	s.closeOutbox()

	if s.deps.OnClose != nil {
		s.deps.OnClose()
	}
}
