package session

import (
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/fclairamb/objectstored/internal/ftpproto"
)

// dataConnTimeout bounds how long we wait for the client to connect to
// the passive data listener, mirroring the original passive transfer
// handler's accept deadline.
const dataConnTimeout = 30 * time.Second

func (s *Session) handleFTPPasv() {
	s.dataMu.Lock()
	if s.dataListener != nil {
		_ = s.dataListener.Close()
		s.dataListener = nil
	}
	s.dataMu.Unlock()

	listener, err := net.Listen("tcp4", "0.0.0.0:0")
	if err != nil {
		s.logger.Error("could not open passive listener", "err", err)
		s.enqueue(ftpproto.WriteReply(500, "Could not listen for passive connection"))

		return
	}

	s.dataMu.Lock()
	s.dataListener = listener
	s.dataMu.Unlock()

	port := listener.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert

	quads := s.localIPQuads()
	p1, p2 := port>>8, port&0xff

	s.enqueue(ftpproto.WriteReply(ftpproto.StatusEnteringPASV,
		"Entering passive mode ("+quads+","+strconv.Itoa(p1)+","+strconv.Itoa(p2)+")"))
}

func (s *Session) localIPQuads() string {
	ip := "127,0,0,1"

	if tcpAddr, ok := s.conn.LocalAddr().(*net.TCPAddr); ok {
		if v4 := tcpAddr.IP.To4(); v4 != nil {
			parts := make([]string, 4)
			for i, b := range v4 {
				parts[i] = strconv.Itoa(int(b))
			}

			ip = strings.Join(parts, ",")
		}
	}

	return ip
}

// takeDataListener atomically detaches and returns the current data
// listener, so each PASV listener serves at most one transfer. A later
// PASV or teardown does not close a listener already taken; the
// transfer goroutine that took it closes it when it finishes.
func (s *Session) takeDataListener() net.Listener {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	l := s.dataListener
	s.dataListener = nil

	return l
}

func (s *Session) hasDataListener() bool {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	return s.dataListener != nil
}

func (s *Session) setDataConn(conn net.Conn) {
	s.dataMu.Lock()
	s.dataConn = conn
	s.dataMu.Unlock()
}

func (s *Session) clearDataConn() {
	s.dataMu.Lock()
	s.dataConn = nil
	s.dataMu.Unlock()
}

func (s *Session) handleFTPList() {
	s.enqueue(ftpproto.WriteReply(ftpproto.StatusFileStatusOK, "Listing all objects stored"))

	payload := []byte(strings.Join(s.deps.Store.List(), "\n"))
	if len(payload) > 0 {
		payload = append(payload, '\n')
	}

	s.sendOnDataChannel(payload)
}

func (s *Session) handleFTPRetr(cmd *ftpproto.Command) {
	if !s.hasDataListener() {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusErrorOpeningData, "Error opening data connection"))

		return
	}

	path := s.fullPath(cmd.Arg())

	data, err := s.deps.Store.Get(path)
	if err != nil {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusFileUnavailable, "File not found"))

		return
	}

	s.enqueue(ftpproto.WriteReply(ftpproto.StatusFileStatusOK, "Sending file"))
	s.sendOnDataChannel(data)
}

// sendOnDataChannel implements the LIST/RETR data-channel send path
// (§4.6.5): accept the pending passive connection, write payload, then
// close and reply. The 150 reply (already enqueued by the caller)
// always precedes the first payload byte because it is enqueued on the
// control strand before this goroutine's accept even starts, and the
// control strand delivers FIFO.
func (s *Session) sendOnDataChannel(payload []byte) {
	listener := s.takeDataListener()
	if listener == nil {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusTransferAborted, "Transfer aborted: no passive listener"))

		return
	}

	s.dataWG.Add(1)

	go func() {
		defer s.dataWG.Done()
		defer listener.Close()

		conn, err := acceptWithDeadline(listener, dataConnTimeout)
		if err != nil {
			s.enqueue(ftpproto.WriteReply(ftpproto.StatusTransferAborted, "Transfer aborted: "+err.Error()))

			return
		}

		s.setDataConn(conn)
		defer s.clearDataConn()
		defer conn.Close()

		if _, err := conn.Write(payload); err != nil {
			s.enqueue(ftpproto.WriteReply(ftpproto.StatusTransferAborted, "Transfer aborted: "+err.Error()))

			return
		}

		s.enqueue(ftpproto.WriteReply(ftpproto.StatusClosingDataConn, "Closing data connection"))
	}()
}

func (s *Session) handleFTPStor(cmd *ftpproto.Command) {
	if len(cmd.Tokens) != 2 {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusSyntaxError, "Syntax error in parameters"))

		return
	}

	if !s.hasDataListener() {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusErrorOpeningData, "Error opening data connection"))

		return
	}

	path := s.fullPath(cmd.Arg())

	s.enqueue(ftpproto.WriteReply(ftpproto.StatusFileStatusOK, "Ready to receive"))
	s.receiveOnDataChannel(path)
}

// receiveOnDataChannel implements the STOR data-channel receive path
// (§4.6.5): accept, read until EOF, commit to the store, then reply.
func (s *Session) receiveOnDataChannel(path string) {
	listener := s.takeDataListener()
	if listener == nil {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusTransferAborted, "Transfer aborted: no passive listener"))

		return
	}

	s.dataWG.Add(1)

	go func() {
		defer s.dataWG.Done()
		defer listener.Close()

		conn, err := acceptWithDeadline(listener, dataConnTimeout)
		if err != nil {
			s.enqueue(ftpproto.WriteReply(ftpproto.StatusTransferAborted, "Transfer aborted: "+err.Error()))

			return
		}

		s.setDataConn(conn)
		defer s.clearDataConn()
		defer conn.Close()

		buf, err := io.ReadAll(conn)
		if err != nil {
			s.enqueue(ftpproto.WriteReply(ftpproto.StatusActionAbortedError, "Error receiving file"))

			return
		}

		if err := s.deps.Store.Add(path, buf); err != nil {
			s.enqueue(ftpproto.WriteReply(ftpproto.StatusActionNotTaken, "File not saved"))

			return
		}

		s.enqueue(ftpproto.WriteReply(ftpproto.StatusClosingDataConn, "File saved"))
	}()
}

func acceptWithDeadline(listener net.Listener, timeout time.Duration) (net.Conn, error) {
	if tcpListener, ok := listener.(*net.TCPListener); ok {
		if err := tcpListener.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}

	return listener.Accept()
}
