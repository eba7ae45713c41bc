package session

import (
	"net"

	"github.com/fclairamb/objectstored/internal/ftpproto"
	"github.com/fclairamb/objectstored/internal/log"
)

// disableNagle turns off Nagle's algorithm on the control socket so
// small protocol replies (FTP status lines, HTTP headers) aren't
// delayed waiting to be coalesced with further writes.
func disableNagle(conn net.Conn, logger log.Logger) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}

	if err := tcpConn.SetNoDelay(true); err != nil {
		logger.Warn("could not disable Nagle's algorithm", "err", err)
	}
}

func ftpReplyWelcome() []byte {
	return ftpproto.WriteReply(220, "Welcome")
}
