package session

import (
	"github.com/fclairamb/objectstored/internal/ftpproto"
)

// handleFTPLine parses and dispatches one FTP control-channel line.
func (s *Session) handleFTPLine(line string) {
	cmd := ftpproto.ParseCommand(line)
	if !cmd.Valid {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusSyntaxError, "Syntax error, command unrecognized"))

		return
	}

	s.dispatchFTP(cmd)
	s.lastCommand = cmd.Tokens[0]
}

// commandsRequiringLogin is checked uniformly, resolving the
// inconsistency across revisions of the original implementation: this
// server enforces the login gate for every one of these verbs.
var commandsRequiringLogin = map[ftpproto.Verb]bool{
	ftpproto.TYPE: true,
	ftpproto.CWD:  true,
	ftpproto.LIST: true,
	ftpproto.RETR: true,
	ftpproto.STOR: true,
	ftpproto.DELE: true,
	ftpproto.PASV: true,
}

func (s *Session) dispatchFTP(cmd *ftpproto.Command) {
	if commandsRequiringLogin[cmd.Verb] && s.loggedInUser == nil {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusNotLoggedIn, "Not logged in"))

		return
	}

	switch cmd.Verb {
	case ftpproto.USER:
		s.handleFTPUser(cmd)
	case ftpproto.PASS:
		s.handleFTPPass(cmd)
	case ftpproto.QUIT:
		s.handleFTPQuit()
	case ftpproto.TYPE:
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusOK, "Mode switched"))
	case ftpproto.CWD:
		s.handleFTPCwd(cmd)
	case ftpproto.LIST:
		s.handleFTPList()
	case ftpproto.RETR:
		s.handleFTPRetr(cmd)
	case ftpproto.STOR:
		s.handleFTPStor(cmd)
	case ftpproto.DELE:
		s.handleFTPDele(cmd)
	case ftpproto.PASV:
		s.handleFTPPasv()
	default:
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusSyntaxError, "Syntax error, command unrecognized"))
	}
}

func (s *Session) handleFTPUser(cmd *ftpproto.Command) {
	s.loggedInUser = nil
	s.lastUsername = cmd.Arg()
	s.enqueue(ftpproto.WriteReply(ftpproto.StatusUserNameOK, "Please provide password"))
}

func (s *Session) handleFTPPass(cmd *ftpproto.Command) {
	if s.lastCommand != "USER" {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusBadSequence, "Bad sequence of commands"))

		return
	}

	if s.deps.Users.Verify(s.lastUsername, cmd.Arg()) {
		user := s.lastUsername
		s.loggedInUser = &user
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusUserLoggedIn, "Login successful"))

		return
	}

	s.enqueue(ftpproto.WriteReply(ftpproto.StatusNotLoggedIn, "Failed to log in"))
}

func (s *Session) handleFTPQuit() {
	s.loggedInUser = nil
	s.cwd = "/"
	s.lastCommand = ""
	s.lastUsername = ""
	s.enqueueAndClose(ftpproto.WriteReply(ftpproto.StatusQuit, "Connection closed"))
}

func (s *Session) handleFTPCwd(cmd *ftpproto.Command) {
	s.cwd += cmd.Arg() + "/"
	s.enqueue(ftpproto.WriteReply(ftpproto.StatusFileActionOK, "Working directory changed"))
}

func (s *Session) handleFTPDele(cmd *ftpproto.Command) {
	err := s.deps.Store.Remove(s.fullPath(cmd.Arg()))
	if err == nil {
		s.enqueue(ftpproto.WriteReply(ftpproto.StatusFileActionOK, "File deleted"))

		return
	}

	s.enqueue(ftpproto.WriteReply(ftpproto.StatusFileUnavailable, "Unable to delete file"))
}

func (s *Session) fullPath(arg string) string {
	return s.cwd + arg
}

