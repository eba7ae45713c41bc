package ftpproto

import "fmt"

// FTP reply codes used by the session's command handlers.
const (
	StatusFileStatusOK        = 150 // opening data connection
	StatusOK                  = 200 // command okay (e.g. TYPE)
	StatusSystemStatus        = 211
	StatusUserNameOK          = 331 // username okay, need password
	StatusClosingDataConn     = 226 // closing data connection, transfer successful
	StatusEnteringPASV        = 227
	StatusUserLoggedIn        = 230
	StatusFileActionOK        = 250 // file action completed (DELE, CWD)
	StatusQuit                = 221
	StatusTransferAborted     = 426
	StatusErrorOpeningData    = 425
	StatusNotLoggedIn         = 530
	StatusBadSequence         = 503
	StatusActionNotTaken      = 450 // file unavailable (e.g. STOR conflict)
	StatusFileUnavailable     = 550
	StatusActionAbortedError  = 451
	StatusSyntaxError         = 500
)

// WriteReply serializes one FTP reply line: "<code> <message>\r\n".
func WriteReply(code int, message string) []byte {
	return []byte(fmt.Sprintf("%d %s\r\n", code, message))
}
