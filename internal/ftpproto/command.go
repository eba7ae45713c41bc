// Package ftpproto implements the narrow FTP command subset the object
// store server speaks: one CRLF-terminated line per request, and reply
// serialization.
package ftpproto

import (
	"strings"

	"github.com/fclairamb/objectstored/internal/stringutil"
)

// Verb is one of the FTP commands this server recognizes.
type Verb int

// Recognized FTP verbs.
const (
	Unrecognized Verb = iota
	LIST
	RETR
	STOR
	DELE
	PASS
	USER
	PASV
	TYPE
	QUIT
	CWD
)

var verbTable = map[string]Verb{
	"LIST": LIST,
	"RETR": RETR,
	"STOR": STOR,
	"DELE": DELE,
	"PASS": PASS,
	"USER": USER,
	"PASV": PASV,
	"TYPE": TYPE,
	"QUIT": QUIT,
	"CWD":  CWD,
}

// Command is a parsed FTP request line.
type Command struct {
	Valid  bool
	Verb   Verb
	Tokens []string // original-case tokens, Tokens[0] is the raw verb token
}

// Arg returns Tokens[1] or "" if there is no argument.
func (c *Command) Arg() string {
	if len(c.Tokens) < 2 {
		return ""
	}

	return c.Tokens[1]
}

// ParseCommand parses one CRLF-terminated FTP request line.
func ParseCommand(line string) *Command {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

	tokens := stringutil.SplitPreserveEmpty(trimmed, " ")
	if len(tokens) == 0 {
		return &Command{Valid: false}
	}

	verb, ok := verbTable[strings.ToUpper(tokens[0])]
	if !ok {
		return &Command{Valid: false, Tokens: tokens}
	}

	return &Command{Valid: true, Verb: verb, Tokens: tokens}
}
