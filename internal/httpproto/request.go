// Package httpproto implements the narrow HTTP/1.1 subset the object
// store server speaks: request-line + header parsing for GET/PUT/DELETE,
// and response serialization.
package httpproto

import (
	"strings"

	"github.com/fclairamb/objectstored/internal/base64x"
	"github.com/fclairamb/objectstored/internal/stringutil"
)

// Method is one of the HTTP methods this server recognizes.
type Method int

// Recognized HTTP methods.
const (
	Unrecognized Method = iota
	GET
	PUT
	DELETE
)

// AuthInfo is the decoded username/password carried by an
// "Authorization: Basic ..." header.
type AuthInfo struct {
	Username string
	Password string
}

// Request is a parsed HTTP request head.
type Request struct {
	Valid        bool
	Method       Method
	URI          string
	ContentLen   int64
	headers      map[string]string
	Auth         *AuthInfo
}

// Header looks up a header by name, case-insensitively, already
// trimmed of leading spaces in its value.
func (r *Request) Header(name string) (string, bool) {
	v, ok := r.headers[strings.ToLower(name)]

	return v, ok
}

func methodFromToken(tok string) Method {
	switch tok {
	case "GET":
		return GET
	case "PUT":
		return PUT
	case "DELETE":
		return DELETE
	default:
		return Unrecognized
	}
}

// ParseRequest parses the request head (status line through the
// CRLFCRLF terminating the headers). It does not consume any body
// bytes; the caller reads exactly ContentLen further bytes itself.
func ParseRequest(head []byte) *Request {
	if len(head) == 0 {
		return &Request{Valid: false}
	}

	text := strings.ReplaceAll(string(head), "\r\n", "\n")
	lines := stringutil.SplitPreserveEmpty(strings.TrimSuffix(text, "\n\n"), "\n")

	if len(lines) == 0 || lines[0] == "" {
		return &Request{Valid: false}
	}

	parts := stringutil.SplitPreserveEmpty(lines[0], " ")
	if len(parts) != 3 || parts[2] != "HTTP/1.1" {
		return &Request{Valid: false}
	}

	method := methodFromToken(parts[0])
	if method == Unrecognized {
		return &Request{Valid: false}
	}

	req := &Request{
		Valid:   true,
		Method:  method,
		URI:     parts[1],
		headers: make(map[string]string),
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimLeft(line[colon+1:], " ")
		req.headers[name] = value
	}

	if cl, ok := req.headers["content-length"]; ok {
		req.ContentLen = parseInt(cl)
	}

	if auth, ok := req.headers["authorization"]; ok {
		req.Auth = parseAuth(auth)
	}

	return req
}

func parseInt(s string) int64 {
	var n int64

	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}

		n = n*10 + int64(c-'0')
	}

	return n
}

func parseAuth(header string) *AuthInfo {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return nil
	}

	decoded, ok := base64x.Decode(parts[1])
	if !ok {
		return nil
	}

	userPass := strings.SplitN(string(decoded), ":", 2)
	if len(userPass) != 2 {
		return nil
	}

	return &AuthInfo{Username: userPass[0], Password: userPass[1]}
}
