package httpproto

import (
	"fmt"
	"strconv"
)

// Header is a single response header line.
type Header struct {
	Name  string
	Value string
}

// Response is a serializable HTTP/1.1 response.
type Response struct {
	Status  int
	Headers []Header
	Body    []byte
}

var reasonPhrases = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	400: "Bad Request",
	401: "Unauthorized",
	404: "Not Found",
	500: "Internal Server Error",
}

func reasonPhrase(status int) string {
	if r, ok := reasonPhrases[status]; ok {
		return r
	}

	return "Unknown"
}

// NewStatusResponse builds a response with no body: Content-Length: 0.
func NewStatusResponse(status int) *Response {
	return &Response{Status: status}
}

// NewBodyResponse builds a response carrying body, automatically
// emitting Content-Type: application/octet-stream and the matching
// Content-Length.
func NewBodyResponse(status int, body []byte) *Response {
	return &Response{Status: status, Body: body}
}

// WithHeader appends a header and returns the response for chaining.
func (r *Response) WithHeader(name, value string) *Response {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})

	return r
}

// Bytes serializes the response to wire format.
func (r *Response) Bytes() []byte {
	out := fmt.Sprintf("HTTP/1.1 %d %s\r\n", r.Status, reasonPhrase(r.Status))

	for _, h := range r.Headers {
		out += fmt.Sprintf("%s: %s\r\n", h.Name, h.Value)
	}

	if r.Body != nil {
		out += "Content-Type: application/octet-stream\r\n"
		out += "Content-Length: " + strconv.Itoa(len(r.Body)) + "\r\n\r\n"

		return append([]byte(out), r.Body...)
	}

	out += "Content-Length: 0\r\n\r\n"

	return []byte(out)
}
