package session

import (
	"errors"
	"io"
	"strings"

	"github.com/fclairamb/objectstored/internal/httpproto"
	"github.com/fclairamb/objectstored/internal/store"
)

// handleHTTPLine receives the request line already read by the control
// loop, reads the remaining header bytes up to the blank line that
// terminates the head, parses, authenticates, and dispatches.
func (s *Session) handleHTTPLine(requestLine string) {
	head := requestLine

	for !strings.HasSuffix(head, "\r\n\r\n") && !strings.HasSuffix(head, "\n\n") {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			s.logger.Info("HTTP head read error", "err", err)

			return
		}

		head += line

		if line == "\r\n" || line == "\n" {
			break
		}
	}

	req := httpproto.ParseRequest([]byte(head))
	if !req.Valid {
		s.enqueue(httpproto.NewStatusResponse(400).Bytes())

		return
	}

	if s.deps.Authenticate {
		if req.Auth == nil || !s.deps.Users.Verify(req.Auth.Username, req.Auth.Password) {
			resp := httpproto.NewStatusResponse(401).WithHeader("WWW-Authenticate", "Basic")
			s.enqueue(resp.Bytes())

			return
		}
	}

	switch req.Method {
	case httpproto.GET:
		s.handleHTTPGet(req)
	case httpproto.PUT:
		s.handleHTTPPut(req)
	case httpproto.DELETE:
		s.handleHTTPDelete(req)
	default:
		s.enqueue(httpproto.NewStatusResponse(400).Bytes())
	}
}

func (s *Session) handleHTTPGet(req *httpproto.Request) {
	if req.URI == "/" {
		body := []byte(strings.Join(s.deps.Store.List(), "\n"))
		s.enqueue(httpproto.NewBodyResponse(200, body).Bytes())

		return
	}

	data, err := s.deps.Store.Get(req.URI)
	if err == nil {
		s.enqueue(httpproto.NewBodyResponse(200, data).Bytes())

		return
	}

	s.enqueue(httpproto.NewStatusResponse(statusForStoreErr(err, 404)).Bytes())
}

func (s *Session) handleHTTPPut(req *httpproto.Request) {
	if v, ok := req.Header("expect"); ok && v == "100-continue" {
		s.enqueue(httpproto.NewStatusResponse(100).Bytes())
	}

	body := make([]byte, req.ContentLen)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		s.logger.Warn("failed to read PUT body", "err", err)

		return
	}

	err := s.deps.Store.Add(req.URI, body)
	if err == nil {
		s.enqueue(httpproto.NewStatusResponse(201).Bytes())

		return
	}

	// A conflicting PUT maps to 404 by design of this system, not 409:
	// preserved from the original implementation's behavior.
	s.enqueue(httpproto.NewStatusResponse(statusForStoreErr(err, 404)).Bytes())
}

func (s *Session) handleHTTPDelete(req *httpproto.Request) {
	err := s.deps.Store.Remove(req.URI)
	if err == nil {
		s.enqueue(httpproto.NewStatusResponse(200).Bytes())

		return
	}

	s.enqueue(httpproto.NewStatusResponse(statusForStoreErr(err, 404)).Bytes())
}

// statusForStoreErr maps a store.Error to an HTTP status. notFoundAlso
// is the status used both for FileNotFound and AlreadyExists, since
// PUT-over-existing and GET/DELETE-missing share the same 404 mapping
// in this system (see handleHTTPPut).
func statusForStoreErr(err error, notFoundAlso int) int {
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		switch storeErr.Status {
		case store.FileNotFound, store.AlreadyExists:
			return notFoundAlso
		}
	}

	return 500
}
