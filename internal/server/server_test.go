package server_test

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/secsy/goftp"
	"github.com/stretchr/testify/require"

	"github.com/fclairamb/objectstored/internal/log"
	"github.com/fclairamb/objectstored/internal/server"
	"github.com/fclairamb/objectstored/internal/session"
)

func startTestServer(t *testing.T, settings server.Settings) *server.Server {
	t.Helper()

	srv := server.New(settings, log.NewNoOpLogger())
	require.True(t, srv.AddUser("u", "pw"))
	require.NoError(t, srv.Listen())

	go func() {
		_ = srv.Serve()
	}()

	t.Cleanup(func() {
		_ = srv.Stop()
	})

	return srv
}

func dialFTP(t *testing.T, addr string) *goftp.Client {
	t.Helper()

	c, err := goftp.DialConfig(goftp.Config{User: "u", Password: "pw"}, addr)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestFTPStorRetrDeleRoundTrip(t *testing.T) {
	srv := startTestServer(t, server.Settings{
		Address:      "127.0.0.1:0",
		Threads:      2,
		FTPPortRange: session.PortRange{Min: 0, Max: 65535},
	})

	c := dialFTP(t, srv.Addr())

	payload := []byte("hello, object store")
	err := c.Store("greeting.txt", bytes.NewReader(payload))
	require.NoError(t, err)

	var buf bytes.Buffer
	err = c.Retrieve("greeting.txt", &buf)
	require.NoError(t, err)
	require.Equal(t, payload, buf.Bytes())

	err = c.Delete("greeting.txt")
	require.NoError(t, err)

	err = c.Retrieve("greeting.txt", &buf)
	require.Error(t, err)
}

// TestFTPListPayloadIsStoreListJoinedByNewline drives PASV/LIST over a raw
// control connection, since the LIST payload is a bare newline-joined key
// list (SPEC_FULL §4.6.4), not a conventional Unix listing a generic FTP
// client library's directory parser expects.
func TestFTPListPayloadIsStoreListJoinedByNewline(t *testing.T) {
	srv := startTestServer(t, server.Settings{
		Address:      "127.0.0.1:0",
		Threads:      1,
		FTPPortRange: session.PortRange{Min: 0, Max: 65535},
	})

	c := dialFTP(t, srv.Addr())
	require.NoError(t, c.Store("a.txt", bytes.NewReader([]byte("a"))))
	require.NoError(t, c.Store("b.txt", bytes.NewReader([]byte("b"))))

	ctrl, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	require.NoError(t, err)

	defer ctrl.Close()

	r := bufio.NewReader(ctrl)

	readLine(t, r) // 220 welcome

	writeLine(t, ctrl, "USER u")
	readLine(t, r)
	writeLine(t, ctrl, "PASS pw")
	readLine(t, r)
	writeLine(t, ctrl, "PASV")

	pasvReply := readLine(t, r)

	dataAddr := parsePASVAddr(t, pasvReply)

	writeLine(t, ctrl, "LIST")
	readLine(t, r) // 150

	dataConn, err := net.DialTimeout("tcp", dataAddr, time.Second)
	require.NoError(t, err)

	payload, err := io.ReadAll(dataConn)
	require.NoError(t, err)
	_ = dataConn.Close()

	readLine(t, r) // 226

	names := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	require.ElementsMatch(t, []string{"/a.txt", "/b.txt"}, names)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()

	line, err := r.ReadString('\n')
	require.NoError(t, err)

	return line
}

func writeLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()

	_, err := conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

// parsePASVAddr extracts "ip:port" from a 227 reply's (h1,h2,h3,h4,p1,p2).
func parsePASVAddr(t *testing.T, reply string) string {
	t.Helper()

	open := strings.IndexByte(reply, '(')
	closeIdx := strings.IndexByte(reply, ')')
	require.True(t, open >= 0 && closeIdx > open)

	parts := strings.Split(reply[open+1:closeIdx], ",")
	require.Len(t, parts, 6)

	p1, err := strconv.Atoi(parts[4])
	require.NoError(t, err)

	p2, err := strconv.Atoi(parts[5])
	require.NoError(t, err)

	ip := strings.Join(parts[:4], ".")

	return ip + ":" + strconv.Itoa(p1*256+p2)
}

func TestFTPRequiresLoginForDataCommands(t *testing.T) {
	srv := startTestServer(t, server.Settings{
		Address:      "127.0.0.1:0",
		Threads:      1,
		FTPPortRange: session.PortRange{Min: 0, Max: 65535},
	})

	conn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	require.NoError(t, err)

	defer conn.Close()

	reply := make([]byte, 256)

	n, err := conn.Read(reply)
	require.NoError(t, err)
	require.Contains(t, string(reply[:n]), "220")

	_, err = conn.Write([]byte("PASV\r\n"))
	require.NoError(t, err)

	n, err = conn.Read(reply)
	require.NoError(t, err)
	require.Contains(t, string(reply[:n]), "530")
}

func TestHTTPPutGetDeleteRoundTrip(t *testing.T) {
	srv := startTestServer(t, server.Settings{
		Address: "127.0.0.1:0",
		Threads: 1,
	})

	conn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	require.NoError(t, err)

	defer conn.Close()

	body := "some bytes"
	req := "PUT /widget HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	_, err = conn.Write([]byte(req))
	require.NoError(t, err)

	resp := readHTTPResponse(t, conn)
	require.Contains(t, resp, "201")

	_, err = conn.Write([]byte("GET /widget HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	resp = readHTTPResponse(t, conn)
	require.Contains(t, resp, "200")
	require.Contains(t, resp, body)

	_, err = conn.Write([]byte("DELETE /widget HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	resp = readHTTPResponse(t, conn)
	require.Contains(t, resp, "200")
}

// TestHTTPPutTwiceConflicts covers spec §8's "Conflict on PUT twice": a
// second PUT of a key already written by a prior PUT must be rejected with
// 404, not silently overwrite it.
func TestHTTPPutTwiceConflicts(t *testing.T) {
	srv := startTestServer(t, server.Settings{
		Address: "127.0.0.1:0",
		Threads: 1,
	})

	conn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	require.NoError(t, err)

	defer conn.Close()

	body := "first"
	req := "PUT /dup HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	_, err = conn.Write([]byte(req))
	require.NoError(t, err)

	resp := readHTTPResponse(t, conn)
	require.Contains(t, resp, "201")

	body2 := "second"
	req2 := "PUT /dup HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body2)) + "\r\n\r\n" + body2

	_, err = conn.Write([]byte(req2))
	require.NoError(t, err)

	resp = readHTTPResponse(t, conn)
	require.Contains(t, resp, "404")
}

// TestCrossProtocolVisibilityHTTPPutFTPRetr covers spec §8's "Cross-protocol
// visibility": an object stored via HTTP PUT must be retrievable via FTP
// RETR from the same store.
func TestCrossProtocolVisibilityHTTPPutFTPRetr(t *testing.T) {
	srv := startTestServer(t, server.Settings{
		Address:      "127.0.0.1:0",
		Threads:      1,
		FTPPortRange: session.PortRange{Min: 0, Max: 65535},
	})

	httpConn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	require.NoError(t, err)

	defer httpConn.Close()

	body := "cross protocol payload"
	req := "PUT /shared.txt HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	_, err = httpConn.Write([]byte(req))
	require.NoError(t, err)

	resp := readHTTPResponse(t, httpConn)
	require.Contains(t, resp, "201")

	c := dialFTP(t, srv.Addr())

	var buf bytes.Buffer
	err = c.Retrieve("shared.txt", &buf)
	require.NoError(t, err)
	require.Equal(t, body, buf.String())
}

// TestCrossProtocolVisibilityFTPStorHTTPGet is the inverse: an object
// stored via FTP STOR must be retrievable via HTTP GET.
func TestCrossProtocolVisibilityFTPStorHTTPGet(t *testing.T) {
	srv := startTestServer(t, server.Settings{
		Address:      "127.0.0.1:0",
		Threads:      1,
		FTPPortRange: session.PortRange{Min: 0, Max: 65535},
	})

	c := dialFTP(t, srv.Addr())

	payload := []byte("ftp stored payload")
	err := c.Store("other.txt", bytes.NewReader(payload))
	require.NoError(t, err)

	httpConn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	require.NoError(t, err)

	defer httpConn.Close()

	_, err = httpConn.Write([]byte("GET /other.txt HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	resp := readHTTPResponse(t, httpConn)
	require.Contains(t, resp, "200")
	require.Contains(t, resp, string(payload))
}

func readHTTPResponse(t *testing.T, conn net.Conn) string {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	buf := make([]byte, 4096)

	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}

	return string(buf[:n])
}
