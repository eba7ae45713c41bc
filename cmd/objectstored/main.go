// Command objectstored runs the dual-protocol HTTP/FTP object store
// server.
//
// Usage:
//
//	objectstored <address> <port> <threads> <auth|no_auth> <ftp_port_min>-<ftp_port_max> [user:pass ...]
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fclairamb/objectstored/internal/log"
	"github.com/fclairamb/objectstored/internal/server"
	"github.com/fclairamb/objectstored/internal/session"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := log.NewGoKitLoggerStdout()

	settings, users, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "objectstored:", err)
		fmt.Fprintln(os.Stderr, "usage: objectstored <address> <port> <threads> <auth|no_auth> "+
			"<ftp_port_min>-<ftp_port_max> [user:pass ...]")

		return 1
	}

	srv := server.New(*settings, logger)

	for _, u := range users {
		if !srv.AddUser(u.username, u.password) {
			fmt.Fprintf(os.Stderr, "objectstored: could not seed user %q\n", u.username)

			return 1
		}
	}

	done := make(chan struct{})

	go waitForShutdown(srv, done)

	if err := srv.ListenAndServe(); err != nil {
		select {
		case <-done:
			return 0
		default:
			fmt.Fprintln(os.Stderr, "objectstored:", err)

			return 1
		}
	}

	return 0
}

func waitForShutdown(srv *server.Server, done chan struct{}) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	<-ch
	close(done)
	_ = srv.Stop()
}

type credential struct {
	username string
	password string
}

func parseArgs(args []string) (*server.Settings, []credential, error) {
	if len(args) < 5 {
		return nil, nil, fmt.Errorf("expected at least 5 arguments, got %d", len(args))
	}

	address := args[0]

	port, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid port %q: %w", args[1], err)
	}

	threads, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid thread count %q: %w", args[2], err)
	}

	authenticate, err := parseAuthToken(args[3])
	if err != nil {
		return nil, nil, err
	}

	ftpRange, err := parsePortRange(args[4])
	if err != nil {
		return nil, nil, err
	}

	users := make([]credential, 0, len(args)-5)

	for _, raw := range args[5:] {
		username, password, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, nil, fmt.Errorf("invalid user:pass pair %q", raw)
		}

		users = append(users, credential{username: username, password: password})
	}

	settings := &server.Settings{
		Address:      fmt.Sprintf("%s:%d", address, port),
		Threads:      threads,
		Authenticate: authenticate,
		FTPPortRange: ftpRange,
	}

	return settings, users, nil
}

func parseAuthToken(token string) (bool, error) {
	switch token {
	case "auth":
		return true, nil
	case "no_auth":
		return false, nil
	default:
		return false, fmt.Errorf("invalid auth token %q, expected auth or no_auth", token)
	}
}

func parsePortRange(token string) (session.PortRange, error) {
	minStr, maxStr, ok := strings.Cut(token, "-")
	if !ok {
		return session.PortRange{}, fmt.Errorf("invalid FTP port range %q, expected MIN-MAX", token)
	}

	minPort, err := strconv.Atoi(minStr)
	if err != nil {
		return session.PortRange{}, fmt.Errorf("invalid FTP port range min %q: %w", minStr, err)
	}

	maxPort, err := strconv.Atoi(maxStr)
	if err != nil {
		return session.PortRange{}, fmt.Errorf("invalid FTP port range max %q: %w", maxStr, err)
	}

	return session.PortRange{Min: minPort, Max: maxPort}, nil
}
