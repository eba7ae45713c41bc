package server

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// reuseAddrControl sets SO_REUSEADDR on the acceptor; Windows has no
// SO_REUSEPORT equivalent.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var errSetOpts error

	err := c.Control(func(fd uintptr) {
		errSetOpts = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
	})
	if err != nil {
		return fmt.Errorf("unable to set control options: %w", err)
	}

	if errSetOpts != nil {
		return fmt.Errorf("unable to set control options: %w", errSetOpts)
	}

	return nil
}
